package main

import (
	"github.com/spf13/cobra"

	"github.com/mdfreader/mdf3/mdf"
)

var (
	metadataLevel   string
	filterLongNames bool
	concurrency     int
)

var rootCmd = &cobra.Command{
	Use:                   "mdfread",
	Short:                 "Read and inspect MDF 3.x measurement files",
	DisableFlagsInUseLine: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&metadataLevel, "metadata", "full", `Metadata level: "full", "skip-text" or "groups-only"`)
	rootCmd.PersistentFlags().BoolVar(&filterLongNames, "filter-long-names", false, `Reduce ASAM long names to their last dot-delimited segment`)
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 1, `Number of data groups to decode in parallel`)
}

func openOptions() mdf.Options {
	level := mdf.MetadataFull
	switch metadataLevel {
	case "skip-text":
		level = mdf.MetadataSkipText
	case "groups-only":
		level = mdf.MetadataGroupsOnly
	}
	return mdf.Options{
		Level:           level,
		FilterLongNames: filterLongNames,
		Concurrency:     concurrency,
	}
}
