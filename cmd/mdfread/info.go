package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mdfreader/mdf3/diagnostics"
	"github.com/mdfreader/mdf3/mdf"
)

var infoCmd = &cobra.Command{
	Use:                   "info FILE",
	Short:                 "Print the header block and channel count",
	Args:                  cobra.ExactArgs(1),
	DisableFlagsInUseLine: true,
	Run: func(cmd *cobra.Command, args []string) {
		filename := args[0]

		opts := openOptions()
		diags := diagnostics.NewCollector()
		opts.Diagnostics = diags

		f, err := mdf.Open(filename, opts)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer f.Close()

		hd := f.Header()
		fmt.Printf("Date:         %s\n", hd.Date)
		fmt.Printf("Time:         %s\n", hd.Time)
		fmt.Printf("Author:       %s\n", hd.Author)
		fmt.Printf("Organization: %s\n", hd.Organization)
		fmt.Printf("Project:      %s\n", hd.ProjectName)
		fmt.Printf("Subject:      %s\n", hd.Subject)
		if hd.HasUTC {
			fmt.Printf("UTC offset:   %d\n", hd.UTCOffset)
		}
		fmt.Printf("Channels:     %d\n", len(f.ChannelNames()))

		for _, w := range diags.Warnings() {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
