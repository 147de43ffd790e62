package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mdfreader/mdf3/mdf"
)

var dumpCount int

var dumpCmd = &cobra.Command{
	Use:                   "dump FILE CHANNEL",
	Short:                 "Print a channel's samples, converted lazily on access",
	Args:                  cobra.ExactArgs(2),
	DisableFlagsInUseLine: true,
	Run: func(cmd *cobra.Command, args []string) {
		filename, channel := args[0], args[1]

		f, err := mdf.Open(filename, openOptions())
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer f.Close()

		entry, ok := f.Get(channel)
		if !ok {
			fmt.Printf("no such channel: %q\n", channel)
			os.Exit(1)
		}

		n := entry.Samples.Len()
		if dumpCount > 0 && dumpCount < n {
			n = dumpCount
		}
		for i := 0; i < n; i++ {
			printSample(entry.Samples, i)
		}
	},
}

func printSample(s mdf.Samples, i int) {
	switch s.Kind {
	case mdf.KindString:
		fmt.Println(s.Str[i])
	case mdf.KindBytes:
		fmt.Printf("% x\n", s.Raw[i])
	default:
		fmt.Println(s.Float64(i))
	}
}

func init() {
	dumpCmd.Flags().IntVar(&dumpCount, "count", 0, `Limit output to the first N samples (0 means all)`)
	rootCmd.AddCommand(dumpCmd)
}
