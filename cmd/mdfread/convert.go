package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mdfreader/mdf3/diagnostics"
	"github.com/mdfreader/mdf3/mdf"
)

var convertCmd = &cobra.Command{
	Use:                   "convert FILE",
	Short:                 "Apply every channel's conversion and print the resulting units",
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

		if err := f.ConvertAll(context.Background()); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		for _, name := range f.ChannelNames() {
			entry, _ := f.Get(name)
			fmt.Printf("%-32s unit=%-8s samples=%d\n", name, entry.Unit, entry.Samples.Len())
		}

		for _, w := range diags.Warnings() {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
}
