package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mdfreader/mdf3/mdf"
)

var listCmd = &cobra.Command{
	Use:                   "list FILE",
	Short:                 "List every channel name, its unit and its master channel",
	Args:                  cobra.ExactArgs(1),
	DisableFlagsInUseLine: true,
	Run: func(cmd *cobra.Command, args []string) {
		filename := args[0]

		f, err := mdf.Open(filename, openOptions())
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer f.Close()

		for _, name := range f.ChannelNames() {
			entry, _ := f.Get(name)
			fmt.Printf("%-32s %-12s master=%s\n", name, entry.Unit, entry.Master)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
