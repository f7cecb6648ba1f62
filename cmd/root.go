package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/lissants/berkaraoke/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "berkaraoke",
	Short: "Berkaraoke is a karaoke companion service.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting berkaraoke server...")
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
