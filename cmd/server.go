package cmd

import (
	"github.com/lissants/berkaraoke/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the berkaraoke HTTP server",
	Long:  `Start the karaoke companion service: recorder control, preview playback, submission tracking and the analysis trigger API.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
