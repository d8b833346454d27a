package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tether",
	Short: "Personal relationship tracker",
	Long:  "Tether keeps track of the people in your life: conversations, reach-outs, relationships, and who you should talk to next. Single Go binary, local SQLite storage.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(userCmd)
}
