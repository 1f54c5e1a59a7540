package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stratrunner version %s\n", version)
		fmt.Println("A rule-based strategy backtest engine")
		fmt.Println("https://github.com/rustyeddy/stratrunner")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
