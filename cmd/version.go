package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mpatel/patminer/internal/server"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the patminer version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("patminer %s\n", server.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
