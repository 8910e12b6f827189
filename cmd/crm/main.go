package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	noColor bool
	jsonOut bool
)

var rootCmd = &cobra.Command{
	Use:           "crm",
	Short:         "Manage sales leads and follow-ups from the terminal",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print raw JSON instead of tables")

	rootCmd.AddCommand(leadsCmd)
	rootCmd.AddCommand(todosCmd)
	rootCmd.AddCommand(optionsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(mockCmd)
	rootCmd.AddCommand(mcpCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
