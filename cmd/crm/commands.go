package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/digiheadway/sales-crm/internal/config"
)

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "Show the upstream option catalog (tags, owners, lists)",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore()
		if err != nil {
			return err
		}
		cat, err := store.FetchCatalog(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(cat)
		}
		fmt.Printf("  %s %v\n", colorize(colorBold, "tags:"), cat.Tags)
		fmt.Printf("  %s %v\n", colorize(colorBold, "assigned_to:"), cat.AssignedTo)
		fmt.Printf("  %s %v\n", colorize(colorBold, "lists:"), cat.Lists)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := config.SetKey(key, value); err != nil {
			return err
		}
		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
