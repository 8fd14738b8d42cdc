package main

import (
	"fmt"

	"github.com/cuemby/printq/pkg/manifest"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a manifest without touching the print server",
	Long: `Parse a manifest, order its resources and run every static check.

Whether an option is supported by the installed driver can only be decided
against the live queue and is left to apply.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filename, _ := cmd.Flags().GetString("file")

		m, err := manifest.LoadFile(filename)
		if err != nil {
			return err
		}
		if err := m.Validate(); err != nil {
			return fmt.Errorf("%s: %w", filename, err)
		}

		items, _ := m.Order()
		fmt.Printf("✓ %s: %d resources\n", filename, len(items))
		for _, item := range items {
			fmt.Printf("  %s %s\n", item.Queue.Kind, item.Queue.Name)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringP("file", "f", "", "Manifest file to check (required)")
	_ = validateCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(validateCmd)
}
