package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCommand(serverAddr *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Print the detailed health of a running irae-server",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(*serverAddr)
			detail, err := client.Health()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(detail); err != nil {
				return fmt.Errorf("encode health response: %w", err)
			}
			return nil
		},
	}
	return cmd
}
