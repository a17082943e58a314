package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newIngredientCommand(serverAddr *string) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "ingredient <token>",
		Short: "Look up a single ingredient's current record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(*serverAddr)
			rec, err := client.GetIngredient(args[0])
			if err != nil {
				return err
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "canonical name: %s\n", rec.CanonicalName)
			fmt.Fprintf(out, "eco score:      %d\n", rec.EcoScore)
			fmt.Fprintf(out, "risk level:     %s\n", rec.RiskLevel)
			fmt.Fprintf(out, "benefits:       %s\n", rec.Benefits)
			fmt.Fprintf(out, "risks:          %s\n", rec.RisksDetailed)
			fmt.Fprintf(out, "sources:        %s\n", strings.Join(rec.Sources, ", "))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the raw JSON response")
	return cmd
}
