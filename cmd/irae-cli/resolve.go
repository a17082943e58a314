package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newResolveCommand(serverAddr *string) *cobra.Command {
	var (
		tokensFile  string
		userContext string
		productName string
		jsonOut     bool
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a product's ingredient list into a full product analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := readTokens(tokensFile, args)
			if err != nil {
				return err
			}
			if len(tokens) == 0 {
				return fmt.Errorf("no ingredient tokens given; pass --file or trailing arguments")
			}

			client := newAPIClient(*serverAddr)
			analysis, err := client.Resolve(resolveRequest{
				RawTokens:   tokens,
				UserContext: userContext,
				ProductName: productName,
			})
			if err != nil {
				return err
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(analysis)
			}
			printAnalysis(cmd, analysis)
			return nil
		},
	}

	cmd.Flags().StringVar(&tokensFile, "file", "", "path to a file with one ingredient token per line")
	cmd.Flags().StringVar(&userContext, "context", "", "user context, e.g. sensitive-skin")
	cmd.Flags().StringVar(&productName, "product", "", "product name for the analysis")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the raw JSON response")
	return cmd
}

func readTokens(file string, args []string) ([]string, error) {
	if file == "" {
		return args, nil
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("open tokens file: %w", err)
	}
	defer f.Close()

	var tokens []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tokens = append(tokens, line)
	}
	return tokens, scanner.Err()
}

func printAnalysis(cmd *cobra.Command, analysis productAnalysisDTO) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "product: %s\n", analysis.ProductName)
	fmt.Fprintf(out, "avg eco score: %.1f\n", analysis.AvgEcoScore)
	fmt.Fprintf(out, "suitability: %s\n", analysis.Suitability)
	if analysis.Recommendations != "" {
		fmt.Fprintf(out, "recommendations: %s\n", analysis.Recommendations)
	}
	fmt.Fprintln(out, "ingredients:")
	for _, d := range analysis.IngredientsDetails {
		fmt.Fprintf(out, "  - %s -> %s [eco=%d risk=%s]\n",
			d.RawToken, d.CanonicalName, d.Record.EcoScore, d.Record.RiskLevel)
	}
}
