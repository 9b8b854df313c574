package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nutrihelper/backend/internal/domain"
)

func newLookupCmd(opts *rootOptions) *cobra.Command {
	var (
		provider string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "lookup <food>",
		Short: "Look up calories and protein for a food",
		Long: `Look up per-100g calories and protein for a food.

Without an OpenAI key the --provider flag picks the source:
  remote  OpenFoodFacts, then the local food list (default)
  local   the local food list only

Examples:
  nutrition lookup chicken --provider local
  nutrition lookup "greek yogurt"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}

			pref := a.DefaultPreference
			if provider != "" {
				if pref, err = domain.ParsePreference(provider); err != nil {
					return err
				}
			}

			result, err := a.Resolver.Lookup(cmd.Context(), strings.Join(args, " "), pref)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			for _, notice := range result.Notices {
				fmt.Fprintf(out, "Warning: %s\n", notice)
			}
			fmt.Fprintln(out, result.Display())
			return nil
		},
	}

	cmd.Flags().StringVarP(&provider, "provider", "p", "", "Provider when no OpenAI key is set: remote or local")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}
