package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nutrihelper/backend/internal/domain"
)

func newAddCmd(opts *rootOptions) *cobra.Command {
	var calories, protein float64

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add or replace a custom food",
		Long: `Add a food to the local food list and save it to the custom foods file.
Values are per 100g. Adding an existing name replaces it.

Example:
  nutrition add avocado --calories 160 --protein 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}

			var cal, prot *float64
			if cmd.Flags().Changed("calories") {
				cal = domain.Float(calories)
			}
			if cmd.Flags().Changed("protein") {
				prot = domain.Float(protein)
			}

			rec, err := a.Foods.AddFood(cmd.Context(), args[0], cal, prot)
			if err != nil {
				if errors.Is(err, domain.ErrPersistence) {
					return fmt.Errorf("%s could not be saved: %w", rec.Name, err)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s: %s\n", rec.Name, rec.Facts().Summary())
			return nil
		},
	}

	cmd.Flags().Float64Var(&calories, "calories", 0, "Calories (kcal per 100g)")
	cmd.Flags().Float64Var(&protein, "protein", 0, "Protein (g per 100g)")
	return cmd
}

func newFoodsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "foods",
		Short: "List the local food list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCALORIES\tPROTEIN")
			for _, rec := range a.Foods.ListFoods(cmd.Context()) {
				fmt.Fprintf(w, "%s\t%s\t%s\n", rec.Name, formatValue(rec.Calories), formatValue(rec.Protein))
			}
			return w.Flush()
		},
	}
}

func formatValue(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}
