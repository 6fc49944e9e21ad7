package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AntonioRamos11/RestaurantIA/internal/application"
)

func newSeedCmd() *cobra.Command {
	var (
		days      int
		locations []string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the demo catalog and synthetic order history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer func() {
				if cerr := a.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()
			if err := a.open(cmd.Context(), true); err != nil {
				return err
			}
			if err := a.openCache(cmd.Context()); err != nil {
				return err
			}

			result, err := a.services().seeds.Seed(cmd.Context(), application.SeedInput{
				Days:      days,
				Locations: locations,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "locations:      %s\n", strings.Join(result.Locations, ", "))
			fmt.Fprintf(out, "menu items:     %d\n", result.MenuItems)
			fmt.Fprintf(out, "ingredients:    %d\n", result.Ingredients)
			fmt.Fprintf(out, "tables created: %d\n", result.TablesCreated)
			fmt.Fprintf(out, "orders created: %d over %d day(s)\n", result.OrdersCreated, result.Days)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", application.DefaultSeedDays, "days of order history to generate")
	cmd.Flags().StringSliceVar(&locations, "location", nil, "location name to seed (repeatable)")
	return cmd
}
