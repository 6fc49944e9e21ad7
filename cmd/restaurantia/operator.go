package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AntonioRamos11/RestaurantIA/internal/application"
)

func newOperatorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operator",
		Short: "Operator key utilities",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "hash-key <key>",
		Short: "Print the argon2id hash to use as RESTAURANT_OPERATOR_KEY_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := application.CreateKeyHash(args[0], application.DefaultArgon2idParams)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	})
	return cmd
}
