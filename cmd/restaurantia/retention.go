package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newRetentionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retention",
		Short: "Data retention operations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "apply",
		Short: "Delete rows older than their retention policy",
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

			deleted, err := a.services().governance.ApplyRetention(cmd.Context())
			if err != nil {
				return err
			}
			if len(deleted) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no retention policies configured")
				return nil
			}
			entities := make([]string, 0, len(deleted))
			for entity := range deleted {
				entities = append(entities, entity)
			}
			sort.Strings(entities)
			for _, entity := range entities {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d deleted\n", entity, deleted[entity])
			}
			return nil
		},
	})
	return cmd
}
