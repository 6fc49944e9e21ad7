package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AntonioRamos11/RestaurantIA/internal/persistence/migrate"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunners(cmd.Context(), func(name string, runner *migrate.Runner) error {
				applied, err := runner.Up(cmd.Context())
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				version, err := runner.Version(cmd.Context())
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: applied %d migration(s), now at version %d\n", name, applied, version)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunners(cmd.Context(), func(name string, runner *migrate.Runner) error {
				statuses, err := runner.Status(cmd.Context())
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				printStatus(cmd.OutOrStdout(), name, statuses)
				return nil
			})
		},
	})
	return cmd
}

// withRunners calls fn for the SQLite store and, when configured, the
// Postgres booking ledger.
func withRunners(ctx context.Context, fn func(name string, runner *migrate.Runner) error) (err error) {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err := a.open(ctx, false); err != nil {
		return err
	}

	runner, err := a.storage.Migrator(a.logger)
	if err != nil {
		return err
	}
	if err := fn("sqlite", runner); err != nil {
		return err
	}

	if a.pgLedger == nil {
		return nil
	}
	runner, closeDB, err := a.pgLedger.Migrator(a.logger)
	if err != nil {
		return err
	}
	defer closeDB()
	return fn("postgres", runner)
}

func printStatus(out io.Writer, name string, statuses []migrate.Status) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tVERSION\tSTATE\tAPPLIED AT\n", name)
	for _, s := range statuses {
		state, at := "pending", "-"
		if s.Applied {
			state = "applied"
			at = s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "\t%d\t%s\t%s\n", s.Version, state, at)
	}
	w.Flush()
}
