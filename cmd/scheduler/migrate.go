package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Liam-Lillieroth/MetaTask/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status|version]",
	Short:     "Manage the database schema",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"up", "down", "status", "version"},
	RunE:      runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
		switch args[0] {
		case "up":
			return migrateUp(ctx, a)
		}

		m, err := a.Migrator()
		if err != nil {
			return err
		}
		defer m.Close()

		switch args[0] {
		case "down":
			return m.Down(ctx)
		case "status":
			return m.Status(ctx)
		case "version":
			v, err := m.Version(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		}
		return fmt.Errorf("unknown migrate command %q", args[0])
	})
}

func migrateUp(ctx context.Context, a *app.App) error {
	m, err := a.Migrator()
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up(ctx)
}
