package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Liam-Lillieroth/MetaTask/internal/app"
)

var seedSystem string

var seedCmd = &cobra.Command{
	Use:   "seed <teams.yaml>",
	Short: "Create or refresh team resources from a workflow team file",
	Long: `Mirror the teams of an external workflow system as team resources.
Teams are matched by external ref, so running seed again only refreshes them.
Teams without availability get Monday to Friday, 9 to 17.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedSystem, "system", "", "External system name (overrides the file)")
}

func runSeed(cmd *cobra.Command, args []string) error {
	fh, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open team file: %w", err)
	}
	defer fh.Close()

	f, err := readTeamFile(fh)
	if err != nil {
		return err
	}
	system := f.System
	if seedSystem != "" {
		system = seedSystem
	}
	if system == "" {
		return fmt.Errorf("external system is required: set `system` in the file or pass --system")
	}

	return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
		result, err := a.Resources.SeedTeams(ctx, system, f.Teams)
		if err != nil {
			return err
		}
		a.Logger.Info("Teams seeded",
			zap.String("system", system),
			zap.Int("created", result.Created),
			zap.Int("updated", result.Updated),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "created %d, updated %d\n", result.Created, result.Updated)
		return nil
	})
}
