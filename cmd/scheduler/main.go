// Command scheduler запускает сервис бронирования ресурсов и служебные задачи.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Liam-Lillieroth/MetaTask/internal/app"
	"github.com/Liam-Lillieroth/MetaTask/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Resource booking and scheduling service",
	Long: `scheduler books shared resources (teams, rooms, equipment) under
working hours, blackout periods and capacity limits.

Examples:
  scheduler migrate up              # Apply database migrations
  scheduler seed teams.yaml         # Mirror workflow teams as resources
  scheduler serve                   # Run the HTTP API and the Telegram bot
  scheduler sync bookings.yaml      # Push external bookings through sync
  scheduler watch --system workflow # Tail booking status events`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}

// withApp загружает конфиг, собирает приложение и закрывает его после fn
func withApp(ctx context.Context, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := app.NewLogger(cfg.Environment)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to start", zap.Error(err))
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
