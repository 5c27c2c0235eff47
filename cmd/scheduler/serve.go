package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Liam-Lillieroth/MetaTask/internal/api"
	"github.com/Liam-Lillieroth/MetaTask/internal/app"
	"github.com/Liam-Lillieroth/MetaTask/internal/config"
	"github.com/Liam-Lillieroth/MetaTask/internal/controller"
)

var (
	serveMigrate  bool
	serveTimezone string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and, with TELEGRAM_TOKEN set, the Telegram bot",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Apply pending migrations before serving")
	serveCmd.Flags().StringVar(&serveTimezone, "bot-timezone", "UTC", "IANA time zone the bot shows times in")
}

func runServe(cmd *cobra.Command, _ []string) error {
	return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
		if serveMigrate && a.Config.Storage == config.StoragePostgres {
			if err := migrateUp(ctx, a); err != nil {
				return err
			}
		}

		loc, err := time.LoadLocation(serveTimezone)
		if err != nil {
			return fmt.Errorf("load bot timezone: %w", err)
		}

		server := api.NewServer(api.Services{
			Resources: a.Resources,
			Bookings:  a.Bookings,
			Sync:      a.Sync,
			Suggest:   a.Suggest,
			Reports:   a.Reports,
		}, api.Options{
			Addr:           a.Config.HTTPAddr,
			RateLimitRPS:   a.Config.RateLimitRPS,
			RateLimitBurst: a.Config.RateLimitBurst,
		}, a.Logger)

		var bot *controller.BotController
		if a.Config.TelegramToken != "" {
			bot, err = controller.NewBotController(a.Config.TelegramToken, controller.Services{
				Resources: a.Resources,
				Bookings:  a.Bookings,
				Suggest:   a.Suggest,
				Reports:   a.Reports,
			}, loc, a.Logger)
			if err != nil {
				return fmt.Errorf("create telegram bot: %w", err)
			}
			if err := bot.RegisterHandlers(ctx); err != nil {
				return fmt.Errorf("register bot handlers: %w", err)
			}
		} else {
			a.Logger.Info("TELEGRAM_TOKEN is empty, bot disabled")
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return server.Run(ctx) })
		if bot != nil {
			g.Go(func() error { return bot.Start(ctx) })
		}

		a.Logger.Info("Service started",
			zap.String("version", app.Version),
			zap.String("storage", a.Config.Storage),
			zap.String("http_addr", a.Config.HTTPAddr),
		)
		return g.Wait()
	})
}
