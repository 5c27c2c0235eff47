package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Liam-Lillieroth/MetaTask/internal/app"
	"github.com/Liam-Lillieroth/MetaTask/internal/events"
)

var watchSystem string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print booking status events from the Redis channel",
	Long: `Subscribe to the booking event channel and print one JSON line per
status change until interrupted. Requires REDIS_ADDR.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchSystem, "system", "", "Only show bookings originating from this external system")
}

// eventPrinter пишет подходящие события строками JSON. Ошибка записи
// завершает подписку: читателя уже нет.
func eventPrinter(w io.Writer, system string) func(events.BookingStatusChanged) error {
	enc := json.NewEncoder(w)
	return func(e events.BookingStatusChanged) error {
		if system != "" && e.OriginService != system {
			return nil
		}
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("write event: %w", err)
		}
		return nil
	}
}

func runWatch(cmd *cobra.Command, _ []string) error {
	return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
		if a.Redis == nil {
			return fmt.Errorf("watch needs REDIS_ADDR")
		}
		sub := events.NewRedisPublisher(a.Redis, a.Config.RedisChannel, a.Logger)
		err := sub.Subscribe(ctx, eventPrinter(cmd.OutOrStdout(), watchSystem))
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
}
