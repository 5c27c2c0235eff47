package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Liam-Lillieroth/MetaTask/internal/app"
	"github.com/Liam-Lillieroth/MetaTask/internal/model"
	"github.com/Liam-Lillieroth/MetaTask/internal/service"
)

var (
	syncSystem     string
	syncMaxElapsed time.Duration
)

var syncCmd = &cobra.Command{
	Use:   "sync <bookings.yaml>",
	Short: "Push a file of external bookings through the sync adapter",
	Long: `Upsert every item of the file as an externally linked booking.
Items are independent: a failing item is reported and the rest continue.
Storage errors are retried with exponential backoff; domain errors
(validation, sync conflict, rejection) are not.`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncSystem, "system", "", "External system name (overrides the file)")
	syncCmd.Flags().DurationVar(&syncMaxElapsed, "retry-for", 30*time.Second, "How long to retry one item on storage errors")
}

// isDomainError - ошибки, которые повтор не исправит
func isDomainError(err error) bool {
	for _, kind := range []error{
		model.ErrValidation,
		model.ErrNotFound,
		model.ErrSyncConflict,
		model.ErrConflict,
		model.ErrInvalidTransition,
		model.ErrAlreadyExists,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// syncWithRetry выполняет один элемент, повторяя временные сбои
func syncWithRetry(ctx context.Context, svc *service.SyncService, ext model.ExternalBooking, maxElapsed time.Duration) (*service.SyncResult, error) {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxElapsed

	var result *service.SyncResult
	err := backoff.Retry(func() error {
		var err error
		result, err = svc.Sync(ctx, ext)
		if err != nil && isDomainError(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(bo, ctx))
	return result, err
}

func runSync(cmd *cobra.Command, args []string) error {
	fh, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open sync file: %w", err)
	}
	defer fh.Close()

	f, err := readSyncFile(fh)
	if err != nil {
		return err
	}
	system := f.System
	if syncSystem != "" {
		system = syncSystem
	}
	if system == "" {
		return fmt.Errorf("external system is required: set `system` in the file or pass --system")
	}

	return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
		resolve := func(name string) (uuid.UUID, error) {
			res, err := a.Resources.FindByExternalName(ctx, system, name)
			if err != nil {
				return uuid.Nil, err
			}
			return res.ID, nil
		}

		var created, updated, unchanged, failed int
		out := cmd.OutOrStdout()
		for _, item := range f.Items {
			ext, err := item.toExternal(system, resolve)
			var result *service.SyncResult
			if err == nil {
				result, err = syncWithRetry(ctx, a.Sync, ext, syncMaxElapsed)
			}
			switch {
			case err != nil:
				failed++
				a.Logger.Warn("Sync item failed", zap.String("external_ref", item.ExternalRef), zap.Error(err))
				fmt.Fprintf(out, "%s\tERROR\t%v\n", item.ExternalRef, err)
			case result.Created:
				created++
				fmt.Fprintf(out, "%s\tcreated\t%s\n", item.ExternalRef, result.Booking.Status)
			case result.Changed:
				updated++
				fmt.Fprintf(out, "%s\tupdated\t%s\n", item.ExternalRef, result.Booking.Status)
			default:
				unchanged++
				fmt.Fprintf(out, "%s\tunchanged\t%s\n", item.ExternalRef, result.Booking.Status)
			}
		}

		fmt.Fprintf(out, "created %d, updated %d, unchanged %d, failed %d\n", created, updated, unchanged, failed)
		if failed > 0 {
			return fmt.Errorf("%d of %d items failed", failed, len(f.Items))
		}
		return nil
	})
}
