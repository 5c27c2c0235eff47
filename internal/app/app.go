package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Liam-Lillieroth/MetaTask/internal/config"
	"github.com/Liam-Lillieroth/MetaTask/internal/events"
	"github.com/Liam-Lillieroth/MetaTask/internal/repository"
	"github.com/Liam-Lillieroth/MetaTask/internal/repository/memory"
	"github.com/Liam-Lillieroth/MetaTask/internal/scheduling"
	"github.com/Liam-Lillieroth/MetaTask/internal/service"
	"github.com/Liam-Lillieroth/MetaTask/internal/telemetry"
)

const (
	ServiceName = "resource-scheduler"
	Version     = "0.1.0"
)

// App хранит связанные сервисы одного процесса
type App struct {
	Config *config.Config
	Logger *zap.Logger

	Store     repository.Store
	Pool      *pgxpool.Pool // nil для хранилища в памяти
	Redis     *redis.Client // nil, если REDIS_ADDR пуст
	Publisher events.Publisher

	Resources *service.ResourceService
	Bookings  *service.BookingService
	Sync      *service.SyncService
	Suggest   *service.SuggestionService
	Reports   *service.ReportService

	closers []func()
}

// New подключает хранилище и канал событий и собирает сервисы.
// Миграции не запускает.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	if err := telemetry.Init(ctx, ServiceName, Version, telemetry.Options{
		Enabled: cfg.OtelEnabled,
		Stdout:  cfg.OtelStdout,
	}); err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Failed to flush telemetry", zap.Error(err))
		}
	})

	switch cfg.Storage {
	case config.StorageMemory:
		logger.Warn("Using in-memory storage, data is lost on exit")
		a.Store = memory.NewStore()
	default:
		pool, err := ConnectDB(ctx, cfg.DBDSN, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Pool = pool
		a.Store = repository.NewPostgresStore(pool)
		a.closers = append(a.closers, pool.Close)
	}

	publishers := events.Multi{events.NewLogPublisher(logger)}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			a.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		a.Redis = client
		a.closers = append(a.closers, func() { _ = client.Close() })
		publishers = append(publishers, events.NewRedisPublisher(client, cfg.RedisChannel, logger))
		logger.Info("Publishing booking events to Redis", zap.String("channel", cfg.RedisChannel))
	}
	a.Publisher = publishers

	metrics := telemetry.NewScheduling()
	a.Resources = service.NewResourceService(a.Store, logger)
	a.Bookings = service.NewBookingService(a.Store, a.Publisher, metrics, logger, service.BookingOptions{
		SubmitGrace: cfg.SubmitGrace,
	})
	a.Sync = service.NewSyncService(a.Bookings)
	a.Suggest = service.NewSuggestionService(a.Store, scheduling.SuggestOptions{
		Granularity: cfg.SuggestGranularity,
		Horizon:     cfg.SuggestHorizon,
		Max:         cfg.SuggestMax,
	}, logger, time.Now)
	a.Reports = service.NewReportService(a.Store)
	return a, nil
}

// Migrator возвращает goose мигратор на пуле
func (a *App) Migrator() (*Migrator, error) {
	if a.Pool == nil {
		return nil, fmt.Errorf("migrations need STORAGE=%s", config.StoragePostgres)
	}
	return NewMigrator(a.Pool, a.Config.MigrationsDir, a.Logger)
}

// Close освобождает всё, что открыл New, в обратном порядке
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
