package events

import (
	"context"

	"go.uber.org/zap"
)

// LogPublisher пишет события в структурный лог. Используется без Redis.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, e BookingStatusChanged) error {
	p.logger.Info("Booking status changed",
		zap.String("booking_id", e.BookingID.String()),
		zap.String("resource_id", e.ResourceID.String()),
		zap.String("from", e.FromStatus),
		zap.String("to", e.ToStatus),
		zap.String("origin_service", e.OriginService),
		zap.String("origin_ref", e.OriginRef),
		zap.String("external_status", e.ExternalStatus),
	)
	return nil
}
