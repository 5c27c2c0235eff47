// Package events публикует смены статусов бронирований для стороны workflow.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const TypeBookingStatusChanged = "booking.status_changed"

// BookingStatusChanged отправляется после каждой сохранённой смены статуса
type BookingStatusChanged struct {
	Type           string    `json:"type"`
	BookingID      uuid.UUID `json:"booking_id"`
	ResourceID     uuid.UUID `json:"resource_id"`
	FromStatus     string    `json:"from_status,omitempty"`
	ToStatus       string    `json:"to_status"`
	Reason         string    `json:"reason,omitempty"`
	Actor          string    `json:"actor,omitempty"`
	OriginService  string    `json:"origin_service,omitempty"`
	OriginRef      string    `json:"origin_ref,omitempty"`
	ExternalStatus string    `json:"external_status,omitempty"` // статус в словаре внешней системы
	At             time.Time `json:"at"`
}

// Publisher доставляет события. Доставка дальше канала вне зоны ответственности.
type Publisher interface {
	Publish(ctx context.Context, e BookingStatusChanged) error
}

// Nop отбрасывает все события
type Nop struct{}

func (Nop) Publish(context.Context, BookingStatusChanged) error { return nil }

// Multi рассылает событие нескольким publisher и возвращает первую ошибку
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e BookingStatusChanged) error {
	var first error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}
