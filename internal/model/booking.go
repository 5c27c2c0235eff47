package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"     // Ожидает подтверждения
	BookingStatusConfirmed  BookingStatus = "confirmed"   // Подтверждено
	BookingStatusInProgress BookingStatus = "in_progress" // Идёт
	BookingStatusCompleted  BookingStatus = "completed"   // Завершено
	BookingStatusCancelled  BookingStatus = "cancelled"   // Отменено
	BookingStatusRejected   BookingStatus = "rejected"    // Отклонено
)

// allowedTransitions - полный набор переходов жизненного цикла
var allowedTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:    {BookingStatusConfirmed, BookingStatusCancelled, BookingStatusRejected},
	BookingStatusConfirmed:  {BookingStatusInProgress, BookingStatusCancelled},
	BookingStatusInProgress: {BookingStatusCompleted, BookingStatusCancelled},
}

// IsValid проверяет, что статус известен
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusInProgress,
		BookingStatusCompleted, BookingStatusCancelled, BookingStatusRejected:
		return true
	}
	return false
}

// IsTerminal - из статуса больше нет переходов
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled || s == BookingStatusRejected
}

// HoldsCapacity - бронирование в этом статусе занимает место
func (s BookingStatus) HoldsCapacity() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed || s == BookingStatusInProgress
}

// Rank упорядочивает прямой путь pending < confirmed < in_progress < completed.
// Терминальные выходы (cancelled, rejected) выше всех.
func (s BookingStatus) Rank() int {
	switch s {
	case BookingStatusPending:
		return 0
	case BookingStatusConfirmed:
		return 1
	case BookingStatusInProgress:
		return 2
	case BookingStatusCompleted:
		return 3
	default:
		return 4
	}
}

// CanTransition проверяет, разрешён ли переход from -> to
func CanTransition(from, to BookingStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ActiveStatuses - статусы, которые занимают место
var ActiveStatuses = []BookingStatus{BookingStatusPending, BookingStatusConfirmed, BookingStatusInProgress}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank возвращает вес приоритета, -1 для неизвестных значений
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityNormal:
		return 1
	case PriorityHigh:
		return 2
	case PriorityUrgent:
		return 3
	}
	return -1
}

// IsValid проверяет, что приоритет известен
func (p Priority) IsValid() bool { return p.Rank() >= 0 }

// RejectReason - машинный код причины отказа при допуске
type RejectReason string

const (
	ReasonNone                RejectReason = ""
	ReasonBlackout            RejectReason = "blackout"
	ReasonOutsideAvailability RejectReason = "outside_availability"
	ReasonCapacityExceeded    RejectReason = "capacity_exceeded"
)

// Err возвращает вид ошибки для причины
func (r RejectReason) Err() error {
	switch r {
	case ReasonBlackout:
		return ErrBlackout
	case ReasonOutsideAvailability:
		return ErrOutsideAvailability
	case ReasonCapacityExceeded:
		return ErrCapacityExceeded
	}
	return nil
}

// BookingRequest - бронирование одного ресурса на один интервал
type BookingRequest struct {
	ID            uuid.UUID      `json:"id"`
	ResourceID    uuid.UUID      `json:"resource_id"`
	Requester     string         `json:"requester"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Interval      Interval       `json:"interval"`
	Status        BookingStatus  `json:"status"`
	StatusReason  string         `json:"status_reason,omitempty"`
	Priority      Priority       `json:"priority"`
	OriginService string         `json:"origin_service,omitempty"`
	OriginRef     string         `json:"origin_ref,omitempty"`
	Payload       map[string]any `json:"payload,omitempty"`

	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	RejectedAt  *time.Time `json:"rejected_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// HasOrigin - бронирование создано от имени внешней системы
func (b *BookingRequest) HasOrigin() bool {
	return b.OriginService != ""
}

// stampStatus проставляет время аудита для нового статуса
func (b *BookingRequest) stampStatus(at time.Time) {
	t := at
	switch b.Status {
	case BookingStatusConfirmed:
		b.ConfirmedAt = &t
	case BookingStatusInProgress:
		b.StartedAt = &t
	case BookingStatusCompleted:
		b.CompletedAt = &t
	case BookingStatusCancelled:
		b.CancelledAt = &t
	case BookingStatusRejected:
		b.RejectedAt = &t
	}
	b.UpdatedAt = at
}

// Transition выполняет разрешённый переход и возвращает запись истории.
// При запрещённом переходе бронирование не меняется.
func (b *BookingRequest) Transition(to BookingStatus, actor, reason string, at time.Time) (*BookingEvent, error) {
	if !CanTransition(b.Status, to) {
		return nil, &TransitionError{BookingID: b.ID.String(), From: b.Status, To: to}
	}
	event := &BookingEvent{
		ID:         uuid.New(),
		BookingID:  b.ID,
		FromStatus: b.Status,
		ToStatus:   to,
		Actor:      actor,
		Reason:     reason,
		CreatedAt:  at,
	}
	b.Status = to
	b.StatusReason = reason
	b.stampStatus(at)
	return event, nil
}

// BookingEvent - одна запись истории бронирования
type BookingEvent struct {
	ID         uuid.UUID     `json:"id"`
	BookingID  uuid.UUID     `json:"booking_id"`
	FromStatus BookingStatus `json:"from_status"` // пустой для создания
	ToStatus   BookingStatus `json:"to_status"`
	Actor      string        `json:"actor"`
	Reason     string        `json:"reason,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// BookingFilter сужает выборку бронирований. Нулевые значения - "любое".
type BookingFilter struct {
	ResourceID    *uuid.UUID
	Statuses      []BookingStatus
	From          *time.Time // бронирования, заканчивающиеся после From
	To            *time.Time // бронирования, начинающиеся до To
	OriginService string
	OriginRef     string
	Limit         int
}
