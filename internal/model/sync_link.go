package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SyncLink связывает элемент внешней системы ровно с одним бронированием.
// Пара (ExternalSystem, ExternalRef) уникальна.
type SyncLink struct {
	ExternalSystem     string    `json:"external_system"`
	ExternalRef        string    `json:"external_ref"`
	BookingID          uuid.UUID `json:"booking_id"`
	LastExternalStatus string    `json:"last_external_status,omitempty"`
	SyncedAt           time.Time `json:"synced_at"`
	CreatedAt          time.Time `json:"created_at"`
}

// ExternalBooking - запрос на upsert от интеграции
type ExternalBooking struct {
	ExternalSystem string         `json:"external_system"`
	ExternalRef    string         `json:"external_ref"`
	ResourceID     uuid.UUID      `json:"resource_id"`
	Requester      string         `json:"requester"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Interval       Interval       `json:"interval"`
	Priority       Priority       `json:"priority"`
	ExternalStatus string         `json:"external_status,omitempty"`
	Payload        map[string]any `json:"payload,omitempty"`
}

// Validate проверяет внешний элемент до обращения к хранилищу
func (e *ExternalBooking) Validate() error {
	if e.ExternalSystem == "" {
		return NewValidationError("external_system", "is required")
	}
	if e.ExternalRef == "" {
		return NewValidationError("external_ref", "is required")
	}
	if e.ResourceID == uuid.Nil {
		return NewValidationError("resource_id", "is required")
	}
	if e.Priority != "" && !e.Priority.IsValid() {
		return NewValidationError("priority", "unknown priority %q", e.Priority)
	}
	return e.Interval.Validate()
}

// StatusTable переводит статусы внешнего workflow в статусы бронирований и обратно
type StatusTable struct {
	inbound  map[string]BookingStatus
	outbound map[BookingStatus]string
}

// NewStatusTable строит таблицу. Входящие ключи сравниваются без учёта регистра.
func NewStatusTable(inbound map[string]BookingStatus, outbound map[BookingStatus]string) *StatusTable {
	t := &StatusTable{
		inbound:  make(map[string]BookingStatus, len(inbound)),
		outbound: make(map[BookingStatus]string, len(outbound)),
	}
	for k, v := range inbound {
		t.inbound[strings.ToLower(k)] = v
	}
	for k, v := range outbound {
		t.outbound[k] = v
	}
	return t
}

// DefaultStatusTable покрывает словарь интеграции с workflow платформой
func DefaultStatusTable() *StatusTable {
	return NewStatusTable(
		map[string]BookingStatus{
			"requested":   BookingStatusPending,
			"pending":     BookingStatusPending,
			"tentative":   BookingStatusPending,
			"booked":      BookingStatusConfirmed,
			"scheduled":   BookingStatusConfirmed,
			"confirmed":   BookingStatusConfirmed,
			"in_progress": BookingStatusInProgress,
			"started":     BookingStatusInProgress,
			"done":        BookingStatusCompleted,
			"completed":   BookingStatusCompleted,
			"cancelled":   BookingStatusCancelled,
			"canceled":    BookingStatusCancelled,
			"withdrawn":   BookingStatusCancelled,
			"declined":    BookingStatusRejected,
			"rejected":    BookingStatusRejected,
		},
		map[BookingStatus]string{
			BookingStatusPending:    "requested",
			BookingStatusConfirmed:  "scheduled",
			BookingStatusInProgress: "in_progress",
			BookingStatusCompleted:  "completed",
			BookingStatusCancelled:  "cancelled",
			BookingStatusRejected:   "declined",
		},
	)
}

// Inbound переводит внешний статус. Неизвестный статус - ошибка валидации.
func (t *StatusTable) Inbound(external string) (BookingStatus, error) {
	s, ok := t.inbound[strings.ToLower(strings.TrimSpace(external))]
	if !ok {
		return "", NewValidationError("external_status", "unknown external status %q", external)
	}
	return s, nil
}

// Outbound переводит статус бронирования во внешний словарь, иначе возвращает сам статус
func (t *StatusTable) Outbound(status BookingStatus) string {
	if s, ok := t.outbound[status]; ok {
		return s
	}
	return string(status)
}
