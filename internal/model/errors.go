package model

import (
	"errors"
	"fmt"
)

// Виды ошибок ядра планирования. Сравнивать через errors.Is.
var (
	ErrValidation          = errors.New("validation error")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrConflict            = errors.New("booking conflict")
	ErrBlackout            = errors.New("blackout period")
	ErrOutsideAvailability = errors.New("outside availability")
	ErrCapacityExceeded    = errors.New("capacity exceeded")
	ErrNotFound            = errors.New("not found")
	ErrSyncConflict        = errors.New("sync conflict")
	ErrAlreadyExists       = errors.New("already exists")
)

// ValidationError описывает некорректное значение одного поля
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError создаёт ValidationError для поля field
func NewValidationError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// TransitionError возвращается при запрещённом переходе статуса
type TransitionError struct {
	BookingID string
	From      BookingStatus
	To        BookingStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition for booking %s: %s -> %s", e.BookingID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// RejectionError несёт причину отказа, когда вызывающему нужна ошибка,
// а не отклонённое бронирование (повторная проверка при confirm, смена интервала при sync).
type RejectionError struct {
	Reason RejectReason
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConflict, e.Reason)
}

func (e *RejectionError) Unwrap() []error {
	return []error{ErrConflict, e.Reason.Err()}
}

// NotFoundError называет отсутствующую сущность
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError создаёт NotFoundError
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}
