package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
	"github.com/Liam-Lillieroth/MetaTask/internal/repository/base"
)

const bookingColumns = `id, resource_id, requester, title, description, start_time, end_time,
	status, status_reason, priority, origin_service, origin_ref, payload,
	confirmed_at, started_at, completed_at, cancelled_at, rejected_at, created_at, updated_at`

type BookingRepository struct {
	base.Repository
}

func NewBookingRepository(db base.DBTX) *BookingRepository {
	return &BookingRepository{Repository: base.NewRepository(db)}
}

// Create создаёт новое бронирование
func (r *BookingRepository) Create(ctx context.Context, b *model.BookingRequest) error {
	query := `
		INSERT INTO booking_requests (id, resource_id, requester, title, description,
			start_time, end_time, status, status_reason, priority, origin_service, origin_ref,
			payload, confirmed_at, started_at, completed_at, cancelled_at, rejected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING created_at, updated_at
	`

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	err := r.DB().QueryRow(
		ctx, query,
		b.ID,
		b.ResourceID,
		b.Requester,
		b.Title,
		b.Description,
		b.Interval.Start,
		b.Interval.End,
		b.Status,
		b.StatusReason,
		b.Priority,
		b.OriginService,
		b.OriginRef,
		payloadDoc(b.Payload),
		b.ConfirmedAt,
		b.StartedAt,
		b.CompletedAt,
		b.CancelledAt,
		b.RejectedAt,
	).Scan(&b.CreatedAt, &b.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

// GetByID получает бронирование по ID
func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.BookingRequest, error) {
	query := `SELECT ` + bookingColumns + ` FROM booking_requests WHERE id = $1`

	b, err := scanBooking(r.DB().QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return b, nil
}

// Update сохраняет статус, интервал и прочие изменяемые поля
func (r *BookingRepository) Update(ctx context.Context, b *model.BookingRequest) error {
	query := `
		UPDATE booking_requests
		SET requester = $2, title = $3, description = $4, start_time = $5, end_time = $6,
			status = $7, status_reason = $8, priority = $9, payload = $10,
			confirmed_at = $11, started_at = $12, completed_at = $13, cancelled_at = $14,
			rejected_at = $15, updated_at = $16
		WHERE id = $1
	`

	n, err := r.ExecAffected(
		ctx, query,
		b.ID,
		b.Requester,
		b.Title,
		b.Description,
		b.Interval.Start,
		b.Interval.End,
		b.Status,
		b.StatusReason,
		b.Priority,
		payloadDoc(b.Payload),
		b.ConfirmedAt,
		b.StartedAt,
		b.CompletedAt,
		b.CancelledAt,
		b.RejectedAt,
		b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	if n == 0 {
		return model.NewNotFoundError("booking", b.ID.String())
	}

	return nil
}

// List получает бронирования по фильтру
func (r *BookingRepository) List(ctx context.Context, filter model.BookingFilter) ([]*model.BookingRequest, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.ResourceID != nil {
		where = append(where, "resource_id = "+arg(*filter.ResourceID))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		where = append(where, "status = ANY("+arg(statuses)+")")
	}
	if filter.From != nil {
		where = append(where, "end_time > "+arg(*filter.From))
	}
	if filter.To != nil {
		where = append(where, "start_time < "+arg(*filter.To))
	}
	if filter.OriginService != "" {
		where = append(where, "origin_service = "+arg(filter.OriginService))
	}
	if filter.OriginRef != "" {
		where = append(where, "origin_ref = "+arg(filter.OriginRef))
	}

	query := `SELECT ` + bookingColumns + ` FROM booking_requests`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_time, created_at"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	return r.query(ctx, "list bookings", query, args...)
}

// ListActiveOverlapping получает бронирования, занимающие ресурс в интервале
func (r *BookingRepository) ListActiveOverlapping(ctx context.Context, resourceID uuid.UUID, iv model.Interval) ([]*model.BookingRequest, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM booking_requests
		WHERE resource_id = $1
		  AND status IN ('pending', 'confirmed', 'in_progress')
		  AND start_time < $3
		  AND end_time > $2
		ORDER BY start_time
	`
	return r.query(ctx, "list overlapping bookings", query, resourceID, iv.Start, iv.End)
}

// AppendEvent добавляет запись в историю бронирования
func (r *BookingRepository) AppendEvent(ctx context.Context, e *model.BookingEvent) error {
	query := `
		INSERT INTO booking_events (id, booking_id, from_status, to_status, actor, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := r.DB().Exec(ctx, query, e.ID, e.BookingID, e.FromStatus, e.ToStatus, e.Actor, e.Reason, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append booking event: %w", err)
	}
	return nil
}

// History получает историю бронирования в хронологическом порядке
func (r *BookingRepository) History(ctx context.Context, bookingID uuid.UUID) ([]*model.BookingEvent, error) {
	query := `
		SELECT id, booking_id, from_status, to_status, actor, reason, created_at
		FROM booking_events
		WHERE booking_id = $1
		ORDER BY seq
	`

	rows, err := r.DB().Query(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking history: %w", err)
	}
	defer rows.Close()

	var events []*model.BookingEvent
	for rows.Next() {
		var e model.BookingEvent
		if err := rows.Scan(&e.ID, &e.BookingID, &e.FromStatus, &e.ToStatus, &e.Actor, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan booking event: %w", err)
		}
		events = append(events, &e)
	}

	return events, rows.Err()
}

func (r *BookingRepository) query(ctx context.Context, op, query string, args ...any) ([]*model.BookingRequest, error) {
	rows, err := r.DB().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var bookings []*model.BookingRequest
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}

	return bookings, rows.Err()
}

func scanBooking(row pgx.Row) (*model.BookingRequest, error) {
	var b model.BookingRequest
	err := row.Scan(
		&b.ID,
		&b.ResourceID,
		&b.Requester,
		&b.Title,
		&b.Description,
		&b.Interval.Start,
		&b.Interval.End,
		&b.Status,
		&b.StatusReason,
		&b.Priority,
		&b.OriginService,
		&b.OriginRef,
		&b.Payload,
		&b.ConfirmedAt,
		&b.StartedAt,
		&b.CompletedAt,
		&b.CancelledAt,
		&b.RejectedAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func payloadDoc(doc map[string]any) map[string]any {
	if doc == nil {
		return map[string]any{}
	}
	return doc
}
