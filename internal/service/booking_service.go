package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/Liam-Lillieroth/MetaTask/internal/events"
	"github.com/Liam-Lillieroth/MetaTask/internal/model"
	"github.com/Liam-Lillieroth/MetaTask/internal/repository"
	"github.com/Liam-Lillieroth/MetaTask/internal/scheduling"
	"github.com/Liam-Lillieroth/MetaTask/internal/telemetry"
)

// BookingOptions настраивает менеджер жизненного цикла
type BookingOptions struct {
	SubmitGrace  time.Duration
	StatusTables StatusTables
	Now          func() time.Time
}

// BookingService ведёт машину состояний бронирований и конвейер допуска
type BookingService struct {
	store     repository.Store
	publisher events.Publisher
	tables    StatusTables
	metrics   *telemetry.Scheduling
	logger    *zap.Logger
	grace     time.Duration
	now       func() time.Time
}

func NewBookingService(
	store repository.Store,
	publisher events.Publisher,
	metrics *telemetry.Scheduling,
	logger *zap.Logger,
	opts BookingOptions,
) *BookingService {
	if opts.SubmitGrace <= 0 {
		opts.SubmitGrace = DefaultSubmitGrace
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &BookingService{
		store:     store,
		publisher: publisher,
		tables:    opts.StatusTables,
		metrics:   metrics,
		logger:    logger,
		grace:     opts.SubmitGrace,
		now:       opts.Now,
	}
}

// SubmitRequest описывает новое бронирование
type SubmitRequest struct {
	ResourceID    uuid.UUID
	Requester     string
	Title         string
	Description   string
	Interval      model.Interval
	Priority      model.Priority
	OriginService string
	OriginRef     string
	Payload       map[string]any
}

func (s *BookingService) validateSubmit(req *SubmitRequest, now time.Time) error {
	if req.ResourceID == uuid.Nil {
		return model.NewValidationError("resource_id", "is required")
	}
	if req.Requester == "" {
		return model.NewValidationError("requester", "is required")
	}
	if err := req.Interval.Validate(); err != nil {
		return err
	}
	if req.Interval.Start.Before(now.Add(-s.grace)) {
		return model.NewValidationError("interval", "start is in the past")
	}
	if req.Priority == "" {
		req.Priority = model.PriorityNormal
	}
	if !req.Priority.IsValid() {
		return model.NewValidationError("priority", "unknown priority %q", req.Priority)
	}
	if (req.OriginService == "") != (req.OriginRef == "") {
		return model.NewValidationError("origin_ref", "origin service and reference must be set together")
	}
	return nil
}

// Submit создаёт бронирование и пропускает его через допуск. Отказ допуска
// не ошибка: бронирование возвращается в статусе rejected с кодом причины.
func (s *BookingService) Submit(ctx context.Context, req SubmitRequest, actor string) (booking *model.BookingRequest, err error) {
	ctx, done := s.metrics.Start(ctx, "submit", attribute.String("resource.id", req.ResourceID.String()))
	defer func() { done(err) }()

	now := s.now()
	if err := s.validateSubmit(&req, now); err != nil {
		return nil, err
	}

	var trail []*model.BookingEvent
	err = s.store.InResourceTx(ctx, req.ResourceID, func(ctx context.Context, r repository.Repos, res *model.Resource) error {
		var txErr error
		booking, trail, txErr = s.submitInTx(ctx, r, res, req, actor, now)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Admission(ctx, string(booking.Status), booking.StatusReason)
	s.logger.Info("Booking submitted",
		zap.String("booking_id", booking.ID.String()),
		zap.String("resource_id", booking.ResourceID.String()),
		zap.String("status", string(booking.Status)),
		zap.String("reason", booking.StatusReason),
	)
	s.publish(ctx, booking, trail)
	return booking, nil
}

// submitInTx вызывается внутри InResourceTx ресурса req.ResourceID
func (s *BookingService) submitInTx(
	ctx context.Context,
	r repository.Repos,
	res *model.Resource,
	req SubmitRequest,
	actor string,
	now time.Time,
) (*model.BookingRequest, []*model.BookingEvent, error) {
	if !res.IsActive {
		return nil, nil, model.NewValidationError("resource_id", "resource %s is inactive", res.ID)
	}

	snap, err := loadSnapshot(ctx, r, res, req.Interval, now)
	if err != nil {
		return nil, nil, fmt.Errorf("load admission snapshot: %w", err)
	}
	decision := scheduling.Admit(snap, scheduling.Candidate{Interval: req.Interval, Priority: req.Priority}, now)

	b := &model.BookingRequest{
		ID:            uuid.New(),
		ResourceID:    res.ID,
		Requester:     req.Requester,
		Title:         req.Title,
		Description:   req.Description,
		Interval:      req.Interval,
		Status:        model.BookingStatusPending,
		Priority:      req.Priority,
		OriginService: req.OriginService,
		OriginRef:     req.OriginRef,
		Payload:       req.Payload,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if decision.Status == model.BookingStatusPending {
		b.StatusReason = decision.Message
	}
	if err := r.Bookings.Create(ctx, b); err != nil {
		return nil, nil, err
	}

	created := &model.BookingEvent{
		ID:        uuid.New(),
		BookingID: b.ID,
		ToStatus:  model.BookingStatusPending,
		Actor:     actor,
		Reason:    "submitted",
		CreatedAt: now,
	}
	if err := r.Bookings.AppendEvent(ctx, created); err != nil {
		return nil, nil, err
	}
	trail := []*model.BookingEvent{created}

	var next *model.BookingEvent
	switch decision.Status {
	case model.BookingStatusConfirmed:
		next, err = b.Transition(model.BookingStatusConfirmed, ActorAdmission, decision.Message, now)
	case model.BookingStatusRejected:
		next, err = b.Transition(model.BookingStatusRejected, ActorAdmission, string(decision.Reason), now)
	}
	if err != nil {
		return nil, nil, err
	}
	if next != nil {
		if err := s.save(ctx, r, b, next); err != nil {
			return nil, nil, err
		}
		trail = append(trail, next)
	}
	return b, trail, nil
}

func (s *BookingService) save(ctx context.Context, r repository.Repos, b *model.BookingRequest, e *model.BookingEvent) error {
	if err := r.Bookings.Update(ctx, b); err != nil {
		return err
	}
	return r.Bookings.AppendEvent(ctx, e)
}

// Confirm одобряет ожидающее бронирование, заново проверив конфликты и правила.
// Если слот больше не проходит, возвращает *model.RejectionError
// (совпадает с model.ErrConflict), бронирование остаётся в ожидании.
func (s *BookingService) Confirm(ctx context.Context, id uuid.UUID, actor string) (*model.BookingRequest, error) {
	return s.transition(ctx, "confirm", id, model.BookingStatusConfirmed, actor, "")
}

// Start переводит подтверждённое бронирование в работу. Часы его не вызывают.
func (s *BookingService) Start(ctx context.Context, id uuid.UUID, actor string) (*model.BookingRequest, error) {
	return s.transition(ctx, "start", id, model.BookingStatusInProgress, actor, "")
}

// Complete завершает бронирование в работе
func (s *BookingService) Complete(ctx context.Context, id uuid.UUID, actor string) (*model.BookingRequest, error) {
	return s.transition(ctx, "complete", id, model.BookingStatusCompleted, actor, "")
}

// Cancel сразу освобождает место бронирования
func (s *BookingService) Cancel(ctx context.Context, id uuid.UUID, actor, reason string) (*model.BookingRequest, error) {
	return s.transition(ctx, "cancel", id, model.BookingStatusCancelled, actor, reason)
}

// Reject отклоняет ожидающее бронирование
func (s *BookingService) Reject(ctx context.Context, id uuid.UUID, actor, reason string) (*model.BookingRequest, error) {
	return s.transition(ctx, "reject", id, model.BookingStatusRejected, actor, reason)
}

func (s *BookingService) transition(
	ctx context.Context,
	op string,
	id uuid.UUID,
	to model.BookingStatus,
	actor, reason string,
) (booking *model.BookingRequest, err error) {
	ctx, done := s.metrics.Start(ctx, op, attribute.String("booking.id", id.String()))
	defer func() { done(err) }()

	current, err := getBooking(ctx, s.store.Repos(), id)
	if err != nil {
		return nil, err
	}

	var trail []*model.BookingEvent
	err = s.store.InResourceTx(ctx, current.ResourceID, func(ctx context.Context, r repository.Repos, res *model.Resource) error {
		b, err := getBooking(ctx, r, id)
		if err != nil {
			return err
		}
		trail, err = s.walkInTx(ctx, r, res, b, []model.BookingStatus{to}, actor, reason, s.now())
		booking = b
		return err
	})
	if err != nil {
		s.logger.Warn("Booking transition failed",
			zap.String("booking_id", id.String()),
			zap.String("to", string(to)),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("Booking status changed",
		zap.String("booking_id", booking.ID.String()),
		zap.String("status", string(booking.Status)),
		zap.String("actor", actor),
		zap.String("reason", reason),
	)
	s.publish(ctx, booking, trail)
	return booking, nil
}

// walkInTx применяет статусы path по одному переходу. Перед входом
// в confirmed допуск заново проверяет интервал самого бронирования.
// При любой ошибке транзакция откатывается и бронирование не меняется.
func (s *BookingService) walkInTx(
	ctx context.Context,
	r repository.Repos,
	res *model.Resource,
	b *model.BookingRequest,
	path []model.BookingStatus,
	actor, reason string,
	now time.Time,
) ([]*model.BookingEvent, error) {
	var trail []*model.BookingEvent
	for _, to := range path {
		if !model.CanTransition(b.Status, to) {
			return nil, &model.TransitionError{BookingID: b.ID.String(), From: b.Status, To: to}
		}
		if to == model.BookingStatusConfirmed {
			if err := s.recheck(ctx, r, res, b, now); err != nil {
				return nil, err
			}
		}
		e, err := b.Transition(to, actor, reason, now)
		if err != nil {
			return nil, err
		}
		if err := s.save(ctx, r, b, e); err != nil {
			return nil, err
		}
		trail = append(trail, e)
	}
	return trail, nil
}

func (s *BookingService) recheck(ctx context.Context, r repository.Repos, res *model.Resource, b *model.BookingRequest, now time.Time) error {
	snap, err := loadSnapshot(ctx, r, res, b.Interval, now)
	if err != nil {
		return fmt.Errorf("load admission snapshot: %w", err)
	}
	d := scheduling.Admit(snap, scheduling.Candidate{Interval: b.Interval, Priority: b.Priority, Exclude: b.ID}, now)
	if d.Rejected() {
		return &model.RejectionError{Reason: d.Reason}
	}
	return nil
}

// Get возвращает бронирование по id
func (s *BookingService) Get(ctx context.Context, id uuid.UUID) (*model.BookingRequest, error) {
	return getBooking(ctx, s.store.Repos(), id)
}

// List возвращает бронирования по фильтру, по времени начала
func (s *BookingService) List(ctx context.Context, filter model.BookingFilter) ([]*model.BookingRequest, error) {
	for _, st := range filter.Statuses {
		if !st.IsValid() {
			return nil, model.NewValidationError("status", "unknown status %q", st)
		}
	}
	return s.store.Repos().Bookings.List(ctx, filter)
}

// History возвращает историю бронирования, старые записи первыми
func (s *BookingService) History(ctx context.Context, id uuid.UUID) ([]*model.BookingEvent, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Repos().Bookings.History(ctx, id)
}

// CapacityUsed - пиковое число занимающих место бронирований внутри iv
func (s *BookingService) CapacityUsed(ctx context.Context, resourceID uuid.UUID, iv model.Interval) (int, error) {
	if err := iv.Validate(); err != nil {
		return 0, err
	}
	r := s.store.Repos()
	if _, err := getResource(ctx, r, resourceID); err != nil {
		return 0, err
	}
	bookings, err := r.Bookings.ListActiveOverlapping(ctx, resourceID, iv)
	if err != nil {
		return 0, err
	}
	return scheduling.CapacityUsed(bookings, iv, uuid.Nil), nil
}

// HasConflict - ещё одно бронирование на iv превысит вместимость
// ресурса. exclude может быть uuid.Nil.
func (s *BookingService) HasConflict(ctx context.Context, resourceID uuid.UUID, iv model.Interval, exclude uuid.UUID) (bool, error) {
	if err := iv.Validate(); err != nil {
		return false, err
	}
	r := s.store.Repos()
	res, err := getResource(ctx, r, resourceID)
	if err != nil {
		return false, err
	}
	bookings, err := r.Bookings.ListActiveOverlapping(ctx, resourceID, iv)
	if err != nil {
		return false, err
	}
	return scheduling.HasConflict(res.Capacity, bookings, iv, exclude), nil
}

// CompleteByOrigin завершает все подтверждённые и идущие бронирования,
// созданные для внешней ссылки. Ожидающие остаются до явного решения.
func (s *BookingService) CompleteByOrigin(ctx context.Context, originService, originRef, actor string) ([]*model.BookingRequest, error) {
	return s.walkByOrigin(ctx, originService, originRef, actor, "origin completed",
		func(st model.BookingStatus) []model.BookingStatus {
			switch st {
			case model.BookingStatusConfirmed:
				return []model.BookingStatus{model.BookingStatusInProgress, model.BookingStatusCompleted}
			case model.BookingStatusInProgress:
				return []model.BookingStatus{model.BookingStatusCompleted}
			}
			return nil
		})
}

// CancelByOrigin отменяет все активные бронирования внешней ссылки
func (s *BookingService) CancelByOrigin(ctx context.Context, originService, originRef, actor, reason string) ([]*model.BookingRequest, error) {
	if reason == "" {
		reason = "origin cancelled"
	}
	return s.walkByOrigin(ctx, originService, originRef, actor, reason,
		func(st model.BookingStatus) []model.BookingStatus {
			if st.IsTerminal() {
				return nil
			}
			return []model.BookingStatus{model.BookingStatusCancelled}
		})
}

func (s *BookingService) walkByOrigin(
	ctx context.Context,
	originService, originRef, actor, reason string,
	pathFor func(model.BookingStatus) []model.BookingStatus,
) ([]*model.BookingRequest, error) {
	if originService == "" || originRef == "" {
		return nil, model.NewValidationError("origin_ref", "origin service and reference are required")
	}
	bookings, err := s.store.Repos().Bookings.List(ctx, model.BookingFilter{
		OriginService: originService,
		OriginRef:     originRef,
		Statuses:      model.ActiveStatuses,
	})
	if err != nil {
		return nil, err
	}

	var changed []*model.BookingRequest
	for _, candidate := range bookings {
		var (
			b     *model.BookingRequest
			trail []*model.BookingEvent
		)
		err := s.store.InResourceTx(ctx, candidate.ResourceID, func(ctx context.Context, r repository.Repos, res *model.Resource) error {
			var err error
			b, err = getBooking(ctx, r, candidate.ID)
			if err != nil {
				return err
			}
			path := pathFor(b.Status)
			if len(path) == 0 {
				return nil
			}
			trail, err = s.walkInTx(ctx, r, res, b, path, actor, reason, s.now())
			return err
		})
		if err != nil {
			return changed, fmt.Errorf("booking %s: %w", candidate.ID, err)
		}
		if len(trail) > 0 {
			s.publish(ctx, b, trail)
			changed = append(changed, b)
		}
	}

	s.logger.Info("Origin bookings updated",
		zap.String("origin_service", originService),
		zap.String("origin_ref", originRef),
		zap.Int("changed", len(changed)),
	)
	return changed, nil
}

// publish отправляет по событию на каждую сохранённую смену статуса. Ошибки
// доставки только логируются: статус уже изменён.
func (s *BookingService) publish(ctx context.Context, b *model.BookingRequest, trail []*model.BookingEvent) {
	for _, e := range trail {
		s.metrics.Transition(ctx, string(e.FromStatus), string(e.ToStatus))

		evt := events.BookingStatusChanged{
			Type:          events.TypeBookingStatusChanged,
			BookingID:     b.ID,
			ResourceID:    b.ResourceID,
			FromStatus:    string(e.FromStatus),
			ToStatus:      string(e.ToStatus),
			Reason:        e.Reason,
			Actor:         e.Actor,
			OriginService: b.OriginService,
			OriginRef:     b.OriginRef,
			At:            e.CreatedAt,
		}
		if b.HasOrigin() {
			evt.ExternalStatus = s.tables.For(b.OriginService).Outbound(e.ToStatus)
		}
		if err := s.publisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("Failed to publish booking event",
				zap.String("booking_id", b.ID.String()),
				zap.Error(err),
			)
		}
	}
}
