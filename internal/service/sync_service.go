package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
	"github.com/Liam-Lillieroth/MetaTask/internal/repository"
	"github.com/Liam-Lillieroth/MetaTask/internal/scheduling"
)

// SyncService синхронизирует бронирования с элементами внешних workflow систем.
// Каждый вызов - идемпотентный upsert по ключу (система, внешняя ссылка).
type SyncService struct {
	bookings *BookingService
}

func NewSyncService(bookings *BookingService) *SyncService {
	return &SyncService{bookings: bookings}
}

// SyncResult - что сделал один вызов синхронизации
type SyncResult struct {
	Booking *model.BookingRequest `json:"booking"`
	Link    *model.SyncLink       `json:"link"`
	Created bool                  `json:"created"`
	Changed bool                  `json:"changed"`
	// ExternalStatus - статус бронирования в словаре вызывающего
	ExternalStatus string `json:"external_status"`
}

// errLinkRaced - другой вызов успел создать связь первым
var errLinkRaced = errors.New("sync link created concurrently")

// Sync выполняет upsert одного внешнего элемента. Подсказка статуса, уводящая
// завершённое бронирование в другой статус, даёт model.ErrSyncConflict без изменений.
func (s *SyncService) Sync(ctx context.Context, ext model.ExternalBooking) (result *SyncResult, err error) {
	bs := s.bookings
	ctx, done := bs.metrics.Start(ctx, "sync",
		attribute.String("sync.system", ext.ExternalSystem),
		attribute.String("sync.ref", ext.ExternalRef),
	)
	defer func() {
		done(err)
		bs.metrics.Sync(ctx, ext.ExternalSystem, syncOutcome(result, err))
	}()

	if err := ext.Validate(); err != nil {
		return nil, err
	}
	if ext.Priority == "" {
		ext.Priority = model.PriorityNormal
	}
	table := bs.tables.For(ext.ExternalSystem)
	var hint model.BookingStatus
	if ext.ExternalStatus != "" {
		if hint, err = table.Inbound(ext.ExternalStatus); err != nil {
			return nil, err
		}
	}

	link, err := bs.store.Repos().Links.Get(ctx, ext.ExternalSystem, ext.ExternalRef)
	if err != nil {
		return nil, err
	}
	if link == nil {
		result, err = s.create(ctx, ext, hint)
		if !errors.Is(err, errLinkRaced) {
			return s.finish(ctx, ext, result, err)
		}
		if link, err = bs.store.Repos().Links.Get(ctx, ext.ExternalSystem, ext.ExternalRef); err != nil {
			return nil, err
		}
		if link == nil {
			return nil, fmt.Errorf("sync %s/%s: link vanished after conflict", ext.ExternalSystem, ext.ExternalRef)
		}
	}
	result, err = s.update(ctx, ext, hint, link)
	return s.finish(ctx, ext, result, err)
}

func (s *SyncService) finish(ctx context.Context, ext model.ExternalBooking, result *SyncResult, err error) (*SyncResult, error) {
	bs := s.bookings
	if err != nil {
		level := bs.logger.Error
		if errors.Is(err, model.ErrSyncConflict) || errors.Is(err, model.ErrConflict) {
			level = bs.logger.Warn
		}
		level("External sync failed",
			zap.String("external_system", ext.ExternalSystem),
			zap.String("external_ref", ext.ExternalRef),
			zap.String("external_status", ext.ExternalStatus),
			zap.Error(err),
		)
		return nil, err
	}
	result.ExternalStatus = bs.tables.For(ext.ExternalSystem).Outbound(result.Booking.Status)
	bs.logger.Info("External booking synced",
		zap.String("external_system", ext.ExternalSystem),
		zap.String("external_ref", ext.ExternalRef),
		zap.String("booking_id", result.Booking.ID.String()),
		zap.String("status", string(result.Booking.Status)),
		zap.Bool("created", result.Created),
		zap.Bool("changed", result.Changed),
	)
	return result, nil
}

func (s *SyncService) create(ctx context.Context, ext model.ExternalBooking, hint model.BookingStatus) (*SyncResult, error) {
	bs := s.bookings
	now := bs.now()
	req := SubmitRequest{
		ResourceID:    ext.ResourceID,
		Requester:     ext.Requester,
		Title:         ext.Title,
		Description:   ext.Description,
		Interval:      ext.Interval,
		Priority:      ext.Priority,
		OriginService: ext.ExternalSystem,
		OriginRef:     ext.ExternalRef,
		Payload:       ext.Payload,
	}
	if req.Requester == "" {
		req.Requester = ActorSyncPrefix + ext.ExternalSystem
	}
	if err := bs.validateSubmit(&req, now); err != nil {
		return nil, err
	}

	actor := ActorSyncPrefix + ext.ExternalSystem
	var (
		result *SyncResult
		trail  []*model.BookingEvent
	)
	err := bs.store.InResourceTx(ctx, ext.ResourceID, func(ctx context.Context, r repository.Repos, res *model.Resource) error {
		existing, err := r.Links.Get(ctx, ext.ExternalSystem, ext.ExternalRef)
		if err != nil {
			return err
		}
		if existing != nil {
			return errLinkRaced
		}

		b, created, err := bs.submitInTx(ctx, r, res, req, actor, now)
		if err != nil {
			return err
		}
		trail = created
		if hint != "" && !b.Status.IsTerminal() {
			moved, err := bs.walkInTx(ctx, r, res, b, forwardPath(b.Status, hint), actor, "external status "+ext.ExternalStatus, now)
			if err != nil {
				return err
			}
			trail = append(trail, moved...)
		}

		link := &model.SyncLink{
			ExternalSystem:     ext.ExternalSystem,
			ExternalRef:        ext.ExternalRef,
			BookingID:          b.ID,
			LastExternalStatus: ext.ExternalStatus,
			SyncedAt:           now,
		}
		if err := r.Links.Create(ctx, link); err != nil {
			if errors.Is(err, model.ErrAlreadyExists) {
				return errLinkRaced
			}
			return err
		}
		result = &SyncResult{Booking: b, Link: link, Created: true, Changed: true}
		return nil
	})
	if err != nil {
		return nil, err
	}
	bs.publish(ctx, result.Booking, trail)
	return result, nil
}

func (s *SyncService) update(ctx context.Context, ext model.ExternalBooking, hint model.BookingStatus, link *model.SyncLink) (*SyncResult, error) {
	bs := s.bookings
	now := bs.now()
	actor := ActorSyncPrefix + ext.ExternalSystem

	current, err := getBooking(ctx, bs.store.Repos(), link.BookingID)
	if err != nil {
		return nil, err
	}
	if current.ResourceID != ext.ResourceID {
		return nil, model.NewValidationError("resource_id", "synced booking %s belongs to resource %s", current.ID, current.ResourceID)
	}

	var (
		result *SyncResult
		trail  []*model.BookingEvent
	)
	err = bs.store.InResourceTx(ctx, current.ResourceID, func(ctx context.Context, r repository.Repos, res *model.Resource) error {
		b, err := getBooking(ctx, r, link.BookingID)
		if err != nil {
			return err
		}
		moved := !b.Interval.Equal(ext.Interval)

		// Повтор уже принятого статуса (at-least-once доставка) не конфликт
		replayed := ext.ExternalStatus == link.LastExternalStatus
		if b.Status.IsTerminal() {
			if hint != "" && hint != b.Status && !replayed {
				return fmt.Errorf("%w: booking %s is %s, external status %q", model.ErrSyncConflict, b.ID, b.Status, ext.ExternalStatus)
			}
			if moved {
				return fmt.Errorf("%w: booking %s is %s, interval cannot change", model.ErrSyncConflict, b.ID, b.Status)
			}
		}

		changed := applyMutable(b, ext)
		if moved && !b.Status.IsTerminal() {
			b.Interval = ext.Interval
			changed = true
			steps, err := s.readmit(ctx, r, res, b, now)
			if err != nil {
				return err
			}
			trail = append(trail, steps...)
		}
		if changed {
			b.UpdatedAt = now
			if err := r.Bookings.Update(ctx, b); err != nil {
				return err
			}
		}

		if hint != "" && !b.Status.IsTerminal() && hint.Rank() > b.Status.Rank() {
			steps, err := bs.walkInTx(ctx, r, res, b, forwardPath(b.Status, hint), actor, "external status "+ext.ExternalStatus, now)
			if err != nil {
				return err
			}
			trail = append(trail, steps...)
		}

		updated := *link
		if ext.ExternalStatus != "" {
			updated.LastExternalStatus = ext.ExternalStatus
		}
		updated.SyncedAt = now
		if err := r.Links.Update(ctx, &updated); err != nil {
			return err
		}
		result = &SyncResult{Booking: b, Link: &updated, Changed: changed || len(trail) > 0}
		return nil
	})
	if err != nil {
		return nil, err
	}
	bs.publish(ctx, result.Booking, trail)
	return result, nil
}

// readmit заново допускает сдвинутое бронирование. Ожидающее, которое больше
// не помещается, отклоняется; одобренное проваливает всю синхронизацию.
func (s *SyncService) readmit(ctx context.Context, r repository.Repos, res *model.Resource, b *model.BookingRequest, now time.Time) ([]*model.BookingEvent, error) {
	bs := s.bookings
	snap, err := loadSnapshot(ctx, r, res, b.Interval, now)
	if err != nil {
		return nil, fmt.Errorf("load admission snapshot: %w", err)
	}
	d := scheduling.Admit(snap, scheduling.Candidate{Interval: b.Interval, Priority: b.Priority, Exclude: b.ID}, now)
	bs.metrics.Admission(ctx, string(d.Status), string(d.Reason))

	switch {
	case d.Rejected() && b.Status == model.BookingStatusPending:
		e, err := b.Transition(model.BookingStatusRejected, ActorAdmission, string(d.Reason), now)
		if err != nil {
			return nil, err
		}
		return []*model.BookingEvent{e}, r.Bookings.AppendEvent(ctx, e)
	case d.Rejected():
		return nil, &model.RejectionError{Reason: d.Reason}
	case d.Status == model.BookingStatusConfirmed && b.Status == model.BookingStatusPending:
		e, err := b.Transition(model.BookingStatusConfirmed, ActorAdmission, d.Message, now)
		if err != nil {
			return nil, err
		}
		return []*model.BookingEvent{e}, r.Bookings.AppendEvent(ctx, e)
	}
	return nil, nil
}

// applyMutable копирует описательные поля и сообщает, изменилось ли что-то
func applyMutable(b *model.BookingRequest, ext model.ExternalBooking) bool {
	changed := false
	if ext.Title != b.Title {
		b.Title, changed = ext.Title, true
	}
	if ext.Description != b.Description {
		b.Description, changed = ext.Description, true
	}
	if ext.Requester != "" && ext.Requester != b.Requester {
		b.Requester, changed = ext.Requester, true
	}
	if ext.Priority != b.Priority {
		b.Priority, changed = ext.Priority, true
	}
	if ext.Payload != nil && !maps.EqualFunc(ext.Payload, b.Payload, func(a, c any) bool {
		return fmt.Sprint(a) == fmt.Sprint(c)
	}) {
		b.Payload, changed = ext.Payload, true
	}
	return changed
}

// forwardPath перечисляет переходы от нетерминального статуса к target.
// Отказ от уже одобренной работы становится отменой.
func forwardPath(from, target model.BookingStatus) []model.BookingStatus {
	switch target {
	case model.BookingStatusCancelled:
		return []model.BookingStatus{model.BookingStatusCancelled}
	case model.BookingStatusRejected:
		if from == model.BookingStatusPending {
			return []model.BookingStatus{model.BookingStatusRejected}
		}
		return []model.BookingStatus{model.BookingStatusCancelled}
	}
	forward := []model.BookingStatus{
		model.BookingStatusConfirmed,
		model.BookingStatusInProgress,
		model.BookingStatusCompleted,
	}
	var path []model.BookingStatus
	for _, st := range forward {
		if st.Rank() > from.Rank() && st.Rank() <= target.Rank() {
			path = append(path, st)
		}
	}
	return path
}

func syncOutcome(result *SyncResult, err error) string {
	switch {
	case errors.Is(err, model.ErrSyncConflict):
		return "conflict"
	case err != nil:
		return "error"
	case result.Created:
		return "created"
	case result.Changed:
		return "updated"
	}
	return "unchanged"
}

// Linked возвращает бронирование внешней ссылки или model.ErrNotFound
func (s *SyncService) Linked(ctx context.Context, system, ref string) (*SyncResult, error) {
	r := s.bookings.store.Repos()
	link, err := r.Links.Get(ctx, system, ref)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, model.NewNotFoundError("sync link", system+"/"+ref)
	}
	b, err := getBooking(ctx, r, link.BookingID)
	if err != nil {
		return nil, err
	}
	return &SyncResult{
		Booking:        b,
		Link:           link,
		ExternalStatus: s.bookings.tables.For(system).Outbound(b.Status),
	}, nil
}

// BatchItem - результат одного элемента пакетной синхронизации
type BatchItem struct {
	ExternalRef string      `json:"external_ref"`
	Result      *SyncResult `json:"result,omitempty"`
	Err         error       `json:"-"`
}

// SyncBatch синхронизирует элементы по одному и продолжает после ошибок.
// Повторы остаются на вызывающем.
func (s *SyncService) SyncBatch(ctx context.Context, items []model.ExternalBooking) []BatchItem {
	out := make([]BatchItem, 0, len(items))
	for _, item := range items {
		if ctx.Err() != nil {
			out = append(out, BatchItem{ExternalRef: item.ExternalRef, Err: ctx.Err()})
			continue
		}
		res, err := s.Sync(ctx, item)
		out = append(out, BatchItem{ExternalRef: item.ExternalRef, Result: res, Err: err})
	}
	return out
}
