package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
)

type resourceRepo struct {
	s  *Store
	tx *tx
}

// nameTaken вызывается под mu
func (r *resourceRepo) nameTaken(res *model.Resource) error {
	for _, other := range r.s.resources {
		if other.ID == res.ID {
			continue
		}
		if res.IsActive && other.IsActive && strings.EqualFold(other.Name, res.Name) {
			return fmt.Errorf("resource %q: %w", res.Name, model.ErrAlreadyExists)
		}
		if res.ExternalSystem != nil && res.ExternalRef != nil && other.LinkedTo(*res.ExternalSystem, *res.ExternalRef) {
			return fmt.Errorf("resource for %s/%s: %w", *res.ExternalSystem, *res.ExternalRef, model.ErrAlreadyExists)
		}
	}
	return nil
}

func (r *resourceRepo) Create(ctx context.Context, res *model.Resource) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	if err := r.nameTaken(res); err != nil {
		return err
	}
	res.CreatedAt = r.s.stamp()
	res.UpdatedAt = res.CreatedAt
	r.s.resources[res.ID] = cloneResource(res)

	id := res.ID
	r.tx.record(func() { delete(r.s.resources, id) })
	return nil
}

func (r *resourceRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Resource, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if res, ok := r.s.resources[id]; ok {
		return cloneResource(res), nil
	}
	return nil, nil
}

func (r *resourceRepo) GetByName(ctx context.Context, name string) (*model.Resource, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, res := range r.s.resources {
		if res.IsActive && strings.EqualFold(res.Name, name) {
			return cloneResource(res), nil
		}
	}
	return nil, nil
}

func (r *resourceRepo) GetByExternal(ctx context.Context, system, ref string) (*model.Resource, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, res := range r.s.resources {
		if res.LinkedTo(system, ref) {
			return cloneResource(res), nil
		}
	}
	return nil, nil
}

func (r *resourceRepo) List(ctx context.Context, activeOnly bool) ([]*model.Resource, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.Resource
	for _, res := range r.s.resources {
		if activeOnly && !res.IsActive {
			continue
		}
		out = append(out, cloneResource(res))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *resourceRepo) Update(ctx context.Context, res *model.Resource) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	prev, ok := r.s.resources[res.ID]
	if !ok {
		return model.NewNotFoundError("resource", res.ID.String())
	}
	if err := r.nameTaken(res); err != nil {
		return err
	}
	res.CreatedAt = prev.CreatedAt
	res.UpdatedAt = r.s.stamp()
	r.s.resources[res.ID] = cloneResource(res)

	r.tx.record(func() { r.s.resources[prev.ID] = prev })
	return nil
}

type ruleRepo struct {
	s  *Store
	tx *tx
}

func (r *ruleRepo) Create(ctx context.Context, rule *model.ScheduleRule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	rule.CreatedAt = r.s.stamp()
	rule.UpdatedAt = rule.CreatedAt
	r.s.rules[rule.ID] = cloneRule(rule)

	id := rule.ID
	r.tx.record(func() { delete(r.s.rules, id) })
	return nil
}

func (r *ruleRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.ScheduleRule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if rule, ok := r.s.rules[id]; ok {
		return cloneRule(rule), nil
	}
	return nil, nil
}

func (r *ruleRepo) ListByResource(ctx context.Context, resourceID uuid.UUID) ([]*model.ScheduleRule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.ScheduleRule
	for _, rule := range r.s.rules {
		if rule.ResourceID == resourceID {
			out = append(out, cloneRule(rule))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *ruleRepo) Update(ctx context.Context, rule *model.ScheduleRule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	prev, ok := r.s.rules[rule.ID]
	if !ok {
		return model.NewNotFoundError("rule", rule.ID.String())
	}
	rule.CreatedAt = prev.CreatedAt
	rule.UpdatedAt = r.s.stamp()
	r.s.rules[rule.ID] = cloneRule(rule)

	r.tx.record(func() { r.s.rules[prev.ID] = prev })
	return nil
}

func (r *ruleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	prev, ok := r.s.rules[id]
	if !ok {
		return model.NewNotFoundError("rule", id.String())
	}
	delete(r.s.rules, id)

	r.tx.record(func() { r.s.rules[prev.ID] = prev })
	return nil
}

type bookingRepo struct {
	s  *Store
	tx *tx
}

func (r *bookingRepo) Create(ctx context.Context, b *model.BookingRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if _, ok := r.s.resources[b.ResourceID]; !ok {
		return model.NewNotFoundError("resource", b.ResourceID.String())
	}
	b.CreatedAt = r.s.stamp()
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}
	r.s.bookings[b.ID] = cloneBooking(b)

	id := b.ID
	r.tx.record(func() { delete(r.s.bookings, id) })
	return nil
}

func (r *bookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.BookingRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if b, ok := r.s.bookings[id]; ok {
		return cloneBooking(b), nil
	}
	return nil, nil
}

func (r *bookingRepo) Update(ctx context.Context, b *model.BookingRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	prev, ok := r.s.bookings[b.ID]
	if !ok {
		return model.NewNotFoundError("booking", b.ID.String())
	}
	next := cloneBooking(b)
	next.CreatedAt = prev.CreatedAt
	r.s.bookings[b.ID] = next

	r.tx.record(func() { r.s.bookings[prev.ID] = prev })
	return nil
}

func matches(b *model.BookingRequest, f model.BookingFilter) bool {
	if f.ResourceID != nil && b.ResourceID != *f.ResourceID {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, b.Status) {
		return false
	}
	if f.From != nil && !b.Interval.End.After(*f.From) {
		return false
	}
	if f.To != nil && !b.Interval.Start.Before(*f.To) {
		return false
	}
	if f.OriginService != "" && b.OriginService != f.OriginService {
		return false
	}
	if f.OriginRef != "" && b.OriginRef != f.OriginRef {
		return false
	}
	return true
}

func (r *bookingRepo) List(ctx context.Context, filter model.BookingFilter) ([]*model.BookingRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.BookingRequest
	for _, b := range r.s.bookings {
		if matches(b, filter) {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Interval.Start.Equal(out[j].Interval.Start) {
			return out[i].Interval.Start.Before(out[j].Interval.Start)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *bookingRepo) ListActiveOverlapping(ctx context.Context, resourceID uuid.UUID, iv model.Interval) ([]*model.BookingRequest, error) {
	from, to := iv.Start, iv.End
	return r.List(ctx, model.BookingFilter{
		ResourceID: &resourceID,
		Statuses:   model.ActiveStatuses,
		From:       &from,
		To:         &to,
	})
}

func (r *bookingRepo) AppendEvent(ctx context.Context, e *model.BookingEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	c := *e
	r.s.events[e.BookingID] = append(r.s.events[e.BookingID], &c)

	bookingID := e.BookingID
	r.tx.record(func() {
		list := r.s.events[bookingID]
		r.s.events[bookingID] = list[:len(list)-1]
	})
	return nil
}

func (r *bookingRepo) History(ctx context.Context, bookingID uuid.UUID) ([]*model.BookingEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*model.BookingEvent, 0, len(r.s.events[bookingID]))
	for _, e := range r.s.events[bookingID] {
		c := *e
		out = append(out, &c)
	}
	return out, nil
}

type linkRepo struct {
	s  *Store
	tx *tx
}

func (r *linkRepo) Get(ctx context.Context, system, ref string) (*model.SyncLink, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if link, ok := r.s.links[linkKey{system, ref}]; ok {
		c := *link
		return &c, nil
	}
	return nil, nil
}

func (r *linkRepo) Create(ctx context.Context, link *model.SyncLink) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := linkKey{link.ExternalSystem, link.ExternalRef}
	if _, ok := r.s.links[key]; ok {
		return fmt.Errorf("sync link %s/%s: %w", link.ExternalSystem, link.ExternalRef, model.ErrAlreadyExists)
	}
	link.CreatedAt = r.s.stamp()
	c := *link
	r.s.links[key] = &c

	r.tx.record(func() { delete(r.s.links, key) })
	return nil
}

func (r *linkRepo) Update(ctx context.Context, link *model.SyncLink) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := linkKey{link.ExternalSystem, link.ExternalRef}
	prev, ok := r.s.links[key]
	if !ok {
		return model.NewNotFoundError("sync link", link.ExternalSystem+"/"+link.ExternalRef)
	}
	c := *link
	c.CreatedAt = prev.CreatedAt
	r.s.links[key] = &c

	r.tx.record(func() { r.s.links[key] = prev })
	return nil
}
