// Package memory - хранилище repository.Store в памяти процесса.
// Используется при STORAGE=memory и в тестах сервисов.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
	"github.com/Liam-Lillieroth/MetaTask/internal/repository"
)

type linkKey struct {
	system string
	ref    string
}

// Store держит все сущности в map под одним RWMutex.
// Исключение для InResourceTx дают мьютексы по ресурсам.
type Store struct {
	mu        sync.RWMutex
	resources map[uuid.UUID]*model.Resource
	rules     map[uuid.UUID]*model.ScheduleRule
	bookings  map[uuid.UUID]*model.BookingRequest
	events    map[uuid.UUID][]*model.BookingEvent
	links     map[linkKey]*model.SyncLink
	lastStamp time.Time

	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		resources: make(map[uuid.UUID]*model.Resource),
		rules:     make(map[uuid.UUID]*model.ScheduleRule),
		bookings:  make(map[uuid.UUID]*model.BookingRequest),
		events:    make(map[uuid.UUID][]*model.BookingEvent),
		links:     make(map[linkKey]*model.SyncLink),
		locks:     make(map[uuid.UUID]*sync.Mutex),
	}
}

var _ repository.Store = (*Store)(nil)

// tx запоминает, как откатить сделанные через неё записи
type tx struct {
	undo []func()
}

func (t *tx) record(fn func()) {
	if t != nil {
		t.undo = append(t.undo, fn)
	}
}

func (s *Store) rollback(t *tx) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
}

// stamp возвращает строго возрастающее время. Вызывается под mu.
func (s *Store) stamp() time.Time {
	now := time.Now().UTC()
	if !now.After(s.lastStamp) {
		now = s.lastStamp.Add(time.Microsecond)
	}
	s.lastStamp = now
	return now
}

func (s *Store) repos(t *tx) repository.Repos {
	return repository.Repos{
		Resources: &resourceRepo{s: s, tx: t},
		Rules:     &ruleRepo{s: s, tx: t},
		Bookings:  &bookingRepo{s: s, tx: t},
		Links:     &linkRepo{s: s, tx: t},
	}
}

func (s *Store) Repos() repository.Repos {
	return s.repos(nil)
}

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, r repository.Repos) error) error {
	t := &tx{}
	if err := fn(ctx, s.repos(t)); err != nil {
		s.rollback(t)
		return err
	}
	return nil
}

func (s *Store) InResourceTx(ctx context.Context, resourceID uuid.UUID, fn func(ctx context.Context, r repository.Repos, res *model.Resource) error) error {
	lock := s.resourceLock(resourceID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	stored, ok := s.resources[resourceID]
	var res *model.Resource
	if ok {
		res = cloneResource(stored)
	}
	s.mu.RUnlock()
	if !ok {
		return model.NewNotFoundError("resource", resourceID.String())
	}

	t := &tx{}
	if err := fn(ctx, s.repos(t), res); err != nil {
		s.rollback(t)
		return err
	}
	return nil
}

func (s *Store) resourceLock(id uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneResource(r *model.Resource) *model.Resource {
	c := *r
	c.Availability = cloneMap(r.Availability)
	return &c
}

func cloneRule(r *model.ScheduleRule) *model.ScheduleRule {
	c := *r
	return &c
}

func cloneBooking(b *model.BookingRequest) *model.BookingRequest {
	c := *b
	c.Payload = cloneMap(b.Payload)
	return &c
}
