package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
)

// Поиск возвращает nil, nil, если строки нет.

type Resources interface {
	Create(ctx context.Context, res *model.Resource) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Resource, error)
	GetByName(ctx context.Context, name string) (*model.Resource, error)
	GetByExternal(ctx context.Context, system, ref string) (*model.Resource, error)
	List(ctx context.Context, activeOnly bool) ([]*model.Resource, error)
	Update(ctx context.Context, res *model.Resource) error
}

type Rules interface {
	Create(ctx context.Context, rule *model.ScheduleRule) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ScheduleRule, error)
	ListByResource(ctx context.Context, resourceID uuid.UUID) ([]*model.ScheduleRule, error)
	Update(ctx context.Context, rule *model.ScheduleRule) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type Bookings interface {
	Create(ctx context.Context, b *model.BookingRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.BookingRequest, error)
	Update(ctx context.Context, b *model.BookingRequest) error
	List(ctx context.Context, filter model.BookingFilter) ([]*model.BookingRequest, error)
	// ListActiveOverlapping возвращает занимающие место бронирования ресурса, пересекающие iv
	ListActiveOverlapping(ctx context.Context, resourceID uuid.UUID, iv model.Interval) ([]*model.BookingRequest, error)
	AppendEvent(ctx context.Context, e *model.BookingEvent) error
	History(ctx context.Context, bookingID uuid.UUID) ([]*model.BookingEvent, error)
}

type SyncLinks interface {
	Get(ctx context.Context, system, ref string) (*model.SyncLink, error)
	// Create возвращает model.ErrAlreadyExists, если пара уже занята
	Create(ctx context.Context, link *model.SyncLink) error
	Update(ctx context.Context, link *model.SyncLink) error
}

// Repos - набор репозиториев, привязанный к транзакции или к пулу
type Repos struct {
	Resources Resources
	Rules     Rules
	Bookings  Bookings
	Links     SyncLinks
}

// Store - граница транзакционного хранилища
type Store interface {
	// Repos возвращает репозитории вне транзакции, для чтения
	Repos() Repos
	// InTx выполняет fn в одной транзакции; ошибка fn откатывает её
	InTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
	// InResourceTx выполняет fn в одной транзакции с эксклюзивной блокировкой
	// ресурса, так что проверка и запись по ресурсу идут последовательно.
	// Если ресурса нет, возвращает model.ErrNotFound.
	InResourceTx(ctx context.Context, resourceID uuid.UUID, fn func(ctx context.Context, r Repos, res *model.Resource) error) error
}
