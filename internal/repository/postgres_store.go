package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
	"github.com/Liam-Lillieroth/MetaTask/internal/repository/base"
)

// PostgresStore реализует Store на пуле pgx
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func reposFor(db base.DBTX) Repos {
	return Repos{
		Resources: NewResourceRepository(db),
		Rules:     NewRuleRepository(db),
		Bookings:  NewBookingRepository(db),
		Links:     NewSyncLinkRepository(db),
	}
}

func (s *PostgresStore) Repos() Repos {
	return reposFor(s.pool)
}

func (s *PostgresStore) InTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		return fn(ctx, reposFor(tx))
	})
}

// InResourceTx сначала берёт SELECT ... FOR UPDATE на строку ресурса, что
// сериализует все допуски по этому ресурсу до коммита.
func (s *PostgresStore) InResourceTx(ctx context.Context, resourceID uuid.UUID, fn func(ctx context.Context, r Repos, res *model.Resource) error) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		res, err := NewResourceRepository(tx).Lock(ctx, resourceID)
		if err != nil {
			return err
		}
		if res == nil {
			return model.NewNotFoundError("resource", resourceID.String())
		}
		return fn(ctx, reposFor(tx), res)
	})
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

var (
	_ Store     = (*PostgresStore)(nil)
	_ Resources = (*ResourceRepository)(nil)
	_ Rules     = (*RuleRepository)(nil)
	_ Bookings  = (*BookingRepository)(nil)
	_ SyncLinks = (*SyncLinkRepository)(nil)
)
