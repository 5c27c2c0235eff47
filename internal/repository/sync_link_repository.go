package repository

import (
	"context"
	"fmt"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
	"github.com/Liam-Lillieroth/MetaTask/internal/repository/base"
)

type SyncLinkRepository struct {
	base.Repository
}

func NewSyncLinkRepository(db base.DBTX) *SyncLinkRepository {
	return &SyncLinkRepository{Repository: base.NewRepository(db)}
}

// Get получает связь по внешней ссылке
func (r *SyncLinkRepository) Get(ctx context.Context, system, ref string) (*model.SyncLink, error) {
	query := `
		SELECT external_system, external_ref, booking_id, last_external_status, synced_at, created_at
		FROM sync_links
		WHERE external_system = $1 AND external_ref = $2
	`

	var link model.SyncLink
	err := r.DB().QueryRow(ctx, query, system, ref).Scan(
		&link.ExternalSystem,
		&link.ExternalRef,
		&link.BookingID,
		&link.LastExternalStatus,
		&link.SyncedAt,
		&link.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sync link: %w", err)
	}

	return &link, nil
}

// Create создаёт связь; повторная пара (system, ref) даёт ErrAlreadyExists
func (r *SyncLinkRepository) Create(ctx context.Context, link *model.SyncLink) error {
	query := `
		INSERT INTO sync_links (external_system, external_ref, booking_id, last_external_status, synced_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.DB().QueryRow(ctx, query,
		link.ExternalSystem, link.ExternalRef, link.BookingID, link.LastExternalStatus, link.SyncedAt,
	).Scan(&link.CreatedAt)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("create sync link %s/%s: %w", link.ExternalSystem, link.ExternalRef, model.ErrAlreadyExists)
		}
		return fmt.Errorf("create sync link: %w", err)
	}

	return nil
}

// Update обновляет последний внешний статус и время синхронизации
func (r *SyncLinkRepository) Update(ctx context.Context, link *model.SyncLink) error {
	query := `
		UPDATE sync_links
		SET last_external_status = $3, synced_at = $4
		WHERE external_system = $1 AND external_ref = $2
	`

	n, err := r.ExecAffected(ctx, query, link.ExternalSystem, link.ExternalRef, link.LastExternalStatus, link.SyncedAt)
	if err != nil {
		return fmt.Errorf("update sync link: %w", err)
	}
	if n == 0 {
		return model.NewNotFoundError("sync link", link.ExternalSystem+"/"+link.ExternalRef)
	}
	return nil
}
