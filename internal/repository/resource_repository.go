package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
	"github.com/Liam-Lillieroth/MetaTask/internal/repository/base"
)

const resourceColumns = `id, name, kind, description, capacity, availability,
	external_system, external_ref, is_active, created_at, updated_at`

type ResourceRepository struct {
	base.Repository
}

func NewResourceRepository(db base.DBTX) *ResourceRepository {
	return &ResourceRepository{Repository: base.NewRepository(db)}
}

// Create создаёт новый ресурс
func (r *ResourceRepository) Create(ctx context.Context, res *model.Resource) error {
	query := `
		INSERT INTO resources (id, name, kind, description, capacity, availability,
			external_system, external_ref, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	err := r.DB().QueryRow(
		ctx, query,
		res.ID,
		res.Name,
		res.Kind,
		res.Description,
		res.Capacity,
		availabilityDoc(res.Availability),
		res.ExternalSystem,
		res.ExternalRef,
		res.IsActive,
	).Scan(&res.CreatedAt, &res.UpdatedAt)

	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("create resource %q: %w", res.Name, model.ErrAlreadyExists)
		}
		return fmt.Errorf("create resource: %w", err)
	}

	return nil
}

// GetByID получает ресурс по ID
func (r *ResourceRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE id = $1`
	return r.getOne(ctx, "get resource by id", query, id)
}

// GetByName получает активный ресурс по имени (без учёта регистра)
func (r *ResourceRepository) GetByName(ctx context.Context, name string) (*model.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE lower(name) = lower($1) AND is_active`
	return r.getOne(ctx, "get resource by name", query, name)
}

// GetByExternal получает ресурс по ссылке на внешнюю сущность
func (r *ResourceRepository) GetByExternal(ctx context.Context, system, ref string) (*model.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE external_system = $1 AND external_ref = $2`
	return r.getOne(ctx, "get resource by external ref", query, system, ref)
}

// Lock блокирует строку ресурса до конца транзакции
func (r *ResourceRepository) Lock(ctx context.Context, id uuid.UUID) (*model.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, "lock resource", query, id)
}

// List получает все ресурсы
func (r *ResourceRepository) List(ctx context.Context, activeOnly bool) ([]*model.Resource, error) {
	query := `
		SELECT ` + resourceColumns + `
		FROM resources
		WHERE is_active OR NOT $1
		ORDER BY name
	`

	rows, err := r.DB().Query(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()

	var resources []*model.Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, res)
	}

	return resources, rows.Err()
}

// Update обновляет изменяемые поля ресурса
func (r *ResourceRepository) Update(ctx context.Context, res *model.Resource) error {
	query := `
		UPDATE resources
		SET name = $2, kind = $3, description = $4, capacity = $5, availability = $6,
			external_system = $7, external_ref = $8, is_active = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.DB().QueryRow(
		ctx, query,
		res.ID,
		res.Name,
		res.Kind,
		res.Description,
		res.Capacity,
		availabilityDoc(res.Availability),
		res.ExternalSystem,
		res.ExternalRef,
		res.IsActive,
	).Scan(&res.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return model.NewNotFoundError("resource", res.ID.String())
		}
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("update resource %q: %w", res.Name, model.ErrAlreadyExists)
		}
		return fmt.Errorf("update resource: %w", err)
	}

	return nil
}

func (r *ResourceRepository) getOne(ctx context.Context, op, query string, args ...any) (*model.Resource, error) {
	res, err := scanResource(r.DB().QueryRow(ctx, query, args...))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

func scanResource(row pgx.Row) (*model.Resource, error) {
	var res model.Resource
	err := row.Scan(
		&res.ID,
		&res.Name,
		&res.Kind,
		&res.Description,
		&res.Capacity,
		&res.Availability,
		&res.ExternalSystem,
		&res.ExternalRef,
		&res.IsActive,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func availabilityDoc(doc map[string]any) map[string]any {
	if doc == nil {
		return map[string]any{}
	}
	return doc
}
