package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
	"github.com/Liam-Lillieroth/MetaTask/internal/repository/base"
)

const ruleColumns = `id, resource_id, name, description, rule_type, priority, config,
	is_active, valid_from, valid_until, created_at, updated_at`

type RuleRepository struct {
	base.Repository
}

func NewRuleRepository(db base.DBTX) *RuleRepository {
	return &RuleRepository{Repository: base.NewRepository(db)}
}

// Create создаёт правило расписания
func (r *RuleRepository) Create(ctx context.Context, rule *model.ScheduleRule) error {
	query := `
		INSERT INTO schedule_rules (id, resource_id, name, description, rule_type, priority,
			config, is_active, valid_from, valid_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	err := r.DB().QueryRow(
		ctx, query,
		rule.ID,
		rule.ResourceID,
		rule.Name,
		rule.Description,
		rule.Type,
		rule.Priority,
		rule.Config.Map(),
		rule.IsActive,
		rule.ValidFrom,
		rule.ValidUntil,
	).Scan(&rule.CreatedAt, &rule.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create rule: %w", err)
	}

	return nil
}

// GetByID получает правило по ID
func (r *RuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ScheduleRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM schedule_rules WHERE id = $1`

	rule, err := scanRule(r.DB().QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get rule by id: %w", err)
	}

	return rule, nil
}

// ListByResource получает все правила ресурса (включая неактивные)
func (r *RuleRepository) ListByResource(ctx context.Context, resourceID uuid.UUID) ([]*model.ScheduleRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM schedule_rules
		WHERE resource_id = $1
		ORDER BY rule_type, priority, created_at
	`

	rows, err := r.DB().Query(ctx, query, resourceID)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var rules []*model.ScheduleRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// Update обновляет правило
func (r *RuleRepository) Update(ctx context.Context, rule *model.ScheduleRule) error {
	query := `
		UPDATE schedule_rules
		SET name = $2, description = $3, rule_type = $4, priority = $5, config = $6,
			is_active = $7, valid_from = $8, valid_until = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.DB().QueryRow(
		ctx, query,
		rule.ID,
		rule.Name,
		rule.Description,
		rule.Type,
		rule.Priority,
		rule.Config.Map(),
		rule.IsActive,
		rule.ValidFrom,
		rule.ValidUntil,
	).Scan(&rule.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return model.NewNotFoundError("rule", rule.ID.String())
		}
		return fmt.Errorf("update rule: %w", err)
	}

	return nil
}

// Delete удаляет правило
func (r *RuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := r.ExecAffected(ctx, `DELETE FROM schedule_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	if n == 0 {
		return model.NewNotFoundError("rule", id.String())
	}
	return nil
}

func scanRule(row pgx.Row) (*model.ScheduleRule, error) {
	var rule model.ScheduleRule
	var config map[string]any
	err := row.Scan(
		&rule.ID,
		&rule.ResourceID,
		&rule.Name,
		&rule.Description,
		&rule.Type,
		&rule.Priority,
		&config,
		&rule.IsActive,
		&rule.ValidFrom,
		&rule.ValidUntil,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rule.Config, err = model.ParseRuleConfig(rule.Type, config)
	if err != nil {
		return nil, fmt.Errorf("rule %s: stored config: %w", rule.ID, err)
	}
	return &rule, nil
}
