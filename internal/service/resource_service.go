package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
	"github.com/Liam-Lillieroth/MetaTask/internal/repository"
	"github.com/Liam-Lillieroth/MetaTask/internal/scheduling"
)

// ResourceService - реестр ресурсов: ресурсы, доступность и правила
type ResourceService struct {
	store  repository.Store
	logger *zap.Logger
}

func NewResourceService(store repository.Store, logger *zap.Logger) *ResourceService {
	return &ResourceService{store: store, logger: logger}
}

// ResourceInput - изменяемые поля ресурса
type ResourceInput struct {
	Name           string             `json:"name"`
	Kind           model.ResourceKind `json:"kind"`
	Description    string             `json:"description"`
	Capacity       int                `json:"capacity"`
	Availability   map[string]any     `json:"availability"`
	ExternalSystem *string            `json:"external_system,omitempty"`
	ExternalRef    *string            `json:"external_ref,omitempty"`
}

func validateResource(res *model.Resource) error {
	res.Name = strings.TrimSpace(res.Name)
	if err := res.Validate(); err != nil {
		return err
	}
	if _, err := scheduling.ParseAvailability(res.Availability); err != nil {
		return err
	}
	return nil
}

// CreateResource создаёт ресурс
func (s *ResourceService) CreateResource(ctx context.Context, in ResourceInput) (*model.Resource, error) {
	if in.Kind == "" {
		in.Kind = model.ResourceKindCustom
	}
	res := &model.Resource{
		ID:             uuid.New(),
		Name:           in.Name,
		Kind:           in.Kind,
		Description:    in.Description,
		Capacity:       in.Capacity,
		Availability:   in.Availability,
		ExternalSystem: in.ExternalSystem,
		ExternalRef:    in.ExternalRef,
		IsActive:       true,
	}
	if err := validateResource(res); err != nil {
		return nil, err
	}

	if err := s.store.Repos().Resources.Create(ctx, res); err != nil {
		return nil, err
	}

	s.logger.Info("Resource created",
		zap.String("resource_id", res.ID.String()),
		zap.String("name", res.Name),
		zap.Int("capacity", res.Capacity),
	)
	return res, nil
}

// GetResource получает ресурс по ID
func (s *ResourceService) GetResource(ctx context.Context, id uuid.UUID) (*model.Resource, error) {
	return getResource(ctx, s.store.Repos(), id)
}

// ListResources возвращает ресурсы, по умолчанию только активные
func (s *ResourceService) ListResources(ctx context.Context, includeInactive bool) ([]*model.Resource, error) {
	return s.store.Repos().Resources.List(ctx, !includeInactive)
}

// UpdateResource заменяет изменяемые поля ресурса.
// Новая вместимость действует только на будущие допуски, существующие бронирования остаются.
func (s *ResourceService) UpdateResource(ctx context.Context, id uuid.UUID, in ResourceInput) (*model.Resource, error) {
	var res *model.Resource
	err := s.store.InResourceTx(ctx, id, func(ctx context.Context, r repository.Repos, locked *model.Resource) error {
		locked.Name = in.Name
		if in.Kind != "" {
			locked.Kind = in.Kind
		}
		locked.Description = in.Description
		locked.Capacity = in.Capacity
		locked.Availability = in.Availability
		locked.ExternalSystem = in.ExternalSystem
		locked.ExternalRef = in.ExternalRef
		if err := validateResource(locked); err != nil {
			return err
		}
		res = locked
		return r.Resources.Update(ctx, locked)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Resource updated", zap.String("resource_id", id.String()))
	return res, nil
}

// DeactivateResource скрывает ресурс; бронирования и история остаются
func (s *ResourceService) DeactivateResource(ctx context.Context, id uuid.UUID) error {
	err := s.store.InResourceTx(ctx, id, func(ctx context.Context, r repository.Repos, res *model.Resource) error {
		if !res.IsActive {
			return nil
		}
		res.IsActive = false
		return r.Resources.Update(ctx, res)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Resource deactivated", zap.String("resource_id", id.String()))
	return nil
}

// SetAvailability задаёт рабочие часы и дни ресурса
func (s *ResourceService) SetAvailability(ctx context.Context, id uuid.UUID, startHour, endHour int, workingDays []time.Weekday) (*model.Resource, error) {
	days := make([]any, len(workingDays))
	for i, d := range workingDays {
		days[i] = int(d)
	}

	var res *model.Resource
	err := s.store.InResourceTx(ctx, id, func(ctx context.Context, r repository.Repos, locked *model.Resource) error {
		doc := make(map[string]any, len(locked.Availability)+3)
		for k, v := range locked.Availability {
			doc[k] = v
		}
		doc["start_hour"] = startHour
		doc["end_hour"] = endHour
		doc["working_days"] = days
		if _, err := scheduling.ParseAvailability(doc); err != nil {
			return err
		}
		locked.Availability = doc
		res = locked
		return r.Resources.Update(ctx, locked)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// FindByExternalName ищет ресурс по внешней сущности, которую он отражает,
// а если такого нет - активный ресурс с этим именем.
func (s *ResourceService) FindByExternalName(ctx context.Context, system, name string) (*model.Resource, error) {
	r := s.store.Repos()
	res, err := r.Resources.GetByExternal(ctx, system, name)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res, err = r.Resources.GetByName(ctx, name)
		if err != nil {
			return nil, err
		}
	}
	if res == nil {
		return nil, model.NewNotFoundError("resource", system+"/"+name)
	}
	return res, nil
}

// RuleInput - изменяемые поля правила
type RuleInput struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Type        model.RuleType `json:"rule_type"`
	Priority    int            `json:"priority"`
	Config      map[string]any `json:"config"`
	IsActive    *bool          `json:"is_active,omitempty"`
	ValidFrom   *time.Time     `json:"valid_from,omitempty"`
	ValidUntil  *time.Time     `json:"valid_until,omitempty"`
}

func (in RuleInput) apply(rule *model.ScheduleRule) error {
	cfg, err := model.ParseRuleConfig(in.Type, in.Config)
	if err != nil {
		return err
	}
	rule.Name = strings.TrimSpace(in.Name)
	rule.Description = in.Description
	rule.Type = in.Type
	rule.Priority = in.Priority
	rule.Config = cfg
	rule.IsActive = in.IsActive == nil || *in.IsActive
	rule.ValidFrom = in.ValidFrom
	rule.ValidUntil = in.ValidUntil
	return rule.Validate()
}

// AddRule добавляет правило расписания ресурсу
func (s *ResourceService) AddRule(ctx context.Context, resourceID uuid.UUID, in RuleInput) (*model.ScheduleRule, error) {
	rule := &model.ScheduleRule{ID: uuid.New(), ResourceID: resourceID}
	if err := in.apply(rule); err != nil {
		return nil, err
	}

	err := s.store.InResourceTx(ctx, resourceID, func(ctx context.Context, r repository.Repos, _ *model.Resource) error {
		return r.Rules.Create(ctx, rule)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Rule added",
		zap.String("resource_id", resourceID.String()),
		zap.String("rule_id", rule.ID.String()),
		zap.String("rule_type", string(rule.Type)),
		zap.Int("priority", rule.Priority),
	)
	return rule, nil
}

// ListRules возвращает правила ресурса
func (s *ResourceService) ListRules(ctx context.Context, resourceID uuid.UUID) ([]*model.ScheduleRule, error) {
	r := s.store.Repos()
	if _, err := getResource(ctx, r, resourceID); err != nil {
		return nil, err
	}
	return r.Rules.ListByResource(ctx, resourceID)
}

// GetRule получает правило по ID
func (s *ResourceService) GetRule(ctx context.Context, id uuid.UUID) (*model.ScheduleRule, error) {
	rule, err := s.store.Repos().Rules.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, model.NewNotFoundError("rule", id.String())
	}
	return rule, nil
}

// UpdateRule заменяет правило целиком
func (s *ResourceService) UpdateRule(ctx context.Context, id uuid.UUID, in RuleInput) (*model.ScheduleRule, error) {
	rule, err := s.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(rule); err != nil {
		return nil, err
	}

	err = s.store.InResourceTx(ctx, rule.ResourceID, func(ctx context.Context, r repository.Repos, _ *model.Resource) error {
		return r.Rules.Update(ctx, rule)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Rule updated", zap.String("rule_id", id.String()))
	return rule, nil
}

// DeleteRule удаляет правило
func (s *ResourceService) DeleteRule(ctx context.Context, id uuid.UUID) error {
	rule, err := s.GetRule(ctx, id)
	if err != nil {
		return err
	}
	err = s.store.InResourceTx(ctx, rule.ResourceID, func(ctx context.Context, r repository.Repos, _ *model.Resource) error {
		return r.Rules.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Rule deleted", zap.String("rule_id", id.String()))
	return nil
}

// AddBlackoutPeriod создаёт правило blackout на период [start, end)
func (s *ResourceService) AddBlackoutPeriod(ctx context.Context, resourceID uuid.UUID, name string, start, end time.Time, reason string) (*model.ScheduleRule, error) {
	if name == "" {
		name = "Blackout " + start.UTC().Format("2006-01-02")
	}
	cfg := map[string]any{
		"start": start.UTC().Format(time.RFC3339),
		"end":   end.UTC().Format(time.RFC3339),
	}
	if reason != "" {
		cfg["reason"] = reason
	}
	return s.AddRule(ctx, resourceID, RuleInput{
		Name:   name,
		Type:   model.RuleTypeBlackout,
		Config: cfg,
	})
}

// TeamSeed - команда внешней системы, которую нужно отразить ресурсом
type TeamSeed struct {
	Ref          string         `yaml:"ref" json:"ref"`
	Name         string         `yaml:"name" json:"name"`
	Description  string         `yaml:"description" json:"description"`
	Capacity     int            `yaml:"capacity" json:"capacity"`
	Availability map[string]any `yaml:"availability" json:"availability"`
}

// DefaultTeamAvailability - с понедельника по пятницу, с 9 до 17
func DefaultTeamAvailability() map[string]any {
	return map[string]any{
		"working_days": []any{1, 2, 3, 4, 5},
		"start_hour":   9,
		"end_hour":     17,
	}
}

// SeedResult - что сделал SeedTeams
type SeedResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// SeedTeams отражает команды внешней системы ресурсами типа team.
// Сопоставление идёт по внешней ссылке, поэтому повторный запуск только
// обновляет вместимость и описание.
func (s *ResourceService) SeedTeams(ctx context.Context, system string, teams []TeamSeed) (SeedResult, error) {
	var result SeedResult
	for _, team := range teams {
		if team.Ref == "" {
			return result, model.NewValidationError("ref", "team %q has no reference", team.Name)
		}
		if team.Capacity == 0 {
			team.Capacity = 1
		}

		existing, err := s.store.Repos().Resources.GetByExternal(ctx, system, team.Ref)
		if err != nil {
			return result, fmt.Errorf("lookup team %s: %w", team.Ref, err)
		}

		if existing != nil {
			in := ResourceInput{
				Name:           existing.Name,
				Kind:           existing.Kind,
				Description:    team.Description,
				Capacity:       team.Capacity,
				Availability:   existing.Availability,
				ExternalSystem: existing.ExternalSystem,
				ExternalRef:    existing.ExternalRef,
			}
			if team.Availability != nil {
				in.Availability = team.Availability
			}
			if _, err := s.UpdateResource(ctx, existing.ID, in); err != nil {
				return result, fmt.Errorf("update team %s: %w", team.Ref, err)
			}
			result.Updated++
			continue
		}

		availability := team.Availability
		if availability == nil {
			availability = DefaultTeamAvailability()
		}
		sys, ref := system, team.Ref
		_, err = s.CreateResource(ctx, ResourceInput{
			Name:           team.Name,
			Kind:           model.ResourceKindTeam,
			Description:    team.Description,
			Capacity:       team.Capacity,
			Availability:   availability,
			ExternalSystem: &sys,
			ExternalRef:    &ref,
		})
		if errors.Is(err, model.ErrAlreadyExists) {
			s.logger.Warn("Team name already taken, skipping", zap.String("team", team.Name), zap.String("ref", team.Ref))
			continue
		}
		if err != nil {
			return result, fmt.Errorf("create team %s: %w", team.Ref, err)
		}
		result.Created++
	}

	s.logger.Info("Teams seeded",
		zap.String("system", system),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
	)
	return result, nil
}
