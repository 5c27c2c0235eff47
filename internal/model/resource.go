package model

import (
	"time"

	"github.com/google/uuid"
)

type ResourceKind string

const (
	ResourceKindTeam      ResourceKind = "team"
	ResourceKindEquipment ResourceKind = "equipment"
	ResourceKindRoom      ResourceKind = "room"
	ResourceKindCustom    ResourceKind = "custom"
)

// IsValid проверяет, что вид ресурса известен
func (k ResourceKind) IsValid() bool {
	switch k {
	case ResourceKindTeam, ResourceKindEquipment, ResourceKindRoom, ResourceKindCustom:
		return true
	}
	return false
}

// Resource - бронируемая сущность с фиксированным числом одновременных бронирований
type Resource struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name"`
	Kind         ResourceKind   `json:"kind"`
	Description  string         `json:"description"`
	Capacity     int            `json:"capacity"`
	Availability map[string]any `json:"availability"` // рабочие часы и дни, см. scheduling.ParseAvailability
	// Слабая ссылка на сущность внешней системы (например, команду workflow)
	ExternalSystem *string   `json:"external_system,omitempty"`
	ExternalRef    *string   `json:"external_ref,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Validate проверяет инварианты, не зависящие от разбора доступности
func (r *Resource) Validate() error {
	if r.Name == "" {
		return NewValidationError("name", "is required")
	}
	if !r.Kind.IsValid() {
		return NewValidationError("kind", "unknown resource kind %q", r.Kind)
	}
	if r.Capacity < 1 {
		return NewValidationError("capacity", "must be at least 1")
	}
	if (r.ExternalSystem == nil) != (r.ExternalRef == nil) {
		return NewValidationError("external_ref", "external system and reference must be set together")
	}
	return nil
}

// LinkedTo - ресурс указывает на данную внешнюю сущность
func (r *Resource) LinkedTo(system, ref string) bool {
	return r.ExternalSystem != nil && r.ExternalRef != nil &&
		*r.ExternalSystem == system && *r.ExternalRef == ref
}
