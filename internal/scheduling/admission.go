package scheduling

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
)

// Snapshot - всё, что допуску нужно знать об одном ресурсе.
// Bookings должен содержать все бронирования, занимающие место и пересекающие
// проверяемые интервалы.
type Snapshot struct {
	Resource *model.Resource
	Schedule *WeeklySchedule
	Rules    *RuleSet
	Bookings []*model.BookingRequest
}

// NewSnapshot разбирает доступность ресурса и отбирает правила, действующие в now
func NewSnapshot(res *model.Resource, rules []*model.ScheduleRule, bookings []*model.BookingRequest, now time.Time) (*Snapshot, error) {
	ws, err := ParseAvailability(res.Availability)
	if err != nil {
		return nil, fmt.Errorf("resource %s availability: %w", res.ID, err)
	}
	return &Snapshot{
		Resource: res,
		Schedule: ws,
		Rules:    NewRuleSet(rules, now),
		Bookings: bookings,
	}, nil
}

// CapacityUsed - пиковая одновременность внутри iv без учёта exclude
func (s *Snapshot) CapacityUsed(iv model.Interval, exclude uuid.UUID) int {
	return CapacityUsed(s.Bookings, iv, exclude)
}

// HasConflict - в iv не помещается ещё одно бронирование
func (s *Snapshot) HasConflict(iv model.Interval, exclude uuid.UUID) bool {
	return HasConflict(s.Resource.Capacity, s.Bookings, iv, exclude)
}

// Candidate - бронирование, которое проходит допуск
type Candidate struct {
	Interval model.Interval
	Priority model.Priority
	// Exclude - id самого бронирования, если оно уже сохранено
	Exclude uuid.UUID
}

func (c Candidate) priority() model.Priority {
	if c.Priority == "" {
		return model.PriorityNormal
	}
	return c.Priority
}

// Decision - результат конвейера допуска
type Decision struct {
	Status  model.BookingStatus
	Reason  model.RejectReason
	RuleID  *uuid.UUID
	Message string
}

// Rejected - кандидату отказано
func (d Decision) Rejected() bool {
	return d.Status == model.BookingStatusRejected
}

func reject(reason model.RejectReason, rule *model.ScheduleRule, msg string) Decision {
	d := Decision{Status: model.BookingStatusRejected, Reason: reason, Message: msg}
	if rule != nil {
		id := rule.ID
		d.RuleID = &id
		if rule.Name != "" {
			d.Message = fmt.Sprintf("%s (rule %q)", msg, rule.Name)
		}
	}
	return d
}

func decide(status model.BookingStatus, rule *model.ScheduleRule, msg string) Decision {
	d := Decision{Status: status, Message: msg}
	if rule != nil {
		id := rule.ID
		d.RuleID = &id
	}
	return d
}

// Admit выполняет проверки конфликтов и правила для c.
//
// Порядок: правила blackout и закрытые даты, доступность ресурса,
// правила availability, вместимость ресурса и правила capacity_limit,
// auto_approval, require_approval. Отказ прерывает проверку.
func Admit(s *Snapshot, c Candidate, now time.Time) Decision {
	iv := c.Interval

	if r := s.Rules.blackoutHit(iv); r != nil {
		msg := "interval intersects a blackout period"
		if cfg := r.Config.(model.BlackoutConfig); cfg.Reason != "" {
			msg = cfg.Reason
		}
		return reject(model.ReasonBlackout, r, msg)
	}
	if s.Schedule.HitsBlackoutDate(iv) {
		return reject(model.ReasonBlackout, nil, "interval touches a closed date")
	}

	if !s.Schedule.Permits(iv) {
		return reject(model.ReasonOutsideAvailability, nil, "interval is outside working hours")
	}
	if r := s.Rules.availabilityMiss(iv); r != nil {
		return reject(model.ReasonOutsideAvailability, r, "interval is outside every availability window")
	}

	used := s.CapacityUsed(iv, c.Exclude)
	if used+1 > s.Resource.Capacity {
		return reject(model.ReasonCapacityExceeded, nil,
			fmt.Sprintf("resource capacity %d is fully booked", s.Resource.Capacity))
	}
	if r := s.Rules.capacityLimitHit(iv, used); r != nil {
		return reject(model.ReasonCapacityExceeded, r, "capacity limit exceeded")
	}

	if r := s.Rules.autoApproval(c, now); r != nil {
		return decide(model.BookingStatusConfirmed, r, "auto-approved")
	}
	if r := s.Rules.requireApproval(c); r != nil {
		msg := "manual approval required"
		if cfg := r.Config.(model.RequireApprovalConfig); cfg.Reason != "" {
			msg = cfg.Reason
		}
		return decide(model.BookingStatusPending, r, msg)
	}
	return decide(model.BookingStatusPending, nil, "")
}
