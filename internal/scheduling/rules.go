package scheduling

import (
	"sort"
	"time"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
)

// evaluationOrder - фиксированный порядок проверки типов правил
var evaluationOrder = []model.RuleType{
	model.RuleTypeBlackout,
	model.RuleTypeAvailability,
	model.RuleTypeCapacityLimit,
	model.RuleTypeAutoApproval,
	model.RuleTypeRequireApproval,
}

// RuleSet - действующие правила ресурса на один момент,
// сгруппированные по типу и отсортированные по приоритету, затем по порядку создания.
type RuleSet struct {
	byType map[model.RuleType][]*model.ScheduleRule
}

// NewRuleSet оставляет правила, активные и действующие в now
func NewRuleSet(rules []*model.ScheduleRule, now time.Time) *RuleSet {
	rs := &RuleSet{byType: make(map[model.RuleType][]*model.ScheduleRule)}
	for _, r := range rules {
		if r == nil || r.Config == nil || !r.EffectiveAt(now) {
			continue
		}
		rs.byType[r.Type] = append(rs.byType[r.Type], r)
	}
	for _, list := range rs.byType {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].Priority != list[j].Priority {
				return list[i].Priority < list[j].Priority
			}
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		})
	}
	return rs
}

// Of возвращает правила типа t в порядке проверки
func (rs *RuleSet) Of(t model.RuleType) []*model.ScheduleRule {
	if rs == nil {
		return nil
	}
	return rs.byType[t]
}

// Ordered возвращает все действующие правила: по типу в порядке проверки, затем по приоритету
func (rs *RuleSet) Ordered() []*model.ScheduleRule {
	var out []*model.ScheduleRule
	for _, t := range evaluationOrder {
		out = append(out, rs.Of(t)...)
	}
	return out
}

// Len возвращает число действующих правил
func (rs *RuleSet) Len() int {
	n := 0
	for _, list := range rs.byType {
		n += len(list)
	}
	return n
}

// blackoutHit возвращает первое правило blackout, пересекающее iv
func (rs *RuleSet) blackoutHit(iv model.Interval) *model.ScheduleRule {
	for _, r := range rs.Of(model.RuleTypeBlackout) {
		cfg := r.Config.(model.BlackoutConfig)
		if cfg.Period().Overlaps(iv) {
			return r
		}
	}
	return nil
}

// availabilityMiss возвращает первое правило availability, если ни одно не содержит iv.
// nil, если iv помещается в какое-то окно или правил availability нет.
func (rs *RuleSet) availabilityMiss(iv model.Interval) *model.ScheduleRule {
	rules := rs.Of(model.RuleTypeAvailability)
	for _, r := range rules {
		if ScheduleFromRule(r.Config.(model.AvailabilityConfig)).Permits(iv) {
			return nil
		}
	}
	if len(rules) == 0 {
		return nil
	}
	return rules[0]
}

// capacityLimitHit возвращает первое правило capacity_limit, которое iv превысит
// при used уже занятых местах ресурса.
func (rs *RuleSet) capacityLimitHit(iv model.Interval, used int) *model.ScheduleRule {
	for _, r := range rs.Of(model.RuleTypeCapacityLimit) {
		cfg := r.Config.(model.CapacityLimitConfig)
		if cfg.MaxConcurrent != nil && used+1 > *cfg.MaxConcurrent {
			return r
		}
		if cfg.MaxDurationHours != nil && iv.Duration().Hours() > *cfg.MaxDurationHours {
			return r
		}
	}
	return nil
}

// autoApproval возвращает первое правило auto_approval, все пороги которого выполнены
func (rs *RuleSet) autoApproval(c Candidate, now time.Time) *model.ScheduleRule {
	for _, r := range rs.Of(model.RuleTypeAutoApproval) {
		cfg := r.Config.(model.AutoApprovalConfig)
		if cfg.MaxDurationHours != nil && c.Interval.Duration().Hours() > *cfg.MaxDurationHours {
			continue
		}
		if cfg.MinPriority != nil && c.priority().Rank() < cfg.MinPriority.Rank() {
			continue
		}
		if cfg.MinNoticeHours != nil && c.Interval.Start.Sub(now).Hours() < *cfg.MinNoticeHours {
			continue
		}
		return r
	}
	return nil
}

// requireApproval возвращает первое правило require_approval, применимое к c
func (rs *RuleSet) requireApproval(c Candidate) *model.ScheduleRule {
	for _, r := range rs.Of(model.RuleTypeRequireApproval) {
		cfg := r.Config.(model.RequireApprovalConfig)
		if cfg.MinDurationHours != nil && c.Interval.Duration().Hours() < *cfg.MinDurationHours {
			continue
		}
		return r
	}
	return nil
}
