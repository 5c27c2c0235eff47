package model

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

type RuleType string

const (
	RuleTypeAvailability    RuleType = "availability"
	RuleTypeBlackout        RuleType = "blackout"
	RuleTypeAutoApproval    RuleType = "auto_approval"
	RuleTypeRequireApproval RuleType = "require_approval"
	RuleTypeCapacityLimit   RuleType = "capacity_limit"
)

// IsValid проверяет, что тип правила известен
func (t RuleType) IsValid() bool {
	switch t {
	case RuleTypeAvailability, RuleTypeBlackout, RuleTypeAutoApproval,
		RuleTypeRequireApproval, RuleTypeCapacityLimit:
		return true
	}
	return false
}

// RuleConfig - настройки правила, свои для каждого типа.
// Значения строятся только через ParseRuleConfig, который проверяет набор ключей.
type RuleConfig interface {
	Type() RuleType
	// Map возвращает каноничную форму ключ/значение для хранения в БД
	Map() map[string]any
}

// AvailabilityConfig - одно разрешённое недельное окно
type AvailabilityConfig struct {
	Days      []time.Weekday
	StartTime ClockTime
	EndTime   ClockTime
	Timezone  string
}

func (AvailabilityConfig) Type() RuleType { return RuleTypeAvailability }

func (c AvailabilityConfig) Map() map[string]any {
	days := make([]int, len(c.Days))
	for i, d := range c.Days {
		days[i] = int(d)
	}
	m := map[string]any{
		"days":       days,
		"start_time": c.StartTime.String(),
		"end_time":   c.EndTime.String(),
	}
	if c.Timezone != "" {
		m["timezone"] = c.Timezone
	}
	return m
}

// Location возвращает часовой пояс из настроек, по умолчанию UTC
func (c AvailabilityConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// BlackoutConfig закрывает промежуток [Start, End)
type BlackoutConfig struct {
	Start  time.Time
	End    time.Time
	Reason string
}

func (BlackoutConfig) Type() RuleType { return RuleTypeBlackout }

func (c BlackoutConfig) Map() map[string]any {
	m := map[string]any{
		"start": c.Start.UTC().Format(time.RFC3339),
		"end":   c.End.UTC().Format(time.RFC3339),
	}
	if c.Reason != "" {
		m["reason"] = c.Reason
	}
	return m
}

// Period возвращает закрытый период как интервал
func (c BlackoutConfig) Period() Interval {
	return Interval{Start: c.Start, End: c.End}
}

// CapacityLimitConfig ограничивает одновременность и/или длительность
type CapacityLimitConfig struct {
	MaxConcurrent    *int
	MaxDurationHours *float64
}

func (CapacityLimitConfig) Type() RuleType { return RuleTypeCapacityLimit }

func (c CapacityLimitConfig) Map() map[string]any {
	m := map[string]any{}
	if c.MaxConcurrent != nil {
		m["max_concurrent"] = *c.MaxConcurrent
	}
	if c.MaxDurationHours != nil {
		m["max_duration_hours"] = *c.MaxDurationHours
	}
	return m
}

// AutoApprovalConfig сразу подтверждает бронирование, если выполнены все пороги
type AutoApprovalConfig struct {
	MaxDurationHours *float64
	MinPriority      *Priority
	MinNoticeHours   *float64
}

func (AutoApprovalConfig) Type() RuleType { return RuleTypeAutoApproval }

func (c AutoApprovalConfig) Map() map[string]any {
	m := map[string]any{}
	if c.MaxDurationHours != nil {
		m["max_duration_hours"] = *c.MaxDurationHours
	}
	if c.MinPriority != nil {
		m["min_priority"] = string(*c.MinPriority)
	}
	if c.MinNoticeHours != nil {
		m["min_notice_hours"] = *c.MinNoticeHours
	}
	return m
}

// RequireApprovalConfig оставляет подходящие бронирования в ожидании
type RequireApprovalConfig struct {
	MinDurationHours *float64
	Reason           string
}

func (RequireApprovalConfig) Type() RuleType { return RuleTypeRequireApproval }

func (c RequireApprovalConfig) Map() map[string]any {
	m := map[string]any{}
	if c.MinDurationHours != nil {
		m["min_duration_hours"] = *c.MinDurationHours
	}
	if c.Reason != "" {
		m["reason"] = c.Reason
	}
	return m
}

type keySet struct {
	required []string
	optional []string
	// anyOf: нужен хотя бы один из этих ключей
	anyOf []string
}

var ruleKeys = map[RuleType]keySet{
	RuleTypeAvailability:    {required: []string{"days", "start_time", "end_time"}, optional: []string{"timezone"}},
	RuleTypeBlackout:        {required: []string{"start", "end"}, optional: []string{"reason"}},
	RuleTypeCapacityLimit:   {anyOf: []string{"max_concurrent", "max_duration_hours"}},
	RuleTypeAutoApproval:    {optional: []string{"max_duration_hours", "min_priority", "min_notice_hours"}},
	RuleTypeRequireApproval: {optional: []string{"min_duration_hours", "reason"}},
}

func (ks keySet) check(raw map[string]any) error {
	allowed := make(map[string]bool)
	for _, k := range ks.required {
		allowed[k] = true
		if _, ok := raw[k]; !ok {
			return NewValidationError("config."+k, "is required")
		}
	}
	for _, k := range ks.optional {
		allowed[k] = true
	}
	found := len(ks.anyOf) == 0
	for _, k := range ks.anyOf {
		allowed[k] = true
		if _, ok := raw[k]; ok {
			found = true
		}
	}
	if !found {
		return NewValidationError("config", "one of %s is required", strings.Join(ks.anyOf, ", "))
	}

	var unknown []string
	for k := range raw {
		if !allowed[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return NewValidationError("config", "unknown keys: %s", strings.Join(unknown, ", "))
	}
	return nil
}

// ParseRuleConfig проверяет raw по набору ключей ruleType и строит нужный вариант настроек
func ParseRuleConfig(ruleType RuleType, raw map[string]any) (RuleConfig, error) {
	ks, ok := ruleKeys[ruleType]
	if !ok {
		return nil, NewValidationError("rule_type", "unknown rule type %q", ruleType)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	if err := ks.check(raw); err != nil {
		return nil, err
	}

	switch ruleType {
	case RuleTypeAvailability:
		return parseAvailabilityConfig(raw)
	case RuleTypeBlackout:
		return parseBlackoutConfig(raw)
	case RuleTypeCapacityLimit:
		return parseCapacityLimitConfig(raw)
	case RuleTypeAutoApproval:
		return parseAutoApprovalConfig(raw)
	default:
		return parseRequireApprovalConfig(raw)
	}
}

func parseAvailabilityConfig(raw map[string]any) (RuleConfig, error) {
	days, err := WeekdaysValue(raw["days"])
	if err != nil {
		return nil, NewValidationError("config.days", "%v", err)
	}
	if len(days) == 0 {
		return nil, NewValidationError("config.days", "must not be empty")
	}
	start, err := clockValue(raw["start_time"])
	if err != nil {
		return nil, NewValidationError("config.start_time", "%v", err)
	}
	end, err := clockValue(raw["end_time"])
	if err != nil {
		return nil, NewValidationError("config.end_time", "%v", err)
	}
	if end <= start {
		return nil, NewValidationError("config.end_time", "must be after start_time")
	}
	cfg := AvailabilityConfig{Days: days, StartTime: start, EndTime: end}
	if tz, ok := raw["timezone"]; ok {
		s, ok := tz.(string)
		if !ok {
			return nil, NewValidationError("config.timezone", "must be a string")
		}
		if _, err := time.LoadLocation(s); err != nil {
			return nil, NewValidationError("config.timezone", "unknown timezone %q", s)
		}
		cfg.Timezone = s
	}
	return cfg, nil
}

func parseBlackoutConfig(raw map[string]any) (RuleConfig, error) {
	start, err := timeValue(raw["start"])
	if err != nil {
		return nil, NewValidationError("config.start", "%v", err)
	}
	end, err := timeValue(raw["end"])
	if err != nil {
		return nil, NewValidationError("config.end", "%v", err)
	}
	if !end.After(start) {
		return nil, NewValidationError("config.end", "must be after start")
	}
	cfg := BlackoutConfig{Start: start, End: end}
	if r, ok := raw["reason"]; ok {
		s, ok := r.(string)
		if !ok {
			return nil, NewValidationError("config.reason", "must be a string")
		}
		cfg.Reason = s
	}
	return cfg, nil
}

func parseCapacityLimitConfig(raw map[string]any) (RuleConfig, error) {
	var cfg CapacityLimitConfig
	if v, ok := raw["max_concurrent"]; ok {
		n, err := intValue(v)
		if err != nil || n < 1 {
			return nil, NewValidationError("config.max_concurrent", "must be an integer >= 1")
		}
		cfg.MaxConcurrent = &n
	}
	if v, ok := raw["max_duration_hours"]; ok {
		f, err := positiveFloat(v)
		if err != nil {
			return nil, NewValidationError("config.max_duration_hours", "%v", err)
		}
		cfg.MaxDurationHours = &f
	}
	return cfg, nil
}

func parseAutoApprovalConfig(raw map[string]any) (RuleConfig, error) {
	var cfg AutoApprovalConfig
	if v, ok := raw["max_duration_hours"]; ok {
		f, err := positiveFloat(v)
		if err != nil {
			return nil, NewValidationError("config.max_duration_hours", "%v", err)
		}
		cfg.MaxDurationHours = &f
	}
	if v, ok := raw["min_priority"]; ok {
		s, _ := v.(string)
		p := Priority(s)
		if !p.IsValid() {
			return nil, NewValidationError("config.min_priority", "unknown priority %v", v)
		}
		cfg.MinPriority = &p
	}
	if v, ok := raw["min_notice_hours"]; ok {
		f, err := floatValue(v)
		if err != nil || f < 0 {
			return nil, NewValidationError("config.min_notice_hours", "must be a number >= 0")
		}
		cfg.MinNoticeHours = &f
	}
	return cfg, nil
}

func parseRequireApprovalConfig(raw map[string]any) (RuleConfig, error) {
	var cfg RequireApprovalConfig
	if v, ok := raw["min_duration_hours"]; ok {
		f, err := floatValue(v)
		if err != nil || f < 0 {
			return nil, NewValidationError("config.min_duration_hours", "must be a number >= 0")
		}
		cfg.MinDurationHours = &f
	}
	if v, ok := raw["reason"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, NewValidationError("config.reason", "must be a string")
		}
		cfg.Reason = s
	}
	return cfg, nil
}

// ScheduleRule - именованное типизированное ограничение ресурса
type ScheduleRule struct {
	ID          uuid.UUID  `json:"id"`
	ResourceID  uuid.UUID  `json:"resource_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Type        RuleType   `json:"rule_type"`
	Priority    int        `json:"priority"`
	Config      RuleConfig `json:"-"`
	IsActive    bool       `json:"is_active"`
	ValidFrom   *time.Time `json:"valid_from,omitempty"`
	ValidUntil  *time.Time `json:"valid_until,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// EffectiveAt - правило активно и его срок действия покрывает t
func (r *ScheduleRule) EffectiveAt(t time.Time) bool {
	if !r.IsActive {
		return false
	}
	if r.ValidFrom != nil && t.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidUntil != nil && !t.Before(*r.ValidUntil) {
		return false
	}
	return true
}

// Validate проверяет заголовок правила и соответствие настроек типу
func (r *ScheduleRule) Validate() error {
	if r.Name == "" {
		return NewValidationError("name", "is required")
	}
	if !r.Type.IsValid() {
		return NewValidationError("rule_type", "unknown rule type %q", r.Type)
	}
	if r.Config == nil || r.Config.Type() != r.Type {
		return NewValidationError("config", "does not match rule type %s", r.Type)
	}
	if r.ValidFrom != nil && r.ValidUntil != nil && !r.ValidUntil.After(*r.ValidFrom) {
		return NewValidationError("valid_until", "must be after valid_from")
	}
	return nil
}

func (r ScheduleRule) MarshalJSON() ([]byte, error) {
	type plain ScheduleRule
	out := struct {
		plain
		Config map[string]any `json:"config"`
	}{plain: plain(r)}
	if r.Config != nil {
		out.Config = r.Config.Map()
	}
	return json.Marshal(out)
}

func (r *ScheduleRule) UnmarshalJSON(data []byte) error {
	type plain ScheduleRule
	var in struct {
		plain
		Config map[string]any `json:"config"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = ScheduleRule(in.plain)
	cfg, err := ParseRuleConfig(r.Type, in.Config)
	if err != nil {
		return fmt.Errorf("rule %s: %w", r.Name, err)
	}
	r.Config = cfg
	return nil
}

// --- разбор значений из JSON/YAML документов ---

func floatValue(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	}
	return 0, fmt.Errorf("must be a number, got %T", v)
}

func positiveFloat(v any) (float64, error) {
	f, err := floatValue(v)
	if err != nil {
		return 0, err
	}
	if f <= 0 {
		return 0, fmt.Errorf("must be > 0")
	}
	return f, nil
}

func intValue(v any) (int, error) {
	f, err := floatValue(v)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("must be an integer")
	}
	// int(f) вне диапазона int зависит от платформы
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("must be between %d and %d", math.MinInt32, math.MaxInt32)
	}
	return int(f), nil
}

// IntValue читает целое число из значения JSON/YAML документа
func IntValue(v any) (int, error) { return intValue(v) }

func timeValue(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("must be an RFC 3339 timestamp")
		}
		return parsed, nil
	}
	return time.Time{}, fmt.Errorf("must be an RFC 3339 timestamp, got %T", v)
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// WeekdaysValue читает список дней недели: числа (0=воскресенье) или названия
func WeekdaysValue(v any) ([]time.Weekday, error) {
	var items []any
	switch list := v.(type) {
	case []any:
		items = list
	case []int:
		for _, n := range list {
			items = append(items, n)
		}
	case []time.Weekday:
		return list, nil
	default:
		return nil, fmt.Errorf("must be a list of weekdays, got %T", v)
	}

	days := make([]time.Weekday, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			d, ok := weekdayNames[strings.ToLower(s)]
			if !ok {
				return nil, fmt.Errorf("unknown weekday %q", s)
			}
			days = append(days, d)
			continue
		}
		n, err := intValue(item)
		if err != nil || n < 0 || n > 6 {
			return nil, fmt.Errorf("weekday must be 0..6 (0=Sunday)")
		}
		days = append(days, time.Weekday(n))
	}
	return days, nil
}

func clockValue(v any) (ClockTime, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("must be a HH:MM string")
	}
	return ParseClockTime(s)
}
