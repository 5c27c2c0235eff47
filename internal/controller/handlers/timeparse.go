package handlers

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/olebedev/when/rules/ru"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
)

// DefaultSlotDuration используется, если длительность не указана
const DefaultSlotDuration = time.Hour

var errNoTime = errors.New("no time found in text")

// Строгие форматы пробуем до разбора естественного языка
var exactLayouts = []string{
	"02.01.2006 15:04",
	"2006-01-02 15:04",
	"02.01 15:04",
}

// "на 2 часа", "на 30 минут", "for 2h", "for 45 min"
var durationPattern = regexp.MustCompile(`(?i)\s*(?:на|for)\s+(\d+)\s*(ч|час|часа|часов|h|hours?|м|мин|минут|минуты|m|min|mins|minutes?)\.?\s*$`)

// TimeParser превращает сообщение чата в запрошенный интервал
type TimeParser struct {
	w *when.Parser
}

func NewTimeParser() *TimeParser {
	w := when.New(nil)
	w.Add(ru.All...)
	w.Add(en.All...)
	w.Add(common.All...)
	return &TimeParser{w: w}
}

// Parse читает время начала и необязательную длительность в конце.
// base задаёт точку отсчёта для относительных выражений и часовой пояс.
func (p *TimeParser) Parse(text string, base time.Time) (model.Interval, error) {
	text = strings.TrimSpace(text)
	duration := DefaultSlotDuration
	if m := durationPattern.FindStringSubmatchIndex(text); m != nil {
		n, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil || n <= 0 {
			return model.Interval{}, model.NewValidationError("duration", "must be positive")
		}
		duration = time.Duration(n) * unitOf(text[m[4]:m[5]])
		text = strings.TrimSpace(text[:m[0]])
	}

	start, err := p.parseStart(text, base)
	if err != nil {
		return model.Interval{}, err
	}
	return model.NewInterval(start, start.Add(duration))
}

func (p *TimeParser) parseStart(text string, base time.Time) (time.Time, error) {
	loc := base.Location()
	for _, layout := range exactLayouts {
		t, err := time.ParseInLocation(layout, text, loc)
		if err != nil {
			continue
		}
		if t.Year() == 0 {
			t = t.AddDate(base.Year(), 0, 0)
		}
		return t, nil
	}

	r, err := p.w.Parse(text, base)
	if err != nil {
		return time.Time{}, model.NewValidationError("time", "cannot parse %q: %v", text, err)
	}
	if r == nil {
		return time.Time{}, model.NewValidationError("time", "%v: %q", errNoTime, text)
	}
	return r.Time.In(loc), nil
}

func unitOf(unit string) time.Duration {
	switch strings.ToLower(unit) {
	case "ч", "час", "часа", "часов", "h", "hour", "hours":
		return time.Hour
	}
	return time.Minute
}
