package scheduling

import (
	"fmt"
	"sort"
	"time"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
)

const dateLayout = "2006-01-02"

// span - окно [start, end) в минутах внутри суток
type span struct {
	start model.ClockTime
	end   model.ClockTime
}

// WeeklySchedule - разобранный документ доступности ресурса
type WeeklySchedule struct {
	Location   *time.Location
	AlwaysOpen bool

	windows       [7][]span
	blackoutDates map[string]bool
}

// AlwaysAvailable возвращает расписание без ограничений
func AlwaysAvailable() *WeeklySchedule {
	return &WeeklySchedule{Location: time.UTC, AlwaysOpen: true, blackoutDates: map[string]bool{}}
}

// ParseAvailability превращает документ доступности в WeeklySchedule.
// Пустой документ - доступно всегда. Неизвестные ключи пропускаются.
func ParseAvailability(doc map[string]any) (*WeeklySchedule, error) {
	ws := AlwaysAvailable()
	if len(doc) == 0 {
		return ws, nil
	}

	if tz, ok := doc["timezone"]; ok {
		name, ok := tz.(string)
		if !ok {
			return nil, model.NewValidationError("availability.timezone", "must be a string")
		}
		loc, err := time.LoadLocation(name)
		if err != nil {
			return nil, model.NewValidationError("availability.timezone", "unknown timezone %q", name)
		}
		ws.Location = loc
	}

	if raw, ok := doc["blackout_dates"]; ok {
		list, ok := raw.([]any)
		if !ok {
			return nil, model.NewValidationError("availability.blackout_dates", "must be a list of dates")
		}
		for _, item := range list {
			s, _ := item.(string)
			if _, err := time.Parse(dateLayout, s); err != nil {
				return nil, model.NewValidationError("availability.blackout_dates", "invalid date %v", item)
			}
			ws.blackoutDates[s] = true
		}
	}

	_, hasDays := doc["working_days"]
	_, hasStart := doc["start_hour"]
	_, hasEnd := doc["end_hour"]
	if hasDays || hasStart || hasEnd {
		ws.AlwaysOpen = false
		days := allWeekdays()
		if hasDays {
			parsed, err := model.WeekdaysValue(doc["working_days"])
			if err != nil {
				return nil, model.NewValidationError("availability.working_days", "%v", err)
			}
			days = parsed
		}
		startHour, endHour := 0, 24
		if hasStart {
			h, err := model.IntValue(doc["start_hour"])
			if err != nil || h < 0 || h > 24 {
				return nil, model.NewValidationError("availability.start_hour", "must be an integer hour 0..24")
			}
			startHour = h
		}
		if hasEnd {
			h, err := model.IntValue(doc["end_hour"])
			if err != nil || h < 0 || h > 24 {
				return nil, model.NewValidationError("availability.end_hour", "must be an integer hour 0..24")
			}
			endHour = h
		}
		if endHour <= startHour {
			return nil, model.NewValidationError("availability.end_hour", "must be after start_hour")
		}
		ws.addWindow(days, model.ClockAt(startHour, 0), model.ClockAt(endHour, 0))
	}

	if raw, ok := doc["windows"]; ok {
		list, ok := raw.([]any)
		if !ok {
			return nil, model.NewValidationError("availability.windows", "must be a list")
		}
		ws.AlwaysOpen = false
		for i, item := range list {
			w, ok := item.(map[string]any)
			if !ok {
				return nil, model.NewValidationError("availability.windows", "window %d must be an object", i)
			}
			days, err := model.WeekdaysValue(w["days"])
			if err != nil {
				return nil, model.NewValidationError("availability.windows", "window %d: %v", i, err)
			}
			start, err1 := clock(w["start"])
			end, err2 := clock(w["end"])
			if err1 != nil || err2 != nil || end <= start {
				return nil, model.NewValidationError("availability.windows", "window %d: invalid start/end", i)
			}
			ws.addWindow(days, start, end)
		}
	}
	return ws, nil
}

// ScheduleFromRule строит расписание из одного окна правила availability
func ScheduleFromRule(cfg model.AvailabilityConfig) *WeeklySchedule {
	ws := &WeeklySchedule{Location: cfg.Location(), blackoutDates: map[string]bool{}}
	ws.addWindow(cfg.Days, cfg.StartTime, cfg.EndTime)
	return ws
}

func clock(v any) (model.ClockTime, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("must be HH:MM")
	}
	return model.ParseClockTime(s)
}

func allWeekdays() []time.Weekday {
	return []time.Weekday{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday}
}

func (ws *WeeklySchedule) addWindow(days []time.Weekday, start, end model.ClockTime) {
	for _, d := range days {
		ws.windows[d] = append(ws.windows[d], span{start: start, end: end})
	}
}

// IsBlackoutDate - локальный календарный день t закрыт
func (ws *WeeklySchedule) IsBlackoutDate(t time.Time) bool {
	return ws.blackoutDates[t.In(ws.Location).Format(dateLayout)]
}

// HitsBlackoutDate - iv задевает хотя бы один закрытый день
func (ws *WeeklySchedule) HitsBlackoutDate(iv model.Interval) bool {
	if len(ws.blackoutDates) == 0 {
		return false
	}
	for day := ws.dayStart(iv.Start); day.Before(iv.End); day = day.AddDate(0, 0, 1) {
		if ws.blackoutDates[day.Format(dateLayout)] {
			return true
		}
	}
	return false
}

// Permits - iv целиком лежит в рабочих часах
func (ws *WeeklySchedule) Permits(iv model.Interval) bool {
	if ws.HitsBlackoutDate(iv) {
		return false
	}
	if ws.AlwaysOpen {
		return true
	}
	// Соседние дни склеиваются, поэтому бронь 22:00-02:00 помещается в окна "00:00"-"24:00"
	for _, open := range ws.openSpans(ws.dayStart(iv.Start), iv.End) {
		if open.Contains(iv) {
			return true
		}
	}
	return false
}

// OpenIntervals возвращает склеенные открытые интервалы каждого локального дня в [from, to)
func (ws *WeeklySchedule) OpenIntervals(from, to time.Time) []model.Interval {
	var out []model.Interval
	for _, open := range ws.openSpans(ws.dayStart(from), to) {
		if open.End.After(from) && open.Start.Before(to) {
			out = append(out, open)
		}
	}
	return out
}

// OpenHours возвращает число рабочих часов в локальный день date
func (ws *WeeklySchedule) OpenHours(date time.Time) float64 {
	day := ws.dayStart(date)
	var total time.Duration
	for _, open := range ws.openSpans(day, day.AddDate(0, 0, 1)) {
		total += open.Duration()
	}
	return total.Hours()
}

func (ws *WeeklySchedule) dayStart(t time.Time) time.Time {
	local := t.In(ws.Location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, ws.Location)
}

// openSpans перечисляет открытые интервалы локальных дней от from до дня,
// содержащего to, склеивая соприкасающиеся и пересекающиеся окна.
func (ws *WeeklySchedule) openSpans(from, to time.Time) []model.Interval {
	var spans []model.Interval
	for day := from; day.Before(to); day = day.AddDate(0, 0, 1) {
		if ws.blackoutDates[day.Format(dateLayout)] {
			continue
		}
		y, m, d := day.Date()
		if ws.AlwaysOpen {
			spans = append(spans, model.Interval{Start: day, End: day.AddDate(0, 0, 1)})
			continue
		}
		for _, w := range ws.windows[day.Weekday()] {
			spans = append(spans, model.Interval{
				Start: time.Date(y, m, d, 0, int(w.start), 0, 0, ws.Location),
				End:   time.Date(y, m, d, 0, int(w.end), 0, 0, ws.Location),
			})
		}
	}
	return mergeIntervals(spans)
}

func mergeIntervals(in []model.Interval) []model.Interval {
	if len(in) < 2 {
		return in
	}
	sort.Slice(in, func(i, j int) bool { return in[i].Start.Before(in[j].Start) })
	out := []model.Interval{in[0]}
	for _, iv := range in[1:] {
		last := &out[len(out)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}
