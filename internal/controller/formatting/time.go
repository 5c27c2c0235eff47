package formatting

import (
	"fmt"
	"time"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
)

// FormatDateTime форматирует дату и время
func FormatDateTime(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}

// FormatDate форматирует дату с днём недели
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%s, %s", GetWeekdayShortName(t.Weekday()), t.Format("02.01.2006"))
}

// FormatInterval форматирует интервал, для одного дня без повтора даты
func FormatInterval(iv model.Interval, loc *time.Location) string {
	start, end := iv.Start.In(loc), iv.End.In(loc)
	if sameDay(start, end) || (end.Hour() == 0 && end.Minute() == 0 && end.Sub(start) <= 24*time.Hour) {
		return fmt.Sprintf("%s %s-%s", FormatDate(start), start.Format("15:04"), end.Format("15:04"))
	}
	return fmt.Sprintf("%s - %s", FormatDateTime(start), FormatDateTime(end))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// FormatDuration форматирует длительность
func FormatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes < 60 {
		return fmt.Sprintf("%d мин", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%d ч", hours)
	}
	return fmt.Sprintf("%d ч %d мин", hours, mins)
}

var weekdayShort = [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

// GetWeekdayShortName возвращает краткое название дня недели на русском
func GetWeekdayShortName(weekday time.Weekday) string {
	if weekday >= 0 && int(weekday) < len(weekdayShort) {
		return weekdayShort[weekday]
	}
	return "?"
}
