package formatting

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
)

// Сообщения отправляются с ParseModeHTML, поэтому пользовательский текст экранируется.

// ResourceLine - одна строка списка ресурсов
func ResourceLine(res *model.Resource, openToday []model.Interval, loc *time.Location) string {
	hours := "закрыто"
	if len(openToday) > 0 {
		parts := make([]string, 0, len(openToday))
		for _, iv := range openToday {
			parts = append(parts, fmt.Sprintf("%s-%s", iv.Start.In(loc).Format("15:04"), iv.End.In(loc).Format("15:04")))
		}
		hours = strings.Join(parts, ", ")
	}
	return fmt.Sprintf("%s <b>%s</b> · мест: %d · сегодня: %s",
		KindEmoji(res.Kind), html.EscapeString(res.Name), res.Capacity, hours)
}

// BookingCard - подробное описание бронирования
func BookingCard(b *model.BookingRequest, resourceName string, loc *time.Location) string {
	status := GetBookingStatusDisplay(b.Status)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s <b>%s</b>\n", status.Emoji, html.EscapeString(titleOf(b)))
	fmt.Fprintf(&sb, "📍 %s\n", html.EscapeString(resourceName))
	fmt.Fprintf(&sb, "🕒 %s (%s)\n", FormatInterval(b.Interval, loc), FormatDuration(b.Interval.Duration()))
	fmt.Fprintf(&sb, "👤 %s\n", html.EscapeString(b.Requester))
	fmt.Fprintf(&sb, "Статус: %s", status.Text)
	if b.StatusReason != "" {
		fmt.Fprintf(&sb, " (%s)", html.EscapeString(ReasonText(b.StatusReason)))
	}
	return sb.String()
}

// ScheduleText - расписание ресурса на день
func ScheduleText(resourceName string, day time.Time, bookings []*model.BookingRequest, loc *time.Location) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🗓 <b>%s</b> на %s\n\n", html.EscapeString(resourceName), FormatDate(day.In(loc)))
	if len(bookings) == 0 {
		sb.WriteString("Бронирований нет")
		return sb.String()
	}
	for _, b := range bookings {
		fmt.Fprintf(&sb, "%s %s-%s %s · %s\n",
			GetBookingStatusDisplay(b.Status).Emoji,
			b.Interval.Start.In(loc).Format("15:04"),
			b.Interval.End.In(loc).Format("15:04"),
			html.EscapeString(titleOf(b)),
			html.EscapeString(b.Requester),
		)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// SuggestionsText - список предложенных слотов
func SuggestionsText(resourceName string, preferred model.Interval, slots []model.Interval, loc *time.Location) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔎 <b>%s</b>, запрошено %s\n\n", html.EscapeString(resourceName), FormatInterval(preferred, loc))
	if len(slots) == 0 {
		sb.WriteString("Свободных слотов не найдено")
		return sb.String()
	}
	for i, slot := range slots {
		mark := ""
		if slot.Equal(preferred) {
			mark = " ⭐️"
		}
		fmt.Fprintf(&sb, "%d. %s%s\n", i+1, FormatInterval(slot, loc), mark)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func titleOf(b *model.BookingRequest) string {
	if b.Title != "" {
		return b.Title
	}
	return "Без названия"
}
