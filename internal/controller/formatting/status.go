package formatting

import "github.com/Liam-Lillieroth/MetaTask/internal/model"

// StatusDisplay представляет отображение статуса
type StatusDisplay struct {
	Emoji string
	Text  string
}

var bookingStatuses = map[model.BookingStatus]StatusDisplay{
	model.BookingStatusPending:    {"⏳", "Ожидает одобрения"},
	model.BookingStatusConfirmed:  {"✅", "Подтверждена"},
	model.BookingStatusInProgress: {"▶️", "Идёт"},
	model.BookingStatusCompleted:  {"✔️", "Завершена"},
	model.BookingStatusCancelled:  {"❌", "Отменена"},
	model.BookingStatusRejected:   {"🚫", "Отклонена"},
}

// GetBookingStatusDisplay возвращает emoji и текст для статуса бронирования
func GetBookingStatusDisplay(status model.BookingStatus) StatusDisplay {
	if display, ok := bookingStatuses[status]; ok {
		return display
	}
	return StatusDisplay{"❓", "Неизвестно"}
}

var resourceKinds = map[model.ResourceKind]string{
	model.ResourceKindTeam:      "👥",
	model.ResourceKindRoom:      "🚪",
	model.ResourceKindEquipment: "🛠",
	model.ResourceKindCustom:    "📦",
}

// KindEmoji возвращает иконку вида ресурса
func KindEmoji(kind model.ResourceKind) string {
	if e, ok := resourceKinds[kind]; ok {
		return e
	}
	return "📦"
}

var rejectReasons = map[string]string{
	string(model.ReasonBlackout):            "период закрыт",
	string(model.ReasonOutsideAvailability): "вне рабочего времени",
	string(model.ReasonCapacityExceeded):    "нет свободной ёмкости",
}

// ReasonText переводит код причины отказа, остальные причины выводятся как есть
func ReasonText(reason string) string {
	if text, ok := rejectReasons[reason]; ok {
		return text
	}
	return reason
}
