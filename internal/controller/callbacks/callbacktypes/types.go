package callbacktypes

import (
	"fmt"
	"time"

	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Liam-Lillieroth/MetaTask/internal/controller/state"
	"github.com/Liam-Lillieroth/MetaTask/internal/service"
)

// Handler содержит общие зависимости команд и callback handlers
type Handler struct {
	ResourceService   *service.ResourceService
	BookingService    *service.BookingService
	SuggestionService *service.SuggestionService
	ReportService     *service.ReportService
	StateManager      *state.Manager
	Logger            *zap.Logger

	// Часовой пояс, в котором бот показывает и читает время
	Location *time.Location
	Now      func() time.Time
}

// Today возвращает границы текущего дня в часовом поясе бота
func (h *Handler) Today() (time.Time, time.Time) {
	now := h.Now().In(h.Location)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, h.Location)
	return start, start.AddDate(0, 0, 1)
}

// Actor - имя пользователя Telegram для истории бронирования
func Actor(user *models.User) string {
	if user == nil {
		return "telegram"
	}
	if user.Username != "" {
		return "telegram:@" + user.Username
	}
	return fmt.Sprintf("telegram:%d", user.ID)
}
