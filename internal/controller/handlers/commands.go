package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Liam-Lillieroth/MetaTask/internal/controller/callbacks"
	"github.com/Liam-Lillieroth/MetaTask/internal/controller/formatting"
	"github.com/Liam-Lillieroth/MetaTask/internal/model"
	"github.com/Liam-Lillieroth/MetaTask/internal/scheduling"
)

// PendingPageSize - сколько заявок показывает /pending за раз
const PendingPageSize = 10

const helpText = "📚 Справка по командам:\n\n" +
	"/resources - Список ресурсов и часы работы сегодня\n" +
	"/schedule - Расписание ресурса на сегодня\n" +
	"/pending - Заявки, ожидающие решения\n" +
	"/suggest - Подобрать свободное время\n" +
	"/cancel - Прервать текущий диалог\n" +
	"/help - Показать эту справку"

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.Logger.Info("Bot started by user",
		zap.Int64("telegram_id", update.Message.From.ID),
		zap.String("username", update.Message.From.Username))

	h.sendMessage(ctx, b, update.Message.Chat.ID,
		"👋 Бот бронирования ресурсов.\n\n"+
			"Здесь можно посмотреть расписание, подобрать свободное время "+
			"и разобрать заявки, ожидающие одобрения.\n\n"+helpText, nil)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText, nil)
}

// HandleResources обрабатывает команду /resources
func (h *Handlers) HandleResources(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	resources, err := h.ResourceService.ListResources(ctx, false)
	if err != nil {
		h.Logger.Error("Failed to list resources", zap.Error(err))
		h.sendError(ctx, b, chatID, "❌ Не удалось загрузить ресурсы. Попробуйте позже.")
		return
	}
	if len(resources) == 0 {
		h.sendMessage(ctx, b, chatID, "Активных ресурсов нет", nil)
		return
	}

	from, to := h.Today()
	lines := make([]string, 0, len(resources)+1)
	lines = append(lines, "📋 <b>Ресурсы</b>\n")
	for _, res := range resources {
		var open []model.Interval
		if ws, err := scheduling.ParseAvailability(res.Availability); err == nil {
			open = ws.OpenIntervals(from, to)
		} else {
			h.Logger.Warn("Bad availability document", zap.String("resource_id", res.ID.String()), zap.Error(err))
		}
		lines = append(lines, formatting.ResourceLine(res, open, h.Location))
	}
	h.sendMessage(ctx, b, chatID, strings.Join(lines, "\n"), nil)
}

// HandleSchedule обрабатывает команду /schedule
func (h *Handlers) HandleSchedule(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.showPicker(ctx, b, update, callbacks.ModeSchedule)
}

// HandleSuggest обрабатывает команду /suggest, дальше диалог продолжается в HandleTextMessage
func (h *Handlers) HandleSuggest(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.showPicker(ctx, b, update, callbacks.ModeSuggest)
}

func (h *Handlers) showPicker(ctx context.Context, b *bot.Bot, update *models.Update, mode string) {
	if update.Message == nil {
		return
	}
	text, kb, err := callbacks.ResourcePicker(ctx, h.Handler, mode)
	if err != nil {
		h.Logger.Error("Failed to list resources", zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Не удалось загрузить ресурсы. Попробуйте позже.")
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, text, kb)
}

// HandlePending обрабатывает команду /pending: по сообщению с кнопками на заявку
func (h *Handlers) HandlePending(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	pending, err := h.BookingService.List(ctx, model.BookingFilter{
		Statuses: []model.BookingStatus{model.BookingStatusPending},
		Limit:    PendingPageSize,
	})
	if err != nil {
		h.Logger.Error("Failed to list pending bookings", zap.Error(err))
		h.sendError(ctx, b, chatID, "❌ Не удалось загрузить заявки. Попробуйте позже.")
		return
	}
	if len(pending) == 0 {
		h.sendMessage(ctx, b, chatID, "🎉 Заявок, ожидающих решения, нет", nil)
		return
	}

	names := make(map[uuid.UUID]string)
	for _, booking := range pending {
		name, ok := names[booking.ResourceID]
		if !ok {
			name = callbacks.ResourceName(ctx, h.Handler, booking.ResourceID)
			names[booking.ResourceID] = name
		}
		h.sendMessage(ctx, b, chatID,
			formatting.BookingCard(booking, name, h.Location),
			callbacks.ApprovalKeyboard(booking.ID))
	}
}

// HandleCancel прерывает текущий диалог
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.StateManager.ClearState(update.Message.From.ID)
	h.sendMessage(ctx, b, update.Message.Chat.ID, "Диалог прерван", nil)
}
