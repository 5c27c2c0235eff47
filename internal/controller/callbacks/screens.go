package callbacks

import (
	"context"
	"fmt"
	"html"

	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Liam-Lillieroth/MetaTask/internal/controller/callbacks/callbacktypes"
	"github.com/Liam-Lillieroth/MetaTask/internal/controller/formatting"
	"github.com/Liam-Lillieroth/MetaTask/internal/controller/keyboard"
	"github.com/Liam-Lillieroth/MetaTask/internal/controller/state"
	"github.com/Liam-Lillieroth/MetaTask/internal/model"
)

// Режимы выбора ресурса
const (
	ModeSchedule = "schedule"
	ModeSuggest  = "suggest"
)

var pickTitles = map[string]string{
	ModeSchedule: "🗓 Расписание на сегодня. Выберите ресурс:",
	ModeSuggest:  "🔎 Подбор времени. Выберите ресурс:",
}

// ResourcePicker строит экран выбора ресурса для режима mode
func ResourcePicker(ctx context.Context, h *callbacktypes.Handler, mode string) (string, *models.InlineKeyboardMarkup, error) {
	resources, err := h.ResourceService.ListResources(ctx, false)
	if err != nil {
		return "", nil, err
	}
	if len(resources) == 0 {
		return "Активных ресурсов нет", nil, nil
	}

	prefix := ScheduleResource
	if mode == ModeSuggest {
		prefix = SuggestResource
	}
	buttons := make([]models.InlineKeyboardButton, 0, len(resources))
	for _, res := range resources {
		buttons = append(buttons, keyboard.Button(
			formatting.KindEmoji(res.Kind)+" "+res.Name,
			prefix+res.ID.String(),
		))
	}
	return pickTitles[mode], keyboard.NewBuilder().Grid(2, buttons...).Build(), nil
}

// ApprovalKeyboard - кнопки решения по бронированию
func ApprovalKeyboard(bookingID uuid.UUID) *models.InlineKeyboardMarkup {
	return keyboard.NewBuilder().Row(
		keyboard.Button("✅ Подтвердить", ConfirmBooking+bookingID.String()),
		keyboard.Button("🚫 Отклонить", RejectBooking+bookingID.String()),
	).Build()
}

// ResourceName возвращает имя ресурса или id, если найти не удалось
func ResourceName(ctx context.Context, h *callbacktypes.Handler, id uuid.UUID) string {
	res, err := h.ResourceService.GetResource(ctx, id)
	if err != nil {
		return id.String()
	}
	return res.Name
}

func handlePick(hc *HandlerContext, mode string) {
	if _, ok := pickTitles[mode]; !ok {
		hc.AnswerAlert(ErrorMessage(ErrInvalidFormat))
		return
	}
	text, kb, err := ResourcePicker(hc.Ctx, hc.Handler, mode)
	if err != nil {
		hc.Handler.Logger.Error("Failed to list resources", zap.Error(err))
		hc.AnswerAlert(ErrorMessage(err))
		return
	}
	hc.Answer("")
	if err := hc.EditMessage(text, kb); err != nil {
		hc.Handler.Logger.Error("Failed to edit message", zap.Error(err))
	}
}

func handleSchedule(hc *HandlerContext, resourceID uuid.UUID) {
	h := hc.Handler
	res, err := h.ResourceService.GetResource(hc.Ctx, resourceID)
	if err != nil {
		hc.AnswerAlert(ErrorMessage(err))
		return
	}
	from, to := h.Today()
	bookings, err := h.ReportService.Schedule(hc.Ctx, resourceID, from, to)
	if err != nil {
		h.Logger.Error("Failed to load schedule", zap.String("resource_id", resourceID.String()), zap.Error(err))
		hc.AnswerAlert(ErrorMessage(err))
		return
	}

	kb := keyboard.NewBuilder().Row(keyboard.Button("◀️ К ресурсам", PickResource+ModeSchedule)).Build()
	hc.Answer("")
	if err := hc.EditMessage(formatting.ScheduleText(res.Name, from, bookings, h.Location), kb); err != nil {
		h.Logger.Error("Failed to edit message", zap.Error(err))
	}
}

func handleSuggestPick(hc *HandlerContext, resourceID uuid.UUID) {
	h := hc.Handler
	res, err := h.ResourceService.GetResource(hc.Ctx, resourceID)
	if err != nil {
		hc.AnswerAlert(ErrorMessage(err))
		return
	}

	h.StateManager.SetState(hc.TelegramID, state.StateSuggestTime)
	h.StateManager.SetData(hc.TelegramID, state.KeyResourceID, res.ID.String())
	h.StateManager.SetData(hc.TelegramID, state.KeyResourceName, res.Name)

	hc.Answer("")
	text := fmt.Sprintf("🔎 <b>%s</b>\n\n"+
		"Когда нужно? Например:\n"+
		"• 14.01.2030 10:00 на 2 часа\n"+
		"• завтра в 15:00\n"+
		"• next monday 9am for 30m\n\n"+
		"Для отмены используйте /cancel", html.EscapeString(res.Name))
	if err := hc.EditMessage(text, nil); err != nil {
		h.Logger.Error("Failed to edit message", zap.Error(err))
	}
}

func handleConfirm(hc *HandlerContext, bookingID uuid.UUID) {
	decide(hc, bookingID, "✅ Подтверждено", func(ctx context.Context, actor string) (*model.BookingRequest, error) {
		return hc.Handler.BookingService.Confirm(ctx, bookingID, actor)
	})
}

func handleReject(hc *HandlerContext, bookingID uuid.UUID) {
	decide(hc, bookingID, "🚫 Отклонено", func(ctx context.Context, actor string) (*model.BookingRequest, error) {
		return hc.Handler.BookingService.Reject(ctx, bookingID, actor, "rejected in telegram")
	})
}

// decide применяет решение по заявке и заменяет карточку результатом
func decide(
	hc *HandlerContext,
	bookingID uuid.UUID,
	done string,
	op func(ctx context.Context, actor string) (*model.BookingRequest, error),
) {
	h := hc.Handler
	booking, err := op(hc.Ctx, hc.Actor())
	if err != nil {
		h.Logger.Warn("Booking decision failed",
			zap.String("booking_id", bookingID.String()),
			zap.String("actor", hc.Actor()),
			zap.Error(err))
		hc.AnswerAlert(ErrorMessage(err))
		return
	}

	hc.Answer(done)
	card := formatting.BookingCard(booking, ResourceName(hc.Ctx, h, booking.ResourceID), h.Location)
	if err := hc.EditMessage(card, nil); err != nil {
		h.Logger.Error("Failed to edit message", zap.Error(err))
	}
}
