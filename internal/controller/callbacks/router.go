package callbacks

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Liam-Lillieroth/MetaTask/internal/controller/callbacks/callbacktypes"
)

// Форматы callback data
const (
	ScheduleResource = "schedule:" // schedule:<resource_id>
	SuggestResource  = "suggest:"  // suggest:<resource_id>
	ConfirmBooking   = "confirm:"  // confirm:<booking_id>
	RejectBooking    = "reject:"   // reject:<booking_id>
	PickResource     = "pick:"     // pick:schedule | pick:suggest
	Noop             = "noop"
)

// Handler обрабатывает нажатия на inline кнопки
type Handler struct {
	*callbacktypes.Handler
}

func NewHandler(deps *callbacktypes.Handler) *Handler {
	return &Handler{Handler: deps}
}

// HandleCallbackQuery - точка входа для всех callback query
func (h *Handler) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	Route(ctx, b, update.CallbackQuery, h.Handler)
}

// Route распределяет callback query по соответствующим обработчикам
func Route(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	data := callback.Data

	h.Logger.Info("Routing callback",
		zap.String("data", data),
		zap.Int64("user_id", callback.From.ID),
		zap.String("user_name", callback.From.FirstName))

	hc := NewHandlerContext(ctx, b, callback, h)
	switch {
	case data == Noop:
		hc.Answer("")
	case strings.HasPrefix(data, PickResource):
		handlePick(hc, strings.TrimPrefix(data, PickResource))
	case strings.HasPrefix(data, ScheduleResource):
		withID(hc, data, handleSchedule)
	case strings.HasPrefix(data, SuggestResource):
		withID(hc, data, handleSuggestPick)
	case strings.HasPrefix(data, ConfirmBooking):
		withID(hc, data, handleConfirm)
	case strings.HasPrefix(data, RejectBooking):
		withID(hc, data, handleReject)
	default:
		h.Logger.Warn("Unknown callback", zap.String("data", data))
		hc.AnswerAlert(ErrorMessage(ErrInvalidFormat))
	}
}

// ParseIDFromCallback извлекает UUID из callback data
// Например: "confirm:6f1c...": 6f1c...
func ParseIDFromCallback(data string) (uuid.UUID, error) {
	_, raw, ok := strings.Cut(data, ":")
	if !ok {
		return uuid.Nil, ErrInvalidFormat
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrInvalidFormat
	}
	return id, nil
}

func withID(hc *HandlerContext, data string, next func(*HandlerContext, uuid.UUID)) {
	id, err := ParseIDFromCallback(data)
	if err != nil {
		hc.Handler.Logger.Error("Failed to parse callback ID", zap.Error(err), zap.String("data", data))
		hc.AnswerAlert(ErrorMessage(err))
		return
	}
	next(hc, id)
}
