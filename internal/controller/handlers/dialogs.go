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
	"github.com/Liam-Lillieroth/MetaTask/internal/controller/state"
	"github.com/Liam-Lillieroth/MetaTask/internal/service"
)

// HandleTextMessage обрабатывает текст вне команд по текущему шагу диалога
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	telegramID := update.Message.From.ID
	switch h.StateManager.GetState(telegramID) {
	case state.StateSuggestTime:
		h.handleSuggestTimeStep(ctx, b, update)
	default:
		h.sendMessage(ctx, b, update.Message.Chat.ID, "Не понимаю. Список команд: /help", nil)
	}
}

// handleSuggestTimeStep разбирает желаемое время и отвечает подобранными слотами
func (h *Handlers) handleSuggestTimeStep(ctx context.Context, b *bot.Bot, update *models.Update) {
	telegramID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	rawID, _ := h.StateManager.GetString(telegramID, state.KeyResourceID)
	resourceID, err := uuid.Parse(rawID)
	if err != nil {
		h.Logger.Warn("Suggest dialog without resource", zap.Int64("telegram_id", telegramID))
		h.StateManager.ClearState(telegramID)
		h.sendError(ctx, b, chatID, "❌ Диалог устарел. Начните заново: /suggest")
		return
	}
	name, _ := h.StateManager.GetString(telegramID, state.KeyResourceName)

	preferred, err := h.parser.Parse(update.Message.Text, h.Now().In(h.Location))
	if err != nil {
		h.Logger.Info("Unparsed suggest time",
			zap.Int64("telegram_id", telegramID),
			zap.String("text", update.Message.Text),
			zap.Error(err))
		h.sendError(ctx, b, chatID, "❌ Не понял время. Попробуйте, например: 14.01.2030 10:00 на 2 часа\n\nДля отмены: /cancel")
		return
	}

	slots, err := h.SuggestionService.Suggest(ctx, resourceID, service.SuggestRequest{Preferred: preferred})
	if err != nil {
		h.Logger.Error("Failed to suggest slots",
			zap.String("resource_id", resourceID.String()),
			zap.Error(err))
		h.sendError(ctx, b, chatID, callbacks.ErrorMessage(err))
		return
	}

	h.StateManager.ClearState(telegramID)
	h.sendMessage(ctx, b, chatID, formatting.SuggestionsText(name, preferred, slots, h.Location), nil)
}
