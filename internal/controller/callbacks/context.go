package callbacks

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Liam-Lillieroth/MetaTask/internal/controller/callbacks/callbacktypes"
)

// HandlerContext содержит общие данные для обработки callback
type HandlerContext struct {
	Ctx        context.Context
	Bot        *bot.Bot
	Callback   *models.CallbackQuery
	Handler    *callbacktypes.Handler
	Message    *models.Message
	TelegramID int64
	ChatID     int64
}

// NewHandlerContext создаёт новый контекст обработчика
func NewHandlerContext(
	ctx context.Context,
	b *bot.Bot,
	callback *models.CallbackQuery,
	h *callbacktypes.Handler,
) *HandlerContext {
	msg := callback.Message.Message
	var chatID int64
	if msg != nil {
		chatID = msg.Chat.ID
	}

	return &HandlerContext{
		Ctx:        ctx,
		Bot:        b,
		Callback:   callback,
		Handler:    h,
		Message:    msg,
		TelegramID: callback.From.ID,
		ChatID:     chatID,
	}
}

// Actor - имя нажавшего кнопку пользователя для истории бронирования
func (hc *HandlerContext) Actor() string {
	return callbacktypes.Actor(&hc.Callback.From)
}

// Answer отвечает на callback query
func (hc *HandlerContext) Answer(text string) {
	hc.answer(text, false)
}

// AnswerAlert отвечает на callback query всплывающим окном
func (hc *HandlerContext) AnswerAlert(text string) {
	hc.answer(text, true)
}

func (hc *HandlerContext) answer(text string, alert bool) {
	_, err := hc.Bot.AnswerCallbackQuery(hc.Ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: hc.Callback.ID,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		hc.Handler.Logger.Warn("Failed to answer callback", zap.Error(err))
	}
}

// EditMessage редактирует сообщение, nil клавиатура убирает кнопки
func (hc *HandlerContext) EditMessage(text string, keyboard *models.InlineKeyboardMarkup) error {
	if hc.Message == nil {
		return ErrNoMessage
	}

	params := &bot.EditMessageTextParams{
		ChatID:    hc.ChatID,
		MessageID: hc.Message.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}
	_, err := hc.Bot.EditMessageText(hc.Ctx, params)

	// "message is not modified" - не настоящая ошибка
	if IsMessageNotModifiedError(err) {
		return nil
	}
	return err
}

// IsMessageNotModifiedError - ответ Telegram на правку без изменений
func IsMessageNotModifiedError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}
