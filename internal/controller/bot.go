package controller

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Liam-Lillieroth/MetaTask/internal/controller/callbacks"
	"github.com/Liam-Lillieroth/MetaTask/internal/controller/callbacks/callbacktypes"
	"github.com/Liam-Lillieroth/MetaTask/internal/controller/handlers"
	"github.com/Liam-Lillieroth/MetaTask/internal/controller/state"
	"github.com/Liam-Lillieroth/MetaTask/internal/service"
)

// Services - сервисы, которыми пользуется бот
type Services struct {
	Resources *service.ResourceService
	Bookings  *service.BookingService
	Suggest   *service.SuggestionService
	Reports   *service.ReportService
}

type BotController struct {
	bot             *bot.Bot
	handlers        *handlers.Handlers
	callbackHandler *callbacks.Handler
	logger          *zap.Logger
}

// NewBotController создаёт бота. loc - часовой пояс, в котором показывается время.
func NewBotController(token string, svc Services, loc *time.Location, logger *zap.Logger) (*BotController, error) {
	if loc == nil {
		loc = time.UTC
	}
	deps := &callbacktypes.Handler{
		ResourceService:   svc.Resources,
		BookingService:    svc.Bookings,
		SuggestionService: svc.Suggest,
		ReportService:     svc.Reports,
		StateManager:      state.NewManager(),
		Logger:            logger.Named("bot"),
		Location:          loc,
		Now:               time.Now,
	}

	c := &BotController{
		handlers:        handlers.NewHandlers(deps),
		callbackHandler: callbacks.NewHandler(deps),
		logger:          deps.Logger,
	}

	b, err := bot.New(token, bot.WithDefaultHandler(c.handlers.HandleTextMessage))
	if err != nil {
		return nil, err
	}
	c.bot = b
	return c, nil
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handlers.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handlers.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/resources", bot.MatchTypeExact, c.handlers.HandleResources)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/schedule", bot.MatchTypeExact, c.handlers.HandleSchedule)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/pending", bot.MatchTypeExact, c.handlers.HandlePending)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/suggest", bot.MatchTypeExact, c.handlers.HandleSuggest)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypeExact, c.handlers.HandleCancel)

	// Обработчик нажатий на inline кнопки
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, c.callbackHandler.HandleCallbackQuery)

	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "resources", Description: "📋 Ресурсы"},
		{Command: "schedule", Description: "🗓 Расписание на сегодня"},
		{Command: "pending", Description: "⏳ Заявки на одобрение"},
		{Command: "suggest", Description: "🔎 Подобрать время"},
		{Command: "cancel", Description: "✖️ Прервать диалог"},
		{Command: "help", Description: "❓ Справка по командам"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set")
	return nil
}

// Start запускает long polling и блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}
