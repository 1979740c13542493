package bot

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/example/algorecall/internal/config"
	"github.com/example/algorecall/internal/database"
	"github.com/example/algorecall/internal/excel"
	"github.com/example/algorecall/internal/scheduler"
	"github.com/example/algorecall/internal/session"
	"github.com/example/algorecall/internal/tracker"
	"github.com/example/algorecall/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmoiron/sqlx"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
	URL          string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			if button.URL != "" {
				keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonURL(button.Text, button.URL))
				continue
			}
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// telegramAPI is the part of *tgbotapi.BotAPI the bot uses
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// HintGenerator produces a nudge towards solving a problem
type HintGenerator interface {
	HintWithFallback(ctx context.Context, p *models.Problem) string
}

// Bot represents the Telegram bot application
type Bot struct {
	api       telegramAPI
	botAPI    *tgbotapi.BotAPI
	cfg       *config.Config
	config    *BotConfig
	db        *sqlx.DB
	tracker   *tracker.Tracker
	users     *database.UserRepository
	sessions  *session.Store
	importer  *excel.Importer
	hints     HintGenerator
	scheduler *scheduler.Scheduler
	client    *http.Client

	mu                 sync.Mutex
	awaitingFileUpload map[int64]bool
}

// Option customizes a Bot
type Option func(*Bot)

// WithHints enables the Hint button
func WithHints(h HintGenerator) Option {
	return func(b *Bot) { b.hints = h }
}

// WithBotConfig replaces the default bot settings
func WithBotConfig(c *BotConfig) Option {
	return func(b *Bot) { b.config = c }
}

// withAPI replaces the Telegram client, for tests
func withAPI(api telegramAPI) Option {
	return func(b *Bot) { b.api = api }
}

// New creates a new bot instance
func New(cfg *config.Config, db *sqlx.DB, tr *tracker.Tracker, opts ...Option) (*Bot, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is not established")
	}

	b := &Bot{
		cfg:                cfg,
		config:             DefaultConfig(),
		db:                 db,
		tracker:            tr,
		users:              database.NewUserRepository(db),
		sessions:           session.NewStore(),
		importer:           excel.NewImporter(tr),
		client:             &http.Client{Timeout: time.Minute},
		awaitingFileUpload: make(map[int64]bool),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.api == nil {
		if err := cfg.RequireBotToken(); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Start connects to Telegram and handles updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	botAPI, err := tgbotapi.NewBotAPI(b.cfg.BotToken)
	if err != nil {
		return fmt.Errorf("unable to create bot: %w", err)
	}
	b.botAPI = botAPI
	b.api = botAPI
	log.Printf("Authorized on account %s", botAPI.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.config.UpdateTimeout
	updates := botAPI.GetUpdatesChan(updateConfig)

	if b.cfg.EnableScheduler {
		if err := b.startScheduler(); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// Stop gracefully stops the bot
func (b *Bot) Stop() {
	if b.scheduler != nil {
		b.scheduler.Stop()
	}
	if b.botAPI != nil {
		b.botAPI.StopReceivingUpdates()
	}
	log.Println("Bot stopped")
}

func (b *Bot) startScheduler() error {
	log.Println("Starting reminder scheduler...")
	b.scheduler = scheduler.New(b.cfg, b.db, b)
	if err := b.scheduler.Start(); err != nil {
		return err
	}
	log.Println("Reminder scheduler started successfully")
	return nil
}

// SendReminders implements the scheduler.Notifier interface
func (b *Bot) SendReminders(userID int64, count int) error {
	// private chats share the user's ID
	msg := tgbotapi.NewMessage(userID, formatReminder(count))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "▶️ Start review", CallbackData: callbackStartReview}},
	})
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder: %w", err)
	}
	log.Printf("Sent reminder to user %d for %d problems", userID, count)
	return nil
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.cfg.IsAdmin(userID)
}

func (b *Bot) setAwaitingUpload(userID int64, waiting bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if waiting {
		b.awaitingFileUpload[userID] = true
	} else {
		delete(b.awaitingFileUpload, userID)
	}
}

func (b *Bot) isAwaitingUpload(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.awaitingFileUpload[userID]
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var err error
	switch {
	case update.CallbackQuery != nil:
		err = b.HandleCallback(ctx, update.CallbackQuery)
	case update.Message == nil || update.Message.From == nil:
		return
	case update.Message.IsCommand():
		err = b.HandleCommand(ctx, update.Message)
	case update.Message.Document != nil && b.isAwaitingUpload(update.Message.From.ID):
		err = b.handleDocument(ctx, update.Message)
	default:
		err = b.reply(update.Message.Chat.ID, "I don't understand. Use /help to see what I can do.")
	}
	if err != nil {
		log.Printf("Error handling update %d: %v", update.UpdateID, err)
	}
}

func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) error {
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (b *Bot) reply(chatID int64, text string) error {
	return b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

// MainMenuButtons returns the buttons for the main menu
func (b *Bot) MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "▶️ Review", CallbackData: callbackStartReview},
			{Text: "📅 Due today", CallbackData: callbackShowDue},
		},
		{
			{Text: "📚 All problems", CallbackData: callbackShowList},
			{Text: "📊 Statistics", CallbackData: callbackShowStats},
		},
	}
}
