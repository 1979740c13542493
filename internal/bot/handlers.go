package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/example/algorecall/internal/session"
	"github.com/example/algorecall/internal/tracker"
	"github.com/example/algorecall/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Constants for callback data
const (
	callbackStartReview = "menu:review"
	callbackShowDue     = "menu:due"
	callbackShowList    = "menu:list"
	callbackShowStats   = "menu:stats"
)

const defaultNotificationHour = 9

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	var err error
	switch message.Command() {
	case "start":
		err = b.handleStart(ctx, message)
	case "help":
		err = b.handleHelp(message)
	case "add":
		err = b.handleAdd(ctx, message)
	case "due":
		err = b.handleDue(ctx, message.Chat.ID, message.From.ID)
	case "review":
		err = b.handleReview(ctx, message.Chat.ID, message.From.ID)
	case "list":
		err = b.handleList(ctx, message.Chat.ID, message.From.ID)
	case "delete":
		err = b.handleDelete(ctx, message)
	case "stats":
		err = b.handleStats(ctx, message.Chat.ID, message.From.ID)
	case "history":
		err = b.handleHistory(ctx, message)
	case "notify":
		err = b.handleNotifyCommand(ctx, message)
	case "time":
		err = b.handleTimeCommand(ctx, message)
	case "remind":
		err = b.handleRemind(ctx, message)
	case "import":
		err = b.handleImportCommand(message)
	case "cancel":
		err = b.handleCancel(message)
	default:
		err = b.handleUnknownCommand(message)
	}
	return err
}

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) error {
	user := &models.User{
		ID:                  message.From.ID,
		Username:            message.From.UserName,
		FirstName:           message.From.FirstName,
		NotificationEnabled: true,
		NotificationHour:    defaultNotificationHour,
	}
	if err := b.users.Upsert(ctx, user); err != nil {
		return err
	}

	text := fmt.Sprintf("👋 Welcome, %s!\n\n", user.DisplayName()) +
		"I help you re-solve coding interview problems on a spaced-repetition schedule.\n\n" +
		"🔹 How it works:\n" +
		"1. Add a problem with /add\n" +
		"2. Come back when it is due and try to solve it again\n" +
		"3. Tell me whether you remembered the solution\n" +
		"4. Problems you remember come back less and less often\n\n" +
		"Use /help to see all commands."

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	return b.sendMessage(msg)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) error {
	text := "📖 Commands\n\n" +
		"📚 Problems:\n" +
		"/add topic | name | link - track a new problem\n" +
		"/list - all tracked problems\n" +
		"/delete <id or name> - stop tracking a problem\n" +
		"/history <id or name> - past reviews of a problem\n\n" +
		"🔄 Reviews:\n" +
		"/due - problems due today\n" +
		"/review - start a review session\n" +
		"/stats - your progress\n\n" +
		"⚙️ Reminders:\n" +
		"/notify on|off - turn daily reminders on or off\n" +
		"/time <hour> - set the reminder hour (0-23)\n" +
		"/remind - check for due problems now\n\n" +
		"🗓 Schedule:\n" +
		"1st success: 1 day, 2nd: 3 days, then the interval grows 2.2x.\n" +
		"Forgetting a problem resets it to 1 day."

	return b.reply(message.Chat.ID, text)
}

func (b *Bot) handleAdd(ctx context.Context, message *tgbotapi.Message) error {
	topic, name, link, err := parseAddArgs(message.CommandArguments())
	if err != nil {
		return b.reply(message.Chat.ID, "Usage: /add topic | name | link\n\n"+
			"Example:\n/add Arrays | Two Sum | https://leetcode.com/problems/two-sum/")
	}

	p, err := b.tracker.AddProblem(ctx, message.From.ID, topic, name, link)
	switch {
	case errors.Is(err, tracker.ErrInvalidProblem):
		return b.reply(message.Chat.ID, "❌ "+userError(err))
	case errors.Is(err, tracker.ErrDuplicate):
		return b.reply(message.Chat.ID, fmt.Sprintf("You already track %q.", name))
	case err != nil:
		return err
	}

	text := fmt.Sprintf("✅ Added %q (%s).\nFirst review %s (%s).",
		p.Name, p.Topic, relativeDay(b.tracker.Today(), p.NextReviewDate), p.NextReviewDate)
	return b.reply(message.Chat.ID, text)
}

func (b *Bot) handleDue(ctx context.Context, chatID, userID int64) error {
	queue, err := b.tracker.DueQueue(ctx, userID)
	if err != nil {
		return err
	}
	if len(queue) == 0 {
		return b.replyNothingDue(ctx, chatID, userID)
	}

	msg := tgbotapi.NewMessage(chatID, formatProblemList("📅 Due today", queue, b.tracker.Today(), b.config.ListLimit))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "▶️ Start review", CallbackData: callbackStartReview}},
	})
	return b.sendMessage(msg)
}

func (b *Bot) replyNothingDue(ctx context.Context, chatID, userID int64) error {
	text := "🎉 Nothing is due today."
	upcoming, err := b.tracker.Upcoming(ctx, userID)
	if err != nil {
		return err
	}
	if len(upcoming) > 0 {
		next := upcoming[0]
		text += fmt.Sprintf("\nNext up: %q %s (%s).",
			next.Name, relativeDay(b.tracker.Today(), next.NextReviewDate), next.NextReviewDate)
	} else {
		text += "\nAdd a problem with /add."
	}
	return b.reply(chatID, text)
}

func (b *Bot) handleReview(ctx context.Context, chatID, userID int64) error {
	queue, err := b.tracker.DueQueue(ctx, userID)
	if err != nil {
		return err
	}
	if len(queue) == 0 {
		b.sessions.Delete(userID)
		return b.replyNothingDue(ctx, chatID, userID)
	}

	s := session.New(userID, queue, time.Now())
	b.sessions.Put(s)
	return b.showCurrent(chatID, s)
}

// showCurrent sends the card of the current problem, or the summary when the session is over
func (b *Bot) showCurrent(chatID int64, s *session.ReviewSession) error {
	p, ok := s.Current()
	if !ok {
		b.sessions.Delete(s.UserID)
		msg := tgbotapi.NewMessage(chatID, formatSessionSummary(s))
		msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
		return b.sendMessage(msg)
	}

	current, total := s.Position()
	msg := tgbotapi.NewMessage(chatID, formatProblemCard(p, current, total, s.Progress(), b.tracker.Today()))
	msg.ReplyMarkup = createKeyboard(reviewKeyboard(p, b.hints != nil))
	msg.DisableWebPagePreview = true
	return b.sendMessage(msg)
}

func (b *Bot) handleList(ctx context.Context, chatID, userID int64) error {
	problems, err := b.tracker.Problems(ctx, userID)
	if err != nil {
		return err
	}
	if len(problems) == 0 {
		return b.reply(chatID, "You are not tracking any problems yet. Add one with /add.")
	}
	return b.reply(chatID, formatProblemList("📚 Your problems", problems, b.tracker.Today(), b.config.ListLimit))
}

func (b *Bot) handleDelete(ctx context.Context, message *tgbotapi.Message) error {
	ref := message.CommandArguments()
	if strings.TrimSpace(ref) == "" {
		return b.reply(message.Chat.ID, "Usage: /delete <id or name>")
	}

	p, err := b.tracker.Resolve(ctx, message.From.ID, ref)
	if errors.Is(err, tracker.ErrNotFound) {
		return b.reply(message.Chat.ID, fmt.Sprintf("No problem matches %q.", strings.TrimSpace(ref)))
	}
	if err != nil {
		return err
	}
	if err := b.tracker.Delete(ctx, message.From.ID, p.ID); err != nil {
		return err
	}
	return b.reply(message.Chat.ID, fmt.Sprintf("🗑 Stopped tracking %q.", p.Name))
}

func (b *Bot) handleStats(ctx context.Context, chatID, userID int64) error {
	stats, err := b.tracker.Stats(ctx, userID)
	if err != nil {
		return err
	}
	return b.reply(chatID, formatStats(stats))
}

func (b *Bot) handleHistory(ctx context.Context, message *tgbotapi.Message) error {
	ref := message.CommandArguments()
	if strings.TrimSpace(ref) == "" {
		return b.reply(message.Chat.ID, "Usage: /history <id or name>")
	}

	p, err := b.tracker.Resolve(ctx, message.From.ID, ref)
	if errors.Is(err, tracker.ErrNotFound) {
		return b.reply(message.Chat.ID, fmt.Sprintf("No problem matches %q.", strings.TrimSpace(ref)))
	}
	if err != nil {
		return err
	}
	logs, err := b.tracker.History(ctx, message.From.ID, p.ID)
	if err != nil {
		return err
	}
	return b.reply(message.Chat.ID, formatHistory(p, logs, b.config.HistoryLimit))
}

// ensureUser returns the stored user, creating it with default settings when missing
func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*models.User, error) {
	if err := b.users.EnsureExists(ctx, from.ID); err != nil {
		return nil, err
	}
	return b.users.GetByID(ctx, from.ID)
}

func (b *Bot) handleNotifyCommand(ctx context.Context, message *tgbotapi.Message) error {
	var enabled bool
	switch strings.ToLower(strings.TrimSpace(message.CommandArguments())) {
	case "on":
		enabled = true
	case "off":
		enabled = false
	default:
		return b.reply(message.Chat.ID, "Please specify on or off: /notify <on|off>")
	}

	user, err := b.ensureUser(ctx, message.From)
	if err != nil {
		return err
	}
	if err := b.users.SetNotifications(ctx, user.ID, enabled, user.NotificationHour); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	text := fmt.Sprintf("✅ Reminders %s", boolToEnabledString(enabled))
	if enabled {
		text += fmt.Sprintf(" at %d:00", user.NotificationHour)
	}
	return b.reply(message.Chat.ID, text)
}

func (b *Bot) handleTimeCommand(ctx context.Context, message *tgbotapi.Message) error {
	args := strings.TrimSpace(message.CommandArguments())
	if args == "" {
		return b.reply(message.Chat.ID, "Please specify an hour (0-23): /time <hour>")
	}
	hour, err := strconv.Atoi(args)
	if err != nil || hour < 0 || hour > 23 {
		return b.reply(message.Chat.ID, "Please specify a valid hour (0-23)")
	}

	user, err := b.ensureUser(ctx, message.From)
	if err != nil {
		return err
	}
	if err := b.users.SetNotifications(ctx, user.ID, user.NotificationEnabled, hour); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	text := fmt.Sprintf("✅ Reminder time set to %d:00", hour)
	if !b.cfg.InNotificationWindow(hour) {
		text += fmt.Sprintf("\n⚠️ Reminders are only sent between %d:00 and %d:00.",
			b.cfg.NotificationStartHour, b.cfg.NotificationEndHour)
	}
	return b.reply(message.Chat.ID, text)
}

func (b *Bot) handleRemind(ctx context.Context, message *tgbotapi.Message) error {
	if b.scheduler == nil {
		return b.reply(message.Chat.ID, "Reminders are disabled on this bot.")
	}
	queue, err := b.tracker.DueQueue(ctx, message.From.ID)
	if err != nil {
		return err
	}
	if len(queue) == 0 {
		return b.replyNothingDue(ctx, message.Chat.ID, message.From.ID)
	}
	return b.scheduler.RunManualCheck(ctx, message.From.ID)
}

func (b *Bot) handleImportCommand(message *tgbotapi.Message) error {
	if !b.isAdmin(message.From.ID) {
		return b.reply(message.Chat.ID, "This command is only available for administrators.")
	}
	b.setAwaitingUpload(message.From.ID, true)
	return b.reply(message.Chat.ID, "Send me an .xlsx or .csv file with the columns\n"+
		"Topic | Name | Link\n\n"+
		"The first row is treated as a header. Use /cancel to abort.")
}

func (b *Bot) handleCancel(message *tgbotapi.Message) error {
	b.setAwaitingUpload(message.From.ID, false)
	b.sessions.Delete(message.From.ID)
	return b.reply(message.Chat.ID, "OK, cancelled.")
}

func (b *Bot) handleDocument(ctx context.Context, message *tgbotapi.Message) error {
	doc := message.Document
	ext := strings.ToLower(filepath.Ext(doc.FileName))
	if ext != ".xlsx" && ext != ".csv" {
		return b.reply(message.Chat.ID, "Please send an .xlsx or .csv file.")
	}
	b.setAwaitingUpload(message.From.ID, false)

	url, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		return fmt.Errorf("failed to get file URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, b.config.ImportTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", doc.FileName, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: status %d", doc.FileName, resp.StatusCode)
	}

	result, err := b.importer.ImportReader(ctx, message.From.ID, resp.Body, ext)
	if err != nil {
		log.Printf("Import of %s failed: %v", doc.FileName, err)
		return b.reply(message.Chat.ID, "❌ Could not read the file: "+err.Error())
	}
	return b.reply(message.Chat.ID, formatImportResult(result))
}

func (b *Bot) handleUnknownCommand(message *tgbotapi.Message) error {
	return b.reply(message.Chat.ID, "Unknown command. Use /help to see the available commands.")
}

// boolToEnabledString converts a boolean to a human-readable enabled/disabled string
func boolToEnabledString(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

// HandleCallback handles inline button presses
func (b *Bot) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if callback == nil || callback.Message == nil || callback.From == nil {
		return fmt.Errorf("invalid callback data: required fields are missing")
	}

	// Always answer the callback query to remove the loading state
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		log.Printf("Warning: Failed to answer callback: %v", err)
	}

	chatID := callback.Message.Chat.ID
	userID := callback.From.ID

	switch callback.Data {
	case callbackStartReview:
		return b.handleReview(ctx, chatID, userID)
	case callbackShowDue:
		return b.handleDue(ctx, chatID, userID)
	case callbackShowList:
		return b.handleList(ctx, chatID, userID)
	case callbackShowStats:
		return b.handleStats(ctx, chatID, userID)
	}

	action, problemID, ok := parseReviewCallback(callback.Data)
	if !ok {
		return b.reply(chatID, "⚠️ Unknown action")
	}
	switch action {
	case actionRemembered:
		return b.handleOutcome(ctx, chatID, userID, problemID, true)
	case actionForgot:
		return b.handleOutcome(ctx, chatID, userID, problemID, false)
	case actionSkip:
		return b.handleSkip(chatID, userID, problemID)
	default:
		return b.handleHint(ctx, chatID, userID, problemID)
	}
}

// activeSession returns the user's session, telling the user when there is none
func (b *Bot) activeSession(chatID, userID int64) (*session.ReviewSession, bool) {
	s, ok := b.sessions.Get(userID)
	if !ok {
		if err := b.reply(chatID, "This review session has ended. Start a new one with /review."); err != nil {
			log.Printf("Error replying to user %d: %v", userID, err)
		}
	}
	return s, ok
}

func (b *Bot) handleOutcome(ctx context.Context, chatID, userID int64, problemID string, remembered bool) error {
	s, ok := b.activeSession(chatID, userID)
	if !ok {
		return nil
	}
	defer s.Hold()()

	card, ok := s.Current()
	if !ok || card.ID != problemID {
		return b.reply(chatID, "This card was already answered.")
	}

	// the card stays current until the review is stored
	p, err := b.tracker.Review(ctx, userID, card, remembered)
	switch {
	case errors.Is(err, tracker.ErrConcurrentReview), errors.Is(err, tracker.ErrNotFound):
		if s.SkipProblem(problemID) != nil {
			return b.reply(chatID, "This card was already answered.")
		}
		text := "This problem was just reviewed from another device."
		if errors.Is(err, tracker.ErrNotFound) {
			text = "This problem is no longer tracked."
		}
		if err := b.reply(chatID, text); err != nil {
			return err
		}
	case err != nil:
		if replyErr := b.reply(chatID, "⚠️ Could not save the review, please try again."); replyErr != nil {
			log.Printf("Error replying to user %d: %v", userID, replyErr)
		}
		return err
	default:
		if s.Answer(problemID, remembered) != nil {
			return b.reply(chatID, "This card was already answered.")
		}
		if err := b.reply(chatID, formatReviewResult(p, remembered, b.tracker.Today())); err != nil {
			return err
		}
	}
	return b.showCurrent(chatID, s)
}

func (b *Bot) handleSkip(chatID, userID int64, problemID string) error {
	s, ok := b.activeSession(chatID, userID)
	if !ok {
		return nil
	}
	defer s.Hold()()

	if err := s.SkipProblem(problemID); err != nil {
		return b.reply(chatID, "This card was already answered.")
	}
	return b.showCurrent(chatID, s)
}

func (b *Bot) handleHint(ctx context.Context, chatID, userID int64, problemID string) error {
	if b.hints == nil {
		return b.reply(chatID, "Hints are not enabled on this bot.")
	}
	p, err := b.tracker.Get(ctx, userID, problemID)
	if errors.Is(err, tracker.ErrNotFound) {
		return b.reply(chatID, "This problem is no longer tracked.")
	}
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, b.config.HintTimeout)
	defer cancel()
	return b.reply(chatID, "💡 "+b.hints.HintWithFallback(ctx, p))
}
