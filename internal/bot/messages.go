package bot

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/example/algorecall/internal/excel"
	"github.com/example/algorecall/internal/session"
	"github.com/example/algorecall/internal/tracker"
	"github.com/example/algorecall/pkg/models"
)

// Review card actions, encoded in callback data as "rv:<action>:<problem id>"
const (
	reviewPrefix     = "rv"
	actionRemembered = "r"
	actionForgot     = "f"
	actionSkip       = "s"
	actionHint       = "h"
)

var errBadAddArgs = errors.New("expected: topic | name | link")

// parseAddArgs splits "topic | name | link"
func parseAddArgs(args string) (topic, name, link string, err error) {
	parts := strings.Split(args, "|")
	if len(parts) != 3 {
		return "", "", "", errBadAddArgs
	}
	topic = strings.TrimSpace(parts[0])
	name = strings.TrimSpace(parts[1])
	link = strings.TrimSpace(parts[2])
	if topic == "" || name == "" || link == "" {
		return "", "", "", errBadAddArgs
	}
	return topic, name, link, nil
}

func reviewCallback(action, problemID string) string {
	return reviewPrefix + ":" + action + ":" + problemID
}

func parseReviewCallback(data string) (action, problemID string, ok bool) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) != 3 || parts[0] != reviewPrefix || parts[2] == "" {
		return "", "", false
	}
	switch parts[1] {
	case actionRemembered, actionForgot, actionSkip, actionHint:
		return parts[1], parts[2], true
	}
	return "", "", false
}

func reviewKeyboard(p *models.Problem, withHint bool) [][]MenuButton {
	rows := [][]MenuButton{
		{
			{Text: "✅ Remembered", CallbackData: reviewCallback(actionRemembered, p.ID)},
			{Text: "❌ Forgot", CallbackData: reviewCallback(actionForgot, p.ID)},
		},
	}
	second := []MenuButton{{Text: "⏭ Skip", CallbackData: reviewCallback(actionSkip, p.ID)}}
	if withHint {
		second = append([]MenuButton{{Text: "💡 Hint", CallbackData: reviewCallback(actionHint, p.ID)}}, second...)
	}
	rows = append(rows, second)
	if p.Link != "" {
		rows = append(rows, []MenuButton{{Text: "🔗 Open problem", URL: p.Link}})
	}
	return rows
}

// shortID is the id prefix shown to users; /delete and /history accept it
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}

// relativeDay describes d as seen from today
func relativeDay(today, d models.Date) string {
	days := today.DaysUntil(d)
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days > 1:
		return fmt.Sprintf("in %d days", days)
	case days == -1:
		return "1 day overdue"
	default:
		return fmt.Sprintf("%d days overdue", -days)
	}
}

// userError drops the package prefix of a validation error
func userError(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, tracker.ErrInvalidProblem.Error()+": "); i >= 0 {
		return msg[i+len(tracker.ErrInvalidProblem.Error())+2:]
	}
	return msg
}

func formatReminder(count int) string {
	return fmt.Sprintf("🔔 You have %s due for review today. Tap below to start.",
		pluralize(count, "problem", "problems"))
}

func formatProblemCard(p *models.Problem, current, total int, progress float64, today models.Date) string {
	var text strings.Builder
	fmt.Fprintf(&text, "Problem %d/%d (%.0f%% done)\n\n", current, total, progress)
	fmt.Fprintf(&text, "📚 %s\n", p.Topic)
	fmt.Fprintf(&text, "🧩 %s\n", p.Name)
	fmt.Fprintf(&text, "🔗 %s\n\n", p.Link)
	if p.HasProgress() {
		fmt.Fprintf(&text, "Streak %d, last interval %s.\n", p.CorrectStreak, pluralize(p.IntervalDays, "day", "days"))
	} else {
		text.WriteString("Not remembered yet.\n")
	}
	if p.NextReviewDate.Before(today) {
		fmt.Fprintf(&text, "Due since %s (%s).\n", p.NextReviewDate, relativeDay(today, p.NextReviewDate))
	}
	text.WriteString("\nSolve it again, then tell me how it went.")
	return text.String()
}

func formatProblemList(title string, problems []models.Problem, today models.Date, limit int) string {
	var text strings.Builder
	fmt.Fprintf(&text, "%s (%d)\n\n", title, len(problems))
	for i, p := range problems {
		if limit > 0 && i == limit {
			fmt.Fprintf(&text, "... and %d more\n", len(problems)-limit)
			break
		}
		fmt.Fprintf(&text, "• [%s] %s  #%s\n   next: %s (%s), streak %d\n",
			p.Topic, p.Name, shortID(p.ID), p.NextReviewDate, relativeDay(today, p.NextReviewDate), p.CorrectStreak)
	}
	return text.String()
}

func formatReviewResult(p *models.Problem, remembered bool, today models.Date) string {
	if remembered {
		return fmt.Sprintf("✅ Nice! Streak %d. Next review %s (%s).",
			p.CorrectStreak, relativeDay(today, p.NextReviewDate), p.NextReviewDate)
	}
	return fmt.Sprintf("🔁 No worries, %q comes back %s.", p.Name, relativeDay(today, p.NextReviewDate))
}

func formatSessionSummary(s *session.ReviewSession) string {
	remembered, forgot, skipped := s.Counts()
	text := fmt.Sprintf("🏁 Session complete!\n\n✅ Remembered: %d\n❌ Forgot: %d", remembered, forgot)
	if skipped > 0 {
		text += fmt.Sprintf("\n⏭ Skipped: %d", skipped)
	}
	return text
}

func formatStats(stats *models.Statistics) string {
	var text strings.Builder
	text.WriteString("📊 Your progress\n\n")
	fmt.Fprintf(&text, "Total problems: %d\n", stats.Total)
	fmt.Fprintf(&text, "Due today: %d\n", stats.Due)
	fmt.Fprintf(&text, "In progress (streak > 0): %d\n", stats.WithProgress)
	fmt.Fprintf(&text, "Reviews in the last 7 days: %d", stats.ReviewsLast7Days)
	if stats.ReviewsLast7Days > 0 {
		fmt.Fprintf(&text, " (%.0f%% remembered)", stats.SuccessRate())
	}
	text.WriteString("\n")

	if len(stats.ByTopic) > 0 {
		text.WriteString("\nBy topic:\n")
		for _, topic := range sortedKeys(stats.ByTopic) {
			fmt.Fprintf(&text, "• %s: %d\n", topic, stats.ByTopic[topic])
		}
	}
	return text.String()
}

func formatHistory(p *models.Problem, logs []models.ReviewLog, limit int) string {
	var text strings.Builder
	fmt.Fprintf(&text, "🕘 %s\n", p.Name)
	fmt.Fprintf(&text, "Added %s, next review %s\n\n", p.CreatedAt.Format(models.DateLayout), p.NextReviewDate)
	if len(logs) == 0 {
		text.WriteString("No reviews yet.")
		return text.String()
	}
	for i, l := range logs {
		if limit > 0 && i == limit {
			fmt.Fprintf(&text, "... and %d earlier\n", len(logs)-limit)
			break
		}
		mark := "❌"
		if l.Remembered {
			mark = "✅"
		}
		fmt.Fprintf(&text, "%s %s  streak %d, interval %s\n",
			mark, l.ReviewedOn, l.CorrectStreak, pluralize(l.IntervalDays, "day", "days"))
	}
	return text.String()
}

func formatImportResult(r *excel.ImportResult) string {
	var text strings.Builder
	text.WriteString("📥 Import finished\n\n")
	fmt.Fprintf(&text, "Rows processed: %d\n", r.TotalProcessed)
	fmt.Fprintf(&text, "Added: %d\n", r.Created)
	fmt.Fprintf(&text, "Already tracked: %d\n", r.Skipped)
	if len(r.Errors) > 0 {
		fmt.Fprintf(&text, "Errors: %d\n", len(r.Errors))
		for i, e := range r.Errors {
			if i == 10 {
				fmt.Fprintf(&text, "... and %d more\n", len(r.Errors)-10)
				break
			}
			text.WriteString("• " + e + "\n")
		}
	}
	return text.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
