// Package notify pushes end-of-run summaries to Telegram. The bots are
// one-shot cron processes, so this is send-only: no command handling.
package notify

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Notifier sends messages to one chat. A nil Notifier is valid and silently
// drops everything, so callers never need to branch on configuration.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// New connects to Telegram. Returns nil (not an error) when the token is
// empty: notifications are optional.
func New(token string, chatID int64) (*Notifier, error) {
	if token == "" || chatID == 0 {
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("notify: %w", err)
	}
	log.Info().Str("bot", bot.Self.UserName).Msg("Telegram notifier ready")
	return &Notifier{bot: bot, chatID: chatID}, nil
}

// Send pushes one Markdown message.
func (n *Notifier) Send(text string) {
	if n == nil || n.bot == nil {
		return
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := n.bot.Send(msg); err != nil {
		log.Warn().Err(err).Msg("Telegram send failed")
	}
}

// SessionSummary is what a bot reports after one run.
type SessionSummary struct {
	Bot            string
	Timestamp      string
	MarketsScanned int
	Opportunities  int
	Trades         int
	Live           bool
	BudgetLine     string
	Lines          []string // per-trade detail lines
}

// Format renders the summary as a Telegram Markdown message.
func (s SessionSummary) Format() string {
	var b strings.Builder
	mode := "🟡 dry run"
	if s.Live {
		mode = "🔴 live"
	}
	fmt.Fprintf(&b, "*%s* — %s (%s)\n", s.Bot, s.Timestamp, mode)
	fmt.Fprintf(&b, "Markets: %d | Opportunities: %d | Trades: %d\n",
		s.MarketsScanned, s.Opportunities, s.Trades)
	if s.BudgetLine != "" {
		fmt.Fprintf(&b, "%s\n", s.BudgetLine)
	}
	for _, line := range s.Lines {
		fmt.Fprintf(&b, "• %s\n", line)
	}
	return b.String()
}
