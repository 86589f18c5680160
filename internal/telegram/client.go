// Package telegram sends a completion notification when a change report has
// been computed. Occupancy fits can run for a long time; the notifier lets a
// batch pipeline announce the headline numbers without anyone watching the
// terminal.
//
// Messages use MarkdownV2 and delivery is retried on transient failures.
package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/occutrend/occutrend/internal/trend"
)

// Client sends report notifications to a Telegram chat.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a Telegram client.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// SendReport notifies the chat that a change report is ready, with the
// headline summary per metric.
func (c *Client) SendReport(species string, report *trend.Report) error {
	msg := tgbotapi.NewMessage(c.chatID, formatReport(species, report))
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// formatReport renders the report headline as a MarkdownV2 message.
func formatReport(species string, report *trend.Report) string {
	var b strings.Builder

	b.WriteString("*Occupancy change report ready*\n\n")
	fmt.Fprintf(&b, "Species: %s\n", escapeMarkdownV2(species))
	fmt.Fprintf(&b, "Window: %s\n", escapeMarkdownV2(fmt.Sprintf("%d-%d", report.FirstYear, report.LastYear)))
	fmt.Fprintf(&b, "Posterior draws: %d\n\n", report.SampleSize)

	for _, kind := range trend.AllMetricKinds() {
		res, ok := report.Results[kind]
		if !ok {
			continue
		}
		s := res.Summary
		line := fmt.Sprintf("%s: %.3f (%.3f, %.3f)", kind, s.Mean, s.Lower, s.Upper)
		fmt.Fprintf(&b, "%s\n", escapeMarkdownV2(line))
	}

	if len(report.UnconvergedYears) > 0 {
		warning := fmt.Sprintf("%d year(s) did not converge", len(report.UnconvergedYears))
		fmt.Fprintf(&b, "\n⚠️ %s\n", escapeMarkdownV2(warning))
	}

	return b.String()
}

// escapeMarkdownV2 escapes the characters Telegram's MarkdownV2 parser
// treats as markup.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
