package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"CoinSentry/internal/domain/models"
	drepo "CoinSentry/internal/domain/repository"
	xhttp "CoinSentry/pkg/http"
	xlogger "CoinSentry/pkg/logger"
	"CoinSentry/pkg/util"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramNotifier delivers notification events as Markdown messages
// through the Bot API. OwnerID doubles as the chat id. A courtesy
// delay between consecutive sends keeps the bot under Telegram's
// per-second limits.
type TelegramNotifier struct {
	botToken  string
	enabled   bool
	sendDelay time.Duration
	client    *xhttp.Client
	log       *xlogger.Logger

	mu       sync.Mutex
	lastSend time.Time
}

// NewTelegramNotifier creates a Telegram notifier. It disables itself
// when no token is configured.
func NewTelegramNotifier(botToken string, enabled bool, sendDelay time.Duration, log *xlogger.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		botToken:  botToken,
		enabled:   enabled && botToken != "",
		sendDelay: sendDelay,
		client:    xhttp.NewClient(xhttp.WithTimeout(10 * time.Second)),
		log:       log,
	}
}

func (t *TelegramNotifier) Name() string { return "telegram" }

func (t *TelegramNotifier) IsEnabled() bool { return t.enabled }

// Send renders and delivers one event. Safe for concurrent use; the
// courtesy delay serializes actual sends.
func (t *TelegramNotifier) Send(ctx context.Context, ev *models.NotificationEvent) error {
	if !t.enabled {
		return nil
	}

	t.throttle()

	payload := map[string]interface{}{
		"chat_id":    ev.OwnerID,
		"text":       FormatEventMessage(ev),
		"parse_mode": "Markdown",
	}

	err := t.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    fmt.Sprintf("%s/bot%s/sendMessage", telegramAPIBase, t.botToken),
		Body:   payload,
	}, nil)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}

	t.log.Debug("telegram message sent",
		xlogger.String("chat", ev.OwnerID),
		xlogger.Int("signals", len(ev.Signals)))
	return nil
}

func (t *TelegramNotifier) throttle() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if wait := t.sendDelay - time.Since(t.lastSend); wait > 0 {
		time.Sleep(wait)
	}
	t.lastSend = time.Now()
}

// FormatEventMessage renders a signal batch for one position.
func FormatEventMessage(ev *models.NotificationEvent) string {
	pos := ev.Position
	emoji := "🟢"
	if ev.PnL < 0 {
		emoji = "🔴"
	}

	lines := []string{
		fmt.Sprintf("%s *%s* %s @ $%v", emoji, pos.Symbol, strings.ToUpper(string(pos.Direction)), util.Round(pos.EntryPrice, 2)),
		fmt.Sprintf("Price: *$%s*", util.FormatUSD(ev.Price, 2)),
		fmt.Sprintf("P&L: *$%s* (%s)", util.FormatUSD(ev.PnL, 2), util.FormatPct(ev.PnLPercent, 2)),
		"",
	}
	for _, s := range ev.Signals {
		lines = append(lines, "• "+s.Message)
	}
	return strings.Join(lines, "\n")
}

// FormatMarketMessage renders a market snapshot summary.
func FormatMarketMessage(md *models.MarketSnapshot) string {
	arrow := "🟢"
	if md.Change24h < 0 {
		arrow = "🔴"
	}

	return strings.Join([]string{
		fmt.Sprintf("📊 *%s* — source: _%s_", md.Symbol, md.Provider),
		fmt.Sprintf("Price: *$%s* %s", util.FormatUSD(md.Price, 2), arrow),
		fmt.Sprintf("24h change: *%s*", util.FormatPct(md.Change24h, 2)),
		fmt.Sprintf("24h volume: *$%s*", util.FormatUSD(md.Volume24h, 0)),
		fmt.Sprintf("Weekly range: *$%s* — *$%s*", util.FormatUSD(md.Low7d, 2), util.FormatUSD(md.High7d, 2)),
		fmt.Sprintf("Volatility (ann.): *%v%%*", util.Round(md.Volatility, 2)),
		fmt.Sprintf("📉 Support: *$%s*", util.FormatUSD(md.Support, 2)),
		fmt.Sprintf("📈 Resistance: *$%s*", util.FormatUSD(md.Resistance, 2)),
	}, "\n")
}

var _ drepo.Notifier = (*TelegramNotifier)(nil)
