package repository

import (
	"strings"
	"testing"

	"CoinSentry/internal/domain/models"
	xlogger "CoinSentry/pkg/logger"
)

func notifierLogger(t *testing.T) *xlogger.Logger {
	t.Helper()
	log, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestTelegramDisabledWithoutToken(t *testing.T) {
	n := NewTelegramNotifier("", true, 0, notifierLogger(t))
	if n.IsEnabled() {
		t.Fatal("notifier must disable itself without a bot token")
	}
}

func TestFormatEventMessage(t *testing.T) {
	ev := &models.NotificationEvent{
		Position: models.Position{
			Symbol:     "BTC",
			Direction:  models.DirectionLong,
			EntryPrice: 50000,
		},
		Price:      51234.5,
		PnL:        1234.5,
		PnLPercent: 2.47,
		Signals: []models.Signal{
			{Kind: models.SignalVolumeAnomaly, Message: "volume 2.1x above average"},
			{Kind: models.SignalBreakout, Message: "price above weekly resistance"},
		},
	}

	msg := FormatEventMessage(ev)
	for _, want := range []string{
		"*BTC* LONG",
		"$51,234.50",
		"+2.47%",
		"• volume 2.1x above average",
		"• price above weekly resistance",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
	if !strings.HasPrefix(msg, "🟢") {
		t.Fatalf("positive pnl should render green, got %q", msg[:8])
	}

	ev.PnL = -10
	if !strings.HasPrefix(FormatEventMessage(ev), "🔴") {
		t.Fatal("negative pnl should render red")
	}
}

func TestFormatMarketMessage(t *testing.T) {
	md := &models.MarketSnapshot{
		Symbol:     "ETH",
		Provider:   models.ProviderBinance,
		Price:      3010.25,
		Change24h:  -3.2,
		Volume24h:  1500000000,
		High7d:     3200,
		Low7d:      2800,
		Volatility: 54.3,
		Support:    2850,
		Resistance: 3150,
	}

	msg := FormatMarketMessage(md)
	for _, want := range []string{
		"*ETH*",
		"binance",
		"$3,010.25",
		"-3.20%",
		"$1,500,000,000",
		"$2,800.00",
		"$3,200.00",
		"$2,850.00",
		"$3,150.00",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
}
