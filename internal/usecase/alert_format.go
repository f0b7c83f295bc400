package usecase

import (
	"fmt"
	"strings"

	"github.com/vitos/breakout_monitor/internal/domain"
)

const timeLayout = "2006-01-02 15:04:05"

func crossDirection(c domain.Cross, interval string) string {
	switch c {
	case domain.CrossedAboveHigh:
		return fmt.Sprintf("above %s candle high", strings.ToUpper(interval))
	case domain.CrossedBelowLow:
		return fmt.Sprintf("below %s candle low", strings.ToUpper(interval))
	default:
		return "unknown breakout"
	}
}

func gainEmoji(gain float64) string {
	switch {
	case gain > 0:
		return "📈"
	case gain < 0:
		return "📉"
	default:
		return "➡️"
	}
}

// FormatAlertLog renders the plain-text line written to the log.
func FormatAlertLog(a *domain.Alert, interval string) string {
	var b strings.Builder
	b.WriteString("ALERT: ")
	if a.Persistent {
		b.WriteString("PERSISTENT ")
	}
	if a.HighProbability() {
		b.WriteString("HIGH-PROBABILITY ")
	}
	fmt.Fprintf(&b, "%s (%s) crossed %s | current %.6f | reference %.6f | 24h %+.2f%%",
		a.Symbol, a.Tier, crossDirection(a.Cross, interval), a.Price, a.Reference, a.Gain24h)
	if s := a.Setup; s != nil {
		fmt.Fprintf(&b, " | range %.0f%% of avg | OI %+.1f%% | move %.1f%% | funding %+.2f%%",
			s.VolatilityRatio, s.OIChangePct, s.PriceMovePct, s.FundingRatePct)
	}
	return b.String()
}

// FormatAlertMessage renders the HTML push message.
func FormatAlertMessage(a *domain.Alert, interval string) string {
	if a.HighProbability() {
		return formatHighProbability(a, interval)
	}

	star := ""
	if a.Persistent {
		star = "🌟"
	}
	emoji := "🚀"
	refLabel := "Previous High"
	if a.Cross == domain.CrossedBelowLow {
		emoji = "🔻"
		refLabel = "Previous Low"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s%s Futures Breakout</b>\n\n", star, emoji)
	fmt.Fprintf(&b, "<b>Symbol:</b> %s %s\n", a.Symbol, star)
	fmt.Fprintf(&b, "<b>Tier:</b> %s\n", a.Tier)
	fmt.Fprintf(&b, "<b>Action:</b> Crossed %s\n", crossDirection(a.Cross, interval))
	fmt.Fprintf(&b, "<b>Current Price:</b> $%.6f\n", a.Price)
	fmt.Fprintf(&b, "<b>%s:</b> $%.6f\n", refLabel, a.Reference)
	fmt.Fprintf(&b, "<b>24h Gain:</b> %s %+.2f%%\n", gainEmoji(a.Gain24h), a.Gain24h)
	fmt.Fprintf(&b, "<b>Time:</b> %s", a.CreatedAt.Format(timeLayout))
	return b.String()
}

func formatHighProbability(a *domain.Alert, interval string) string {
	s := a.Setup
	crowd := "crowded longs"
	if s.FundingRatePct < 0 {
		crowd = "crowded shorts"
	}

	var b strings.Builder
	b.WriteString("<b>🔥 HIGH-PROBABILITY BREAKOUT</b>\n\n")
	fmt.Fprintf(&b, "<b>Symbol:</b> %s", a.Symbol)
	if a.Persistent {
		b.WriteString(" 🌟")
	}
	b.WriteString("\n\n<b>Why this matters:</b>\n")
	fmt.Fprintf(&b, "• 🌀 <b>Volatility compressed</b> to %.0f%% of recent average\n", s.VolatilityRatio)
	fmt.Fprintf(&b, "• 📊 <b>OI surged %+.1f%%</b> (price flat: %.1f%%)\n", s.OIChangePct, s.PriceMovePct)
	fmt.Fprintf(&b, "• 💸 <b>Funding: %+.2f%%</b> → %s, squeeze risk\n\n", s.FundingRatePct, crowd)
	fmt.Fprintf(&b, "<b>Trigger:</b> Broke %s at <b>$%.6f</b> (ref $%.6f)\n", crossDirection(a.Cross, interval), a.Price, a.Reference)
	fmt.Fprintf(&b, "<b>24h Gain:</b> %s %+.2f%%\n", gainEmoji(a.Gain24h), a.Gain24h)
	fmt.Fprintf(&b, "<b>Time:</b> %s", a.CreatedAt.Format(timeLayout))
	return b.String()
}

// FormatStartupMessage renders the notice sent when the monitor starts.
func FormatStartupMessage(cfg MonitorConfig) string {
	return fmt.Sprintf("<b>✅ Breakout monitor started</b>\nWatchlist: %d large / %d mid / %d low %s pairs\nSetup mode: %s",
		cfg.Tiers.Large, cfg.Tiers.Mid, cfg.Tiers.Low, cfg.QuoteAsset, cfg.SetupMode)
}
