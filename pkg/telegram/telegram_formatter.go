package telegram

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// AlertType represents the condition that fired.
type AlertType string

const (
	PriceAbove  AlertType = "price_above"
	PriceBelow  AlertType = "price_below"
	VolumeAbove AlertType = "volume_above"
)

// FormatPriceAlert renders a triggered alert as a Telegram HTML message.
func FormatPriceAlert(alertType AlertType, ticker, name string, currentValue, targetValue float64, at time.Time) string {
	var builder strings.Builder

	var title, emoji string
	switch alertType {
	case PriceAbove:
		title = "Price rose above target"
		emoji = "📈"
	case PriceBelow:
		title = "Price fell below target"
		emoji = "📉"
	case VolumeAbove:
		title = "Volume spike"
		emoji = "📊"
	default:
		title = "Price alert"
		emoji = "🔔"
	}

	builder.WriteString(fmt.Sprintf("%s <b>%s</b> (%s) %s\n", emoji, html.EscapeString(ticker), html.EscapeString(name), title))
	if alertType == VolumeAbove {
		builder.WriteString(fmt.Sprintf("Volume: <b>%.0f</b> (target: %.0f)\n", currentValue, targetValue))
	} else {
		builder.WriteString(fmt.Sprintf("Price: <b>$%.2f</b> (target: $%.2f)\n", currentValue, targetValue))
	}
	builder.WriteString(fmt.Sprintf("<i>%s UTC</i>\n", at.UTC().Format("02 Jan 2006 15:04")))
	return builder.String()
}
