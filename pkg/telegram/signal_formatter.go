package telegram

import "fmt"

// FormatOrderSignal renders an entry/exit order signal for Telegram.
func FormatOrderSignal(signalType, side, code string, price float64, reason, tsJST string) string {
	emoji := "🟢"
	if side == "sell" {
		emoji = "🔴"
	}
	return fmt.Sprintf("%s *%s %s* `%s`\nPrice: %.1f\nReason: %s\nTime: %s",
		emoji, side, signalType, code, price, reason, tsJST)
}

// FormatPositionClosed renders a realized position summary for Telegram.
func FormatPositionClosed(code string, entryPrice, exitPrice float64, exitReason string) string {
	pnl := 0.0
	if entryPrice > 0 {
		pnl = (exitPrice/entryPrice - 1.0) * 100
	}
	return fmt.Sprintf("📕 Closed `%s`\nEntry: %.1f → Exit: %.1f (%+.2f%%)\nReason: %s",
		code, entryPrice, exitPrice, pnl, exitReason)
}
