package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// FormatAlert formats a failure alert for Telegram HTML parse mode.
func FormatAlert(title string, err error, symbols []string, at time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🚨 <b>%s</b> | %s\n\n", html.EscapeString(title), at.UTC().Format("2006-01-02 15:04:05")))
	if err != nil {
		b.WriteString(fmt.Sprintf("error: %s\n", html.EscapeString(err.Error())))
	}
	if len(symbols) > 0 {
		b.WriteString(fmt.Sprintf("symbols: %d (%s)\n", len(symbols), html.EscapeString(strings.Join(symbols, ", "))))
	}
	return b.String()
}
