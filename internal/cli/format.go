// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatCost formats a USD cost value for tables. Small values keep enough
// precision to stay distinguishable from zero.
func FormatCost(cost float64) string {
	if cost >= 1000 {
		return "$" + FormatNumber(int64(math.Round(cost)))
	}
	if cost >= 100 {
		return fmt.Sprintf("$%.0f", cost)
	}
	if cost >= 10 {
		return fmt.Sprintf("$%.1f", cost)
	}
	if cost != 0 && cost < 0.01 {
		return fmt.Sprintf("$%.4f", cost)
	}
	return fmt.Sprintf("$%.2f", cost)
}

// FormatExactCost formats a cost with the four decimal places used for
// per-generation amounts.
func FormatExactCost(cost float64) string {
	return fmt.Sprintf("$%.4f", cost)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatAge formats how long ago t was relative to now.
// e.g., 45s -> "45s ago", 3725s -> "1h 2m ago"
func FormatAge(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	secs := int64(now.Sub(t).Seconds())
	if secs < 0 {
		secs = 0
	}

	hours := secs / 3600
	mins := (secs % 3600) / 60

	switch {
	case hours >= 48:
		return fmt.Sprintf("%dd ago", hours/24)
	case hours > 0:
		return fmt.Sprintf("%dh %dm ago", hours, mins)
	case mins > 0:
		return fmt.Sprintf("%dm ago", mins)
	default:
		return fmt.Sprintf("%ds ago", secs)
	}
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
