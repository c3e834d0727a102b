package common

import (
	"fmt"
	"strings"
	"time"
)

// CurrencyName is the unit balances are shown in
const CurrencyName = "coins"

// FormatBalance formats a balance amount with thousand separators
func FormatBalance(balance int64) string {
	str := fmt.Sprintf("%d", balance)
	negative := strings.HasPrefix(str, "-")
	if negative {
		str = str[1:]
	}

	n := len(str)
	if n <= 3 {
		if negative {
			return "-" + str
		}
		return str
	}

	var result strings.Builder
	if negative {
		result.WriteRune('-')
	}
	for i, digit := range str {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(digit)
	}

	return result.String()
}

// FormatMoney formats an amount with the currency name
func FormatMoney(amount int64) string {
	return fmt.Sprintf("%s %s", FormatBalance(amount), CurrencyName)
}

// FormatSignedMoney formats a net change with an explicit sign
func FormatSignedMoney(amount int64) string {
	if amount > 0 {
		return "+" + FormatMoney(amount)
	}
	return FormatMoney(amount)
}

// FormatDuration renders a cooldown as hours, minutes and seconds, dropping
// leading zero units
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "now"
	}
	d = d.Round(time.Second)

	hours := int(d / time.Hour)
	minutes := int(d%time.Hour) / int(time.Minute)
	seconds := int(d%time.Minute) / int(time.Second)

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// FormatCareer capitalizes a career id for display
func FormatCareer(id string) string {
	if id == "" {
		return id
	}
	return strings.ToUpper(id[:1]) + id[1:]
}

// FormatPercent renders a probability in [0, 1] as a percentage
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.0f%%", p*100)
}
