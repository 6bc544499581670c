package pricing

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// formatMoney renders an amount as "$1,234.56".
func formatMoney(v float64) string {
	return message.NewPrinter(language.English).Sprintf("$%.2f", v)
}
