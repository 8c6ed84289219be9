package game

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var chipPrinter = message.NewPrinter(language.English)

// FormatChips renders n with thousands separators, e.g. 14,000.
func FormatChips(n int64) string {
	return chipPrinter.Sprintf("%d", n)
}
