package calc

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Fixed English numbering: formatting is deterministic regardless of the
// process locale.
var printer = message.NewPrinter(language.English)

// Currency formats an amount with 2 decimals and thousands separators.
func Currency(v float64) string {
	return printer.Sprintf("%.2f", v)
}

// Percent formats a ratio with 2 decimals and a trailing percent sign.
func Percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
