package report

import (
	"fmt"
	"math"
	"strings"
)

// FormatPrice renders a USD price with precision that scales with magnitude.
func FormatPrice(v float64) string {
	switch {
	case v >= 1_000:
		return "$" + addCommas(fmt.Sprintf("%.2f", math.Round(v*100)/100))
	case v >= 1:
		return fmt.Sprintf("$%.2f", v)
	case v > 0:
		return fmt.Sprintf("$%.6f", v)
	}
	return "$0"
}

// FormatCompact renders large USD figures as $1.23B / $4.56M.
func FormatCompact(v float64) string {
	switch {
	case v >= 1_000_000_000:
		return fmt.Sprintf("$%.2fB", v/1_000_000_000)
	case v >= 1_000_000:
		return fmt.Sprintf("$%.2fM", v/1_000_000)
	}
	return "$" + addCommas(fmt.Sprintf("%.0f", v))
}

func FormatPercent(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

func addCommas(s string) string {
	parts := strings.SplitN(s, ".", 2)
	intPart := parts[0]
	n := len(intPart)
	if n <= 3 {
		if len(parts) == 2 {
			return intPart + "." + parts[1]
		}
		return intPart
	}
	var result []byte
	for i, c := range intPart {
		if i > 0 && (n-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}
	if len(parts) == 2 {
		return string(result) + "." + parts[1]
	}
	return string(result)
}
