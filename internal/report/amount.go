package report

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// currencyCodes are dollar denominations written around the number, longest
// first so "usdt" is not cut down to "t".
var currencyCodes = []string{"usdt", "usdc", "usd", "us"}

var amountSuffixes = []struct {
	suffix string
	mult   float64
}{
	{"thousand", 1e3},
	{"million", 1e6},
	{"billion", 1e9},
	{"mn", 1e6},
	{"bn", 1e9},
	{"k", 1e3},
	{"m", 1e6},
	{"b", 1e9},
}

// ParseAmount extracts the numeric magnitude of a free-form amount string
// such as "$5.2M", "€3k", "10,000,000" or "5M USDT". Currency symbols and
// dollar codes are ignored. It never fails: anything that is not a finite
// non-negative number yields 0.
func ParseAmount(s string) float64 {
	clean := strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Sc, r) || unicode.IsSpace(r) || r == ',' || r == '+' {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
	for _, code := range currencyCodes {
		if strings.HasPrefix(clean, code) {
			clean = strings.TrimPrefix(clean, code)
			break
		}
	}
	for _, code := range currencyCodes[:3] {
		if strings.HasSuffix(clean, code) {
			clean = strings.TrimSuffix(clean, code)
			break
		}
	}
	if clean == "" {
		return 0
	}

	mult := 1.0
	for _, sfx := range amountSuffixes {
		if strings.HasSuffix(clean, sfx.suffix) {
			clean = strings.TrimSuffix(clean, sfx.suffix)
			mult = sfx.mult
			break
		}
	}

	// ParseFloat accepts "inf", "nan" and hex literals; only plain decimals count.
	for _, r := range clean {
		if (r < '0' || r > '9') && r != '.' && r != 'e' && r != '-' {
			return 0
		}
	}

	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	v *= mult
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
