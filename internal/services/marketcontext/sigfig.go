package marketcontext

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FiveSigFig renders a value to five significant figures without scientific
// notation, keeping indicator lines compact and comparable across magnitudes.
func FiveSigFig(d decimal.Decimal) string {
	f, _ := d.Float64()
	s := strconv.FormatFloat(f, 'g', 5, 64)
	if !strings.ContainsAny(s, "eE") {
		return s
	}

	expanded, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	return expanded.String()
}
