// Package innings decodes the league's innings-pitched notation, where the
// single fractional digit counts outs (".1" is one third of an inning).
package innings

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const outsPerInning = 3

// Decode converts an encoded innings value such as "6.2" into 6+2/3.
// Parsing is exact; only the final result is converted to float64.
func Decode(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, &InvalidEncodingError{Value: raw, Reason: "not a decimal number"}
	}
	if d.IsNegative() {
		return 0, &InvalidEncodingError{Value: raw, Reason: "negative innings"}
	}

	whole := d.Truncate(0)
	tenths := d.Sub(whole).Shift(1)
	if !tenths.IsInteger() {
		return 0, &InvalidEncodingError{Value: raw, Reason: "more than one fractional digit"}
	}

	outs := tenths.IntPart()
	if outs < 0 || outs >= outsPerInning {
		return 0, &InvalidEncodingError{Value: raw, Reason: "fractional digit must be 0, 1 or 2"}
	}
	if outs == 0 {
		return whole.InexactFloat64(), nil
	}
	return whole.InexactFloat64() + float64(outs)/outsPerInning, nil
}

// Encode renders a true innings value back into native notation, rounding
// to the nearest out.
func Encode(ip float64) string {
	totalOuts := int64(math.Round(ip * outsPerInning))
	if totalOuts < 0 {
		totalOuts = 0
	}
	return strconv.FormatInt(totalOuts/outsPerInning, 10) + "." + strconv.FormatInt(totalOuts%outsPerInning, 10)
}
