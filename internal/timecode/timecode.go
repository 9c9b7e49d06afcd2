package timecode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred  = decimal.NewFromInt(100)
	thousand = decimal.NewFromInt(1000)
)

// EncodeSRT renders seconds as HH:MM:SS,mmm, truncating below the millisecond.
func EncodeSRT(seconds float64) string {
	mustNonNegative(seconds)
	ms := decimal.NewFromFloat(seconds).Mul(thousand).Truncate(0).IntPart()
	h := ms / 3_600_000
	m := (ms / 60_000) % 60
	s := (ms / 1000) % 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms%1000)
}

// EncodeASS renders seconds as H:MM:SS.cc rounded to the nearest centisecond.
// Rounding happens on the total so a carry lands in the seconds field and the
// centisecond field stays within 00-99.
func EncodeASS(seconds float64) string {
	mustNonNegative(seconds)
	cs := decimal.NewFromFloat(seconds).Mul(hundred).Round(0).IntPart()
	h := cs / 360_000
	m := (cs / 6000) % 60
	s := (cs / 100) % 60
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs%100)
}

// Centiseconds truncates seconds to whole centiseconds. Negative spans clamp to zero.
func Centiseconds(seconds float64) int {
	if seconds <= 0 {
		return 0
	}
	return int(decimal.NewFromFloat(seconds).Mul(hundred).Truncate(0).IntPart())
}

// FromCentiseconds converts a centisecond count back to seconds.
func FromCentiseconds(cs int) float64 {
	return decimal.New(int64(cs), -2).InexactFloat64()
}

// DecodeASS parses H:MM:SS.cc into seconds.
func DecodeASS(value string) (float64, error) {
	return decode(value, ".")
}

// DecodeSRT parses HH:MM:SS,mmm into seconds.
func DecodeSRT(value string) (float64, error) {
	return decode(value, ",")
}

func decode(value, fractionSep string) (float64, error) {
	trimmed := strings.TrimSpace(value)
	parts := strings.Split(trimmed, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("timecode %q: expected H:MM:SS%sfraction", value, fractionSep)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("timecode %q: invalid hours", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("timecode %q: invalid minutes", value)
	}
	secField, fracField, ok := strings.Cut(parts[2], fractionSep)
	if !ok || fracField == "" {
		return 0, fmt.Errorf("timecode %q: missing fraction", value)
	}
	secs, err := strconv.Atoi(secField)
	if err != nil || secs < 0 || secs > 59 {
		return 0, fmt.Errorf("timecode %q: invalid seconds", value)
	}
	frac, err := decimal.NewFromString("0." + fracField)
	if err != nil {
		return 0, fmt.Errorf("timecode %q: invalid fraction: %w", value, err)
	}
	total := decimal.NewFromInt(int64(hours*3600 + minutes*60 + secs)).Add(frac)
	return total.InexactFloat64(), nil
}

func mustNonNegative(seconds float64) {
	if seconds < 0 {
		panic(fmt.Sprintf("timecode: negative offset %v", seconds))
	}
}

// CentisecondSpan truncates the distance between two offsets to whole
// centiseconds. The subtraction is exact so 1.8-0.5 yields 130.
func CentisecondSpan(from, to float64) int {
	d := decimal.NewFromFloat(to).Sub(decimal.NewFromFloat(from))
	if !d.IsPositive() {
		return 0
	}
	return int(d.Mul(hundred).Truncate(0).IntPart())
}
