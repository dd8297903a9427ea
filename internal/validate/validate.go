// Package validate holds the pure input validators used by the dialogue
// flows. Every validator turns a raw user string into a typed value or a
// rejection; none of them return errors or panic.
package validate

import (
	"strconv"
	"strings"
	"time"

	"github.com/dmorales/ledgerbot/internal/domain"
)

// MaxTextLength caps free-text fields (customer, supplier, notes).
const MaxTextLength = 200

// Date accepts the literal "today" (any case, resolved in loc) or a
// strict DD/MM/YYYY string with real calendar validity. Anything else is
// rejected.
func Date(input string, loc *time.Location) (string, bool) {
	input = strings.TrimSpace(input)
	if strings.EqualFold(input, "today") {
		return time.Now().In(loc).Format(domain.DateLayout), true
	}

	if len(input) != 10 || input[2] != '/' || input[5] != '/' {
		return "", false
	}
	parsed, err := time.ParseInLocation(domain.DateLayout, input, loc)
	if err != nil {
		return "", false
	}
	// time.Parse normalizes 31/02 to 02/03 and similar; round-trip to
	// catch those.
	if parsed.Format(domain.DateLayout) != input {
		return "", false
	}
	return input, true
}

// ParseDate converts an already validated DD/MM/YYYY string back into a
// time.Time in loc.
func ParseDate(value string, loc *time.Location) (time.Time, bool) {
	t, err := time.ParseInLocation(domain.DateLayout, value, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Amount parses a positive monetary value. Convention: "." is a grouping
// separator and is stripped, "," is the decimal separator. So "50.000"
// is fifty thousand and "1.234,56" is 1234.56. Zero, negatives and
// non-numeric input are rejected, as are exponent forms and the
// "inf"/"nan" spellings ParseFloat would otherwise accept.
func Amount(input string) (float64, bool) {
	s := strings.TrimSpace(input)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return 0, false
		}
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}

// InvoiceNumber accepts any string of 1 to 20 characters.
func InvoiceNumber(input string) bool {
	n := len(strings.TrimSpace(input))
	return n >= 1 && n <= 20
}

// Text trims, maps empty or "-" to the omitted sentinel, and truncates
// to MaxTextLength runes so multi-byte input is never split mid-rune.
func Text(input string) string {
	s := strings.TrimSpace(input)
	if s == "" || s == domain.NoText {
		return domain.NoText
	}
	if runes := []rune(s); len(runes) > MaxTextLength {
		s = string(runes[:MaxTextLength])
	}
	return s
}

// Period names a reporting date range.
type Period string

const (
	PeriodToday   Period = "today"
	PeriodWeek    Period = "this week"
	PeriodMonth   Period = "this month"
	PeriodAllTime Period = "all-time"
)

// PeriodRange resolves a period to inclusive DD/MM/YYYY bounds in loc.
// All-time returns empty bounds, meaning no filter.
func PeriodRange(p Period, loc *time.Location) (start, end string) {
	now := time.Now().In(loc)
	today := now.Format(domain.DateLayout)

	switch p {
	case PeriodToday:
		return today, today
	case PeriodWeek:
		monday := now.AddDate(0, 0, -domain.MondayIndex(now.Weekday()))
		return monday.Format(domain.DateLayout), today
	case PeriodMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		return first.Format(domain.DateLayout), today
	default:
		return "", ""
	}
}
