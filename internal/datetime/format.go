// Package datetime parses upstream dates and renders them in pt-BR display
// formats without shifting the calendar day across timezones.
package datetime

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Layout names a display format.
type Layout string

const (
	Short  Layout = "short"  // 22/10/25
	Medium Layout = "medium" // 22 de out. de 2025
	Chart  Layout = "chart"  // 22 de out. de 25
	Full   Layout = "full"   // 22/10/2025
)

const (
	dateLayout = "2006-01-02"
	// Bare dates are anchored at local noon. Midnight may not exist on DST
	// transition days (America/Sao_Paulo before 2019).
	anchorHour = 12
)

var (
	bareDate   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	datePrefix = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)

	timestampLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
	}

	monthAbbr = [...]string{"jan.", "fev.", "mar.", "abr.", "mai.", "jun.", "jul.", "ago.", "set.", "out.", "nov.", "dez."}
)

// Formatter renders dates in a fixed viewer location.
type Formatter struct {
	Location *time.Location
}

// Format renders input in the local timezone. See Formatter.Format.
func Format(input string, layout Layout) string {
	return Formatter{Location: time.Local}.Format(input, layout)
}

// Format renders a bare date (YYYY-MM-DD) or a timestamp. Full output for
// date-prefixed input is sliced straight from the string, so it never depends
// on the viewer's offset. Empty or unparseable input yields "".
func (f Formatter) Format(input string, layout Layout) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	if layout == Full {
		if m := datePrefix.FindStringSubmatch(input); m != nil {
			return fmt.Sprintf("%s/%s/%s", m[3], m[2], m[1])
		}
	}

	t, ok := f.parse(input)
	if !ok {
		return ""
	}

	switch layout {
	case Short:
		return t.Format("02/01/06")
	case Medium:
		return fmt.Sprintf("%02d de %s de %d", t.Day(), monthAbbr[t.Month()-1], t.Year())
	case Chart:
		return fmt.Sprintf("%02d de %s de %02d", t.Day(), monthAbbr[t.Month()-1], t.Year()%100)
	default:
		return t.Format("02/01/2006")
	}
}

func (f Formatter) location() *time.Location {
	if f.Location == nil {
		return time.Local
	}
	return f.Location
}

func (f Formatter) parse(input string) (time.Time, bool) {
	loc := f.location()
	if bareDate.MatchString(input) {
		t, err := ParseDate(input, loc)
		return t, err == nil
	}
	t, err := ParseTimestamp(input, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t.In(loc), true
}

// ParseDate parses YYYY-MM-DD as local noon in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), anchorHour, 0, 0, 0, loc), nil
}

// ParseTimestamp accepts a bare date or any of the timestamp shapes the
// backend emits. Timestamps without an offset are read in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if bareDate.MatchString(s) {
		return ParseDate(s, loc)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// CalendarDay extracts YYYY-MM-DD from a date-prefixed string without any
// timezone conversion.
func CalendarDay(s string) (string, bool) {
	m := datePrefix.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", false
	}
	return m[1] + "-" + m[2] + "-" + m[3], true
}

// IsToday reports whether the calendar day of s equals now's local day.
func IsToday(s string, now time.Time) bool {
	day, ok := CalendarDay(s)
	if !ok {
		return false
	}
	return day == now.Format(dateLayout)
}

// DaysSince counts the calendar days from the day of s to now's day. The
// second value is false when s carries no date.
func DaysSince(s string, now time.Time) (int, bool) {
	day, ok := CalendarDay(s)
	if !ok {
		return 0, false
	}
	then, err := time.Parse(dateLayout, day)
	if err != nil {
		return 0, false
	}
	today, _ := time.Parse(dateLayout, now.Format(dateLayout))
	return int(today.Sub(then).Hours() / 24), true
}

// Relative describes how long ago t was, as shown next to history entries:
// "Agora", "Há 5 min", "Há 3h", "Ontem", "Há 4d", then dd/mm in now's
// location once a week has passed.
func Relative(t, now time.Time) string {
	minutes := int(now.Sub(t) / time.Minute)
	switch {
	case minutes < 1:
		return "Agora"
	case minutes == 1:
		return "Há 1 min"
	case minutes < 60:
		return fmt.Sprintf("Há %d min", minutes)
	}
	hours := minutes / 60
	switch {
	case hours == 1:
		return "Há 1h"
	case hours < 24:
		return fmt.Sprintf("Há %dh", hours)
	}
	days := hours / 24
	switch {
	case days == 1:
		return "Ontem"
	case days < 7:
		return fmt.Sprintf("Há %dd", days)
	}
	return t.In(now.Location()).Format("02/01")
}
