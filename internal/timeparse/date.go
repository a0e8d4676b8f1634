package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/teambition/rrule-go"
)

// dateStrategy resolves a date from lower-cased text. It returns errNoMatch
// when it does not apply and ErrInvalidCalendarDate when it applies to a day
// that does not exist.
type dateStrategy func(v *Vocabulary, text string, now time.Time) (time.Time, error)

// Most specific first: a bare day number must not win over a full date.
var dateStrategies = []dateStrategy{
	absoluteDate,
	weekdayDate,
	relativeDate,
	dayMonthDate,
}

var (
	dayMonthYearRe = regexp.MustCompile(`(\d{1,2})\s+([а-яё]+)\s+(\d{4})`)
	dayMonthRe     = regexp.MustCompile(`(\d{1,2})\s+([а-яё]+)`)
	yearAheadRe    = regexp.MustCompile(`^\s+\d{4}`)
)

var rruleWeekdays = [...]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// absoluteDate handles "12 июля 2025".
func absoluteDate(v *Vocabulary, text string, now time.Time) (time.Time, error) {
	for _, m := range dayMonthYearRe.FindAllStringSubmatch(text, -1) {
		month, ok := v.Month(m[2])
		if !ok {
			continue
		}
		day, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		return calendarDate(year, month, day, now.Location())
	}
	return time.Time{}, errNoMatch
}

// weekdayDate handles "пятницу", "пт" and friends. The first table entry
// present in the text decides the weekday.
func weekdayDate(v *Vocabulary, text string, now time.Time) (time.Time, error) {
	for _, w := range v.Weekdays {
		if containsWord(text, w.Name, w.Abbrev) {
			return nextWeekday(now, w.Weekday)
		}
	}
	return time.Time{}, errNoMatch
}

// relativeDate handles "сегодня", "завтра", "послезавтра".
func relativeDate(v *Vocabulary, text string, now time.Time) (time.Time, error) {
	for _, r := range v.Relative {
		if strings.Contains(text, r.Keyword) {
			return midnight(now).AddDate(0, 0, r.Days), nil
		}
	}
	return time.Time{}, errNoMatch
}

// dayMonthDate handles "12 июля" without a year. Dates already past roll
// over to next year.
func dayMonthDate(v *Vocabulary, text string, now time.Time) (time.Time, error) {
	for _, idx := range dayMonthRe.FindAllStringSubmatchIndex(text, -1) {
		month, ok := v.Month(text[idx[4]:idx[5]])
		if !ok {
			continue
		}
		if yearAheadRe.MatchString(text[idx[1]:]) {
			continue
		}
		day, _ := strconv.Atoi(text[idx[2]:idx[3]])

		date, err := calendarDate(now.Year(), month, day, now.Location())
		if err != nil {
			return time.Time{}, err
		}
		if date.Before(midnight(now)) {
			return calendarDate(now.Year()+1, month, day, now.Location())
		}
		return date, nil
	}
	return time.Time{}, errNoMatch
}

// nextWeekday returns midnight of the first wd strictly after now's date.
// A weekly rule anchored at tomorrow yields exactly that occurrence.
func nextWeekday(now time.Time, wd time.Weekday) (time.Time, error) {
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   midnight(now).AddDate(0, 0, 1),
		Byweekday: []rrule.Weekday{rruleWeekdays[wd]},
		Count:     1,
	})
	if err != nil {
		return time.Time{}, err
	}
	occurrences := rule.All()
	if len(occurrences) == 0 {
		return time.Time{}, errNoMatch
	}
	return midnight(occurrences[0].In(now.Location())), nil
}

func calendarDate(year int, month time.Month, day int, loc *time.Location) (time.Time, error) {
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return time.Time{}, ErrInvalidCalendarDate
	}
	return t, nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// containsWord reports whether word occurs in text. With bounded set the
// occurrence must not touch a letter on either side, so "вт" is found in
// "вт 18-19" but not in "завтра".
func containsWord(text, word string, bounded bool) bool {
	if !bounded {
		return strings.Contains(text, word)
	}
	for from := 0; from < len(text); {
		i := strings.Index(text[from:], word)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(word)
		if !letterBefore(text, start) && !letterAt(text, end) {
			return true
		}
		from = end
	}
	return false
}

func letterBefore(s string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return unicode.IsLetter(r)
}

func letterAt(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsLetter(r)
}
