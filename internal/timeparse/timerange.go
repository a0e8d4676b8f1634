package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// rangeMatcher extracts a span from lower-cased text.
type rangeMatcher func(text string) (Span, bool)

// pointMatcher extracts a single time of day from lower-cased text.
type pointMatcher func(text string) (Clock, bool)

// Most qualified first, so "16-17" is never swallowed by a single time.
var rangeMatchers = []rangeMatcher{
	matchUntilRange,
	matchHourRange,
	matchClockRange,
	matchSinglePoint,
}

var pointMatchers = []pointMatcher{
	matchAtClock,
	matchAtHour,
	matchTimeWord,
	matchBareClock,
}

const dashes = `-–—`

var (
	untilRangeRe = regexp.MustCompile(`(?:с|от)?\s*(\d{1,2})(?:[:.](\d{2}))?\s+до\s+(\d{1,2})(?:[:.](\d{2}))?`)
	hourRangeRe  = regexp.MustCompile(`(?:^|[^\d:.])(\d{1,2})\s*[` + dashes + `]\s*(\d{1,2})(?:$|[^\d:.])`)
	clockRangeRe = regexp.MustCompile(`(\d{1,2})[:.](\d{2})\s*[` + dashes + `]\s*(\d{1,2})[:.](\d{2})`)
	atClockRe    = regexp.MustCompile(`(?:^|\PL)в\s+(\d{1,2})[:.](\d{2})`)
	atHourRe     = regexp.MustCompile(`(?:^|\PL)в\s+(\d{1,2})(?:$|[^\d:.])`)
	timeWordRe   = regexp.MustCompile(`время\s+(\d{1,2})[:.](\d{2})`)
	bareClockRe  = regexp.MustCompile(`(\d{1,2})[:.](\d{2})`)
)

// matchUntilRange handles "с 16:00 до 17:30", "от 16 до 17", "16.00 до 17.00".
func matchUntilRange(text string) (Span, bool) {
	m := untilRangeRe.FindStringSubmatch(text)
	if m == nil {
		return Span{}, false
	}
	return newSpan(m[1], m[2], m[3], m[4])
}

// matchHourRange handles "16-17"; both ends are on the hour.
func matchHourRange(text string) (Span, bool) {
	m := hourRangeRe.FindStringSubmatch(text)
	if m == nil {
		return Span{}, false
	}
	return newSpan(m[1], "", m[2], "")
}

// matchClockRange handles "16:30-17:30".
func matchClockRange(text string) (Span, bool) {
	m := clockRangeRe.FindStringSubmatch(text)
	if m == nil {
		return Span{}, false
	}
	return newSpan(m[1], m[2], m[3], m[4])
}

// matchSinglePoint turns a single time into a one hour span. The end never
// rolls into the next day: past midnight it is clamped to 23:59.
func matchSinglePoint(text string) (Span, bool) {
	for _, match := range pointMatchers {
		start, ok := match(text)
		if !ok {
			continue
		}
		end := Clock{Hour: start.Hour + 1, Minute: start.Minute}
		if end.Hour >= 24 {
			end = Clock{Hour: 23, Minute: 59}
		}
		if end.minutes() <= start.minutes() {
			return Span{}, false
		}
		return Span{Start: start, End: end}, true
	}
	return Span{}, false
}

func matchAtClock(text string) (Clock, bool) {
	m := atClockRe.FindStringSubmatch(text)
	if m == nil {
		return Clock{}, false
	}
	return newClock(m[1], m[2])
}

func matchAtHour(text string) (Clock, bool) {
	m := atHourRe.FindStringSubmatch(text)
	if m == nil {
		return Clock{}, false
	}
	return newClock(m[1], "")
}

func matchTimeWord(text string) (Clock, bool) {
	m := timeWordRe.FindStringSubmatch(text)
	if m == nil {
		return Clock{}, false
	}
	return newClock(m[1], m[2])
}

// matchBareClock handles a standalone "16:00" that is neither end of a range.
// A rejected range such as "17:00-16:00" therefore yields no time at all.
func matchBareClock(text string) (Clock, bool) {
	for _, idx := range bareClockRe.FindAllStringSubmatchIndex(text, -1) {
		if idx[0] > 0 && isDigit(text[idx[0]-1]) {
			continue
		}
		if startsRange(text[idx[1]:]) || endsRange(text[:idx[0]]) {
			continue
		}
		if c, ok := newClock(text[idx[2]:idx[3]], text[idx[4]:idx[5]]); ok {
			return c, true
		}
	}
	return Clock{}, false
}

// startsRange reports whether rest (the text after a time) continues with a
// dash or the word "до", i.e. the time is the left end of a range.
func startsRange(rest string) bool {
	rest = strings.TrimLeft(rest, " \t\n")
	r, _ := utf8.DecodeRuneInString(rest)
	if strings.ContainsRune(dashes, r) {
		return true
	}
	return strings.HasPrefix(rest, "до") && !letterAt(rest, len("до"))
}

// endsRange reports whether head (the text before a time) ends with a dash
// or the word "до", i.e. the time is the right end of a range.
func endsRange(head string) bool {
	head = strings.TrimRight(head, " \t\n")
	r, _ := utf8.DecodeLastRuneInString(head)
	if strings.ContainsRune(dashes, r) {
		return true
	}
	return strings.HasSuffix(head, "до") && !letterBefore(head, len(head)-len("до"))
}

func newSpan(startHour, startMinute, endHour, endMinute string) (Span, bool) {
	start, ok := newClock(startHour, startMinute)
	if !ok {
		return Span{}, false
	}
	end, ok := newClock(endHour, endMinute)
	if !ok {
		return Span{}, false
	}
	if end.minutes() <= start.minutes() {
		return Span{}, false
	}
	return Span{Start: start, End: end}, true
}

// newClock builds a validated clock; an empty minute means on the hour.
func newClock(hour, minute string) (Clock, bool) {
	h, err := strconv.Atoi(hour)
	if err != nil {
		return Clock{}, false
	}
	m := 0
	if minute != "" {
		if m, err = strconv.Atoi(minute); err != nil {
			return Clock{}, false
		}
	}
	c := Clock{Hour: h, Minute: m}
	return c, c.valid()
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
