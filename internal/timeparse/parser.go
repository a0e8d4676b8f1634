// Package timeparse extracts a booking date and a time-of-day range from
// casual Russian text such as "пт 16-17" or "12 июля, 16:30-17:30".
//
// Resolution runs two independent cascades of matchers, one for the date and
// one for the time range. Inside each cascade the first matcher that succeeds
// wins, so the order of the matchers is part of the contract.
package timeparse

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Moscow is the fixed +03:00 zone all dates are resolved in.
var Moscow = time.FixedZone("MSK", 3*60*60)

var (
	// ErrDateUnresolved means no date strategy matched the text.
	ErrDateUnresolved = errors.New("timeparse: date not found")
	// ErrInvalidCalendarDate means the text named a day that does not exist
	// (e.g. 30 февраля) and no other strategy matched.
	ErrInvalidCalendarDate = fmt.Errorf("%w: invalid calendar date", ErrDateUnresolved)
	// ErrTimeUnresolved means no time range or single time matched the text.
	ErrTimeUnresolved = errors.New("timeparse: time range not found")

	errNoMatch = errors.New("no match")
)

// Clock is a time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c Clock) valid() bool {
	return c.Hour >= 0 && c.Hour <= 23 && c.Minute >= 0 && c.Minute <= 59
}

func (c Clock) minutes() int {
	return c.Hour*60 + c.Minute
}

// Span is a start/end pair of times of day on the same date.
type Span struct {
	Start Clock
	End   Clock
}

// Result is a fully resolved booking: a date (midnight in Moscow) and a span.
type Result struct {
	Date time.Time
	Span
}

// Interval combines the date with the span into two absolute instants.
func (r Result) Interval() (start, end time.Time) {
	at := func(c Clock) time.Time {
		return time.Date(r.Date.Year(), r.Date.Month(), r.Date.Day(), c.Hour, c.Minute, 0, 0, r.Date.Location())
	}
	return at(r.Start), at(r.End)
}

// Parser resolves booking text against a Vocabulary. It holds no mutable
// state and is safe for concurrent use.
type Parser struct {
	vocab *Vocabulary
}

// NewParser creates a parser. A nil vocabulary means DefaultVocabulary.
func NewParser(vocab *Vocabulary) *Parser {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &Parser{vocab: vocab}
}

// Resolve extracts the date and the time range from text, relative to now.
// Both must resolve; the time range is not attempted when the date fails.
func (p *Parser) Resolve(text string, now time.Time) (Result, error) {
	date, err := p.ResolveDate(text, now)
	if err != nil {
		return Result{}, err
	}
	span, err := ResolveTime(text)
	if err != nil {
		return Result{}, err
	}
	return Result{Date: date, Span: span}, nil
}

// ResolveDate runs the date cascade: absolute date with year, weekday name,
// relative keyword, day and month without year.
func (p *Parser) ResolveDate(text string, now time.Time) (time.Time, error) {
	text = strings.ToLower(text)
	now = now.In(Moscow)

	invalid := false
	for _, strategy := range dateStrategies {
		date, err := strategy(p.vocab, text, now)
		switch {
		case err == nil:
			return date, nil
		case errors.Is(err, ErrInvalidCalendarDate):
			invalid = true
		case errors.Is(err, errNoMatch):
		default:
			return time.Time{}, err
		}
	}
	if invalid {
		return time.Time{}, ErrInvalidCalendarDate
	}
	return time.Time{}, ErrDateUnresolved
}

// ResolveTime runs the time cascade: "с/от .. до ..", "HH-HH", "HH:MM-HH:MM",
// then the single time point forms.
func ResolveTime(text string) (Span, error) {
	text = strings.ToLower(text)
	for _, match := range rangeMatchers {
		if span, ok := match(text); ok {
			return span, nil
		}
	}
	return Span{}, ErrTimeUnresolved
}
