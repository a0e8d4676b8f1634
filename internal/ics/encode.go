// Package ics exports visits as an iCalendar feed and reads such feeds back.
package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"padelbot/internal/visit"
)

const (
	defaultProductID = "-//padelbot//visits//RU"
	defaultName      = "Падел"
	defaultSummary   = "🎾 Падел"
)

// Options tunes the exported calendar. Zero values fall back to defaults.
type Options struct {
	ProductID string
	Name      string
	Summary   string
	// Now stamps the calendar-level DTSTAMP of visits without CreatedAt.
	Now time.Time
}

// Encode renders visits as a VCALENDAR with METHOD:PUBLISH and one VEVENT
// per visit, in the given order. The visit fingerprint is the event UID.
func Encode(visits []visit.Visit, opts Options) string {
	if opts.ProductID == "" {
		opts.ProductID = defaultProductID
	}
	if opts.Name == "" {
		opts.Name = defaultName
	}
	if opts.Summary == "" {
		opts.Summary = defaultSummary
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(opts.ProductID)
	cal.SetXWRCalName(opts.Name)
	cal.SetXWRTimezone("Europe/Moscow")

	for _, v := range visits {
		ev := cal.AddEvent(v.ID)
		stamp := v.CreatedAt
		if stamp.IsZero() {
			stamp = opts.Now
		}
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(v.Start)
		ev.SetEndAt(v.End)
		ev.SetSummary(opts.Summary + " " + v.TimeRangeString())
		ev.SetDescription(v.OriginalText)
	}

	return cal.Serialize()
}
