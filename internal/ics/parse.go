package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "padelbot/internal/log"
	"padelbot/internal/timeparse"
	"padelbot/internal/visit"
)

// Decode reads the VEVENTs of an iCalendar payload back into visits.
// Events without a UID or a usable DTSTART/DTEND pair are logged and
// skipped. Times are returned in the Moscow zone.
func Decode(body []byte) ([]visit.Visit, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err)
		return nil, err
	}

	visits := make([]visit.Visit, 0)
	for _, ve := range cal.Events() {
		v, perr := parseVEvent(ve)
		if perr != nil {
			appLog.Error("ics vevent skipped", perr)
			continue
		}
		visits = append(visits, v)
	}

	appLog.Debug("ics parse completed", "event_count", len(visits))
	return visits, nil
}

func parseVEvent(ve *ical.VEvent) (visit.Visit, error) {
	var out visit.Visit

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return out, errors.New("missing UID")
	}
	out.ID = uid.Value

	start, err := ve.GetStartAt()
	if err != nil {
		return out, err
	}
	end, err := ve.GetEndAt()
	if err != nil {
		return out, err
	}
	if !end.After(start) {
		return out, errors.New("DTEND is not after DTSTART")
	}
	out.Start = start.In(timeparse.Moscow)
	out.End = end.In(timeparse.Moscow)

	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.OriginalText = unescapeText(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyDtstamp); p != nil {
		if t, err := parseICSTime(p.Value); err == nil {
			out.CreatedAt = t.In(timeparse.Moscow)
		}
	}

	return out, nil
}

var textUnescaper = strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\N`, "\n", `\,`, ",", `\;`, ";")

func unescapeText(s string) string {
	return textUnescaper.Replace(s)
}

// parseICSTime parses a DATE-TIME value without parameter context. Floating
// times are read in the Moscow zone.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, timeparse.Moscow)
	}
	return time.ParseInLocation("20060102", v, timeparse.Moscow)
}
