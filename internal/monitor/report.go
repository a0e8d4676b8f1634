package monitor

import (
	"fmt"
	"strings"
	"time"

	"padelbot/internal/timeparse"
)

// Result is the outcome of fetching one endpoint.
type Result struct {
	Endpoint   Endpoint
	StatusCode int
	Hash       string
	Err        error
}

// Change records an endpoint whose content hash moved.
type Change struct {
	Endpoint     string
	URL          string
	PreviousHash string
	CurrentHash  string
}

type Report struct {
	CheckedAt time.Time
	Dates     []string
	Results   []Result
	Changes   []Change
}

func (r Report) AnyChanges() bool {
	return len(r.Changes) > 0
}

// Failed counts endpoints that could not be fetched.
func (r Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// FormatReport builds the chat message for a report with changes.
func (m *Monitor) FormatReport(r Report) string {
	if !r.AnyChanges() {
		return "No changes"
	}
	return "ПАДЛА ПАДЛА ПАДЛА\n\n" + m.opts.Link
}

// Status summarizes what is being watched and the stored hashes.
func (m *Monitor) Status() string {
	now := m.opts.Now().In(timeparse.Moscow)
	eps, dates := m.endpoints(now)

	var b strings.Builder
	fmt.Fprintf(&b, "Monitor status\n\nMoscow time: %s\n", now.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Monitoring dates: %s\n", strings.Join(dates, ", "))
	fmt.Fprintf(&b, "Endpoints watched: %d\n", len(eps))

	hashes := m.Hashes()
	if len(hashes) == 0 {
		return b.String()
	}
	b.WriteString("\nStored hashes:\n")
	for _, ep := range eps {
		if h, ok := hashes[ep.Name]; ok {
			fmt.Fprintf(&b, "   • %s: %s...\n", ep.Name, short(h))
		}
	}
	return b.String()
}
