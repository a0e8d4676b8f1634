// Package monitor polls the ticketing API and reports when any watched
// endpoint changes its content.
package monitor

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"padelbot/internal/events"
	appLog "padelbot/internal/log"
	"padelbot/internal/timeparse"
)

const (
	defaultDays      = 7
	defaultTimeout   = 30 * time.Second
	defaultThrottle  = time.Minute
	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
	defaultLink      = "https://bilet.mos.ru/event/344458257/"
	fetchConcurrency = 4
)

// Notifier delivers the human-readable change message.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// LogNotifier writes notifications to the log.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, text string) error {
	appLog.Info("monitor notification", "text", text)
	return nil
}

type Options struct {
	AgentURL    string
	EventURL    string
	SessionsURL string
	// Days is how many session dates, starting today, are watched.
	Days int
	// Timeout bounds each request.
	Timeout time.Duration
	// Throttle is the minimum gap between two notifications.
	Throttle  time.Duration
	UserAgent string
	// Link is appended to the change message.
	Link string

	Client    *http.Client
	Notifier  Notifier
	Publisher events.Publisher
	Now       func() time.Time
}

// Monitor remembers the last content hash of every endpoint.
type Monitor struct {
	opts Options

	mu           sync.Mutex
	hashes       map[string]string
	lastNotified time.Time
}

func New(opts Options) *Monitor {
	if opts.Days <= 0 {
		opts.Days = defaultDays
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Throttle <= 0 {
		opts.Throttle = defaultThrottle
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Link == "" {
		opts.Link = defaultLink
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.Notifier == nil {
		opts.Notifier = LogNotifier{}
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Monitor{opts: opts, hashes: make(map[string]string)}
}

// Check fetches every endpoint once and compares content hashes with the
// previous check. The first successful fetch of an endpoint only records a
// baseline. Failed fetches keep the previous hash.
func (m *Monitor) Check(ctx context.Context) Report {
	now := m.opts.Now().In(timeparse.Moscow)
	endpoints, dates := m.endpoints(now)

	results := make([]Result, len(endpoints))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, ep := range endpoints {
		g.Go(func() error {
			results[i] = m.fetch(gctx, ep)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{CheckedAt: now, Dates: dates, Results: results}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, res := range results {
		if res.Err != nil {
			appLog.Error("monitor fetch failed", res.Err, "endpoint", res.Endpoint.Name, "url", redactURL(res.Endpoint.URL))
			continue
		}
		prev, seen := m.hashes[res.Endpoint.Name]
		m.hashes[res.Endpoint.Name] = res.Hash
		switch {
		case !seen:
			appLog.Info("monitor baseline stored", "endpoint", res.Endpoint.Name, "hash", short(res.Hash))
		case prev != res.Hash:
			report.Changes = append(report.Changes, Change{
				Endpoint:     res.Endpoint.Name,
				URL:          res.Endpoint.URL,
				PreviousHash: prev,
				CurrentHash:  res.Hash,
			})
			appLog.Info("monitor change detected", "endpoint", res.Endpoint.Name, "from", short(prev), "to", short(res.Hash))
		default:
			appLog.Debug("monitor no change", "endpoint", res.Endpoint.Name, "hash", short(res.Hash))
		}
	}
	return report
}

// Tick runs one Check, publishes the changed endpoints and notifies at most
// once per throttle window.
func (m *Monitor) Tick(ctx context.Context) Report {
	report := m.Check(ctx)
	if !report.AnyChanges() {
		appLog.Info("monitor no changes", "endpoints", len(report.Results))
		return report
	}

	names := make([]string, 0, len(report.Changes))
	for _, c := range report.Changes {
		names = append(names, c.Endpoint)
	}
	if err := m.opts.Publisher.Publish(ctx, events.MonitorChanged, events.MonitorChangedEvent{
		Endpoints: names,
		CheckedAt: report.CheckedAt,
	}); err != nil {
		appLog.Error("failed to publish monitor event", err)
	}

	if !m.shouldNotify(report.CheckedAt) {
		appLog.Info("monitor notification skipped", "reason", "throttled")
		return report
	}
	if err := m.opts.Notifier.Notify(ctx, m.FormatReport(report)); err != nil {
		appLog.Error("monitor notification failed", err)
		return report
	}

	m.mu.Lock()
	m.lastNotified = report.CheckedAt
	m.mu.Unlock()
	return report
}

func (m *Monitor) shouldNotify(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastNotified.IsZero() || now.After(m.lastNotified.Add(m.opts.Throttle))
}

// Hashes returns a copy of the stored content hashes keyed by endpoint name.
func (m *Monitor) Hashes() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.hashes))
	for k, v := range m.hashes {
		out[k] = v
	}
	return out
}

func short(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
