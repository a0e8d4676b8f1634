package monitor

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

// Endpoint is one watched URL.
type Endpoint struct {
	Name string
	URL  string
}

// endpoints lists the agent and event URLs followed by one sessions URL per
// watched date, starting with today's date in Moscow.
func (m *Monitor) endpoints(now time.Time) ([]Endpoint, []string) {
	dates := make([]string, 0, m.opts.Days)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for i := 0; i < m.opts.Days; i++ {
		dates = append(dates, today.AddDate(0, 0, i).Format("2006-01-02"))
	}

	eps := make([]Endpoint, 0, 2+len(dates))
	if m.opts.AgentURL != "" {
		eps = append(eps, Endpoint{Name: "agent_info", URL: m.opts.AgentURL})
	}
	if m.opts.EventURL != "" {
		eps = append(eps, Endpoint{Name: "event_info", URL: m.opts.EventURL})
	}
	if m.opts.SessionsURL != "" {
		for _, d := range dates {
			eps = append(eps, Endpoint{Name: "sessions_" + d, URL: withDate(m.opts.SessionsURL, d)})
		}
	}
	return eps, dates
}

func withDate(base, date string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "&date=" + date
	}
	q := u.Query()
	q.Set("date", date)
	u.RawQuery = q.Encode()
	return u.String()
}

func (m *Monitor) fetch(ctx context.Context, ep Endpoint) Result {
	res := Result{Endpoint: ep}

	ctx, cancel := context.WithTimeout(ctx, m.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.URL, nil)
	if err != nil {
		res.Err = errors.Wrap(err, "build request")
		return res
	}
	req.Header.Set("User-Agent", m.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := m.opts.Client.Do(req)
	if err != nil {
		res.Err = errors.Wrap(err, "request")
		return res
	}
	defer resp.Body.Close()

	res.StatusCode = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		res.Err = errors.Errorf("HTTP %d", resp.StatusCode)
		return res
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		res.Err = errors.Wrap(err, "read body")
		return res
	}
	res.Hash, res.Err = contentHash(body)
	return res
}

// contentHash hashes the canonical encoding of a JSON document, so key
// order and whitespace do not count as changes.
func contentHash(body []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return "", errors.Wrap(err, "decode JSON")
	}
	canonical, err := json.Marshal(doc)
	if err != nil {
		return "", errors.Wrap(err, "encode JSON")
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// redactURL keeps scheme, host and path and drops the query string.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "(redacted)"
	}
	return u.Scheme + "://" + u.Host + u.Path
}
