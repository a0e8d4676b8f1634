package visit

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	appLog "padelbot/internal/log"
	"padelbot/internal/timeparse"
)

// DefaultHorizonDays is how far ahead listings look when nothing else is
// configured.
const DefaultHorizonDays = 30

var errEmptyInterval = errors.New("end is not after start")

// Option configures a Store.
type Option func(*Store)

// WithClock sets the source of "now" used by TryAdd and List.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store owns the visits of the running process. Add, Prune and the listing
// calls each run under one lock, so a listing never observes a half-pruned
// set and the no-duplicate rule holds with several callers.
type Store struct {
	parser *timeparse.Parser
	now    func() time.Time

	mu     sync.Mutex
	visits map[key]Visit
}

// NewStore creates an empty store.
func NewStore(parser *timeparse.Parser, opts ...Option) *Store {
	if parser == nil {
		parser = timeparse.NewParser(nil)
	}
	s := &Store{
		parser: parser,
		now:    time.Now,
		visits: make(map[key]Visit),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add parses text relative to now and inserts the resulting visit.
//
// It returns an error wrapping ErrParseFailed when the text has no usable
// date or time, and ErrDuplicate together with the stored visit when the
// same interval is already present.
func (s *Store) Add(text string, now time.Time) (Visit, error) {
	now = now.In(timeparse.Moscow)

	res, err := s.parser.Resolve(text, now)
	if err != nil {
		return Visit{}, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	start, end := res.Interval()
	if !end.After(start) {
		return Visit{}, fmt.Errorf("%w: %w", ErrParseFailed, errEmptyInterval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := keyOf(start, end)
	if existing, ok := s.visits[k]; ok {
		appLog.Info("duplicate visit detected", "date", existing.DateString(), "time", existing.TimeRangeString())
		return existing, ErrDuplicate
	}

	v := Visit{
		ID:           Fingerprint(start, end, text),
		Start:        start,
		End:          end,
		OriginalText: text,
		CreatedAt:    now,
	}
	s.visits[k] = v

	appLog.Info("visit added", "id", v.ID[:12], "date", v.DateString(), "time", v.TimeRangeString())
	return v, nil
}

// TryAdd is Add with the store clock, reporting the outcome as a value.
func (s *Store) TryAdd(text string) AddResult {
	v, err := s.Add(text, s.now())
	switch {
	case err == nil:
		return AddResult{Status: Added, Visit: v}
	case errors.Is(err, ErrDuplicate):
		return AddResult{Status: Duplicate, Visit: v, Err: err}
	default:
		return AddResult{Status: ParseFailed, Err: err}
	}
}

// ListUpcoming prunes ended visits and returns those starting within
// [now, now+horizonDays], ordered by start.
func (s *Store) ListUpcoming(horizonDays int, now time.Time) []Visit {
	cutoff := now.Add(time.Duration(horizonDays) * 24 * time.Hour)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)

	upcoming := make([]Visit, 0, len(s.visits))
	for _, v := range s.visits {
		if v.Start.Before(now) || v.Start.After(cutoff) {
			continue
		}
		upcoming = append(upcoming, v)
	}

	slices.SortFunc(upcoming, func(a, b Visit) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return a.End.Compare(b.End)
	})
	return upcoming
}

// List is ListUpcoming with the store clock.
func (s *Store) List(horizonDays int) []Visit {
	return s.ListUpcoming(horizonDays, s.now())
}

// Prune removes every visit that has ended at or before now and returns how
// many were removed.
func (s *Store) Prune(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pruneLocked(now)
}

func (s *Store) pruneLocked(now time.Time) int {
	removed := 0
	for k, v := range s.visits {
		if !v.End.After(now) {
			delete(s.visits, k)
			removed++
		}
	}
	if removed > 0 {
		appLog.Info("past visits cleaned up", "removed", removed, "remaining", len(s.visits))
	}
	return removed
}

// Count returns the number of stored visits without pruning, so it may
// include visits that have already ended. Call List first for an exact
// figure.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visits)
}
