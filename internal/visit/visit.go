// Package visit keeps the in-memory set of booked court visits.
//
// Two visits are the same visit when their start and end instants are equal.
// The fingerprint stored in Visit.ID also covers the original text and is
// only used as a lookup and audit key, never for deduplication.
package visit

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"padelbot/internal/timeparse"
)

var (
	// ErrParseFailed wraps the timeparse error that rejected the text.
	ErrParseFailed = errors.New("visit: text not recognized")
	// ErrDuplicate means a visit with the same start and end already exists.
	ErrDuplicate = errors.New("visit: already exists")
)

// Visit is a resolved booking interval.
type Visit struct {
	ID           string    `json:"id"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	OriginalText string    `json:"original_text"`
	CreatedAt    time.Time `json:"created_at"`
}

// DateString formats the visit day as 02.01.2006.
func (v Visit) DateString() string {
	return v.Start.In(timeparse.Moscow).Format("02.01.2006")
}

// TimeRangeString formats the visit as 16:00-17:00.
func (v Visit) TimeRangeString() string {
	return v.Start.In(timeparse.Moscow).Format("15:04") + "-" + v.End.In(timeparse.Moscow).Format("15:04")
}

// key is the equality rule of the store: the (start, end) instant pair.
type key struct {
	start int64
	end   int64
}

func keyOf(start, end time.Time) key {
	return key{start: start.UnixNano(), end: end.UnixNano()}
}

// Fingerprint derives the visit ID from its interval and the raw text.
func Fingerprint(start, end time.Time, text string) string {
	sum := sha256.Sum256([]byte(start.Format(time.RFC3339) + "_" + end.Format(time.RFC3339) + "_" + text))
	return hex.EncodeToString(sum[:])
}

// AddStatus tells how TryAdd ended.
type AddStatus int

const (
	Added AddStatus = iota
	Duplicate
	ParseFailed
)

func (s AddStatus) String() string {
	switch s {
	case Added:
		return "added"
	case Duplicate:
		return "duplicate"
	case ParseFailed:
		return "parse_failed"
	default:
		return "unknown"
	}
}

// AddResult is the outcome of TryAdd. For Duplicate, Visit is the visit
// already in the store. For ParseFailed, Visit is zero and Err holds the
// reason.
type AddResult struct {
	Status AddStatus
	Visit  Visit
	Err    error
}
