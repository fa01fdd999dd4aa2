package feed

import (
	"context"
	"errors"
	"time"

	"journey-tracker/internal/route"
)

// Record is one walker's progress row as published in the progress sheet.
type Record struct {
	Name  string  `json:"name"`
	Steps int64   `json:"steps"`
	Miles float64 `json:"miles,omitempty"` // explicit distance; 0 if missing
	Date  string  `json:"date"`            // YYYY-MM-DD
}

// Distance returns the walker's distance traveled in route units, preferring
// an explicit distance over the step count.
func (r Record) Distance(rt *route.Route) float64 {
	if r.Miles > 0 {
		return r.Miles
	}
	return rt.DistanceFromSteps(float64(r.Steps))
}

// Source fetches live progress records.
type Source interface {
	Fetch(ctx context.Context) ([]Record, error)
}

// ErrCacheEmpty is returned by Cache.Load when nothing has been stored yet.
var ErrCacheEmpty = errors.New("progress cache is empty")

// Cache keeps the most recent successfully fetched records.
type Cache interface {
	Load(ctx context.Context) ([]Record, time.Time, error)
	Store(ctx context.Context, records []Record) error
}

// Origin says where a set of records came from, so the UI can show how fresh it is.
type Origin int

const (
	Fetched Origin = iota
	Cached
	Default
)

func (o Origin) String() string {
	switch o {
	case Fetched:
		return "fetched"
	case Cached:
		return "cached"
	case Default:
		return "default"
	}
	return "unknown"
}

func (o Origin) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// Result is the outcome of one load through the fallback chain.
type Result struct {
	Origin  Origin
	Records []Record
	// At is when the records were fetched; for cached records it is the
	// original fetch time.
	At time.Time
	// Err is the live fetch error that caused a fallback, if any.
	Err error
}
