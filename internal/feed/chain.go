// Package feed supplies walker progress records. It fetches them from a
// published spreadsheet and falls back to the last cached snapshot and then
// to built-in demo data, reporting which of the three it used.
package feed

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"journey-tracker/internal/logging"
)

// Chain loads records through live source -> cache -> default.
// Source and Cache are optional.
type Chain struct {
	Source  Source
	Cache   Cache
	Default func() []Record
	Logger  *slog.Logger
	Now     func() time.Time
}

// Load never fails: when every layer is unavailable it returns the default records.
func (c *Chain) Load(ctx context.Context) Result {
	logger := c.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	var liveErr error
	if c.Source != nil {
		records, err := c.Source.Fetch(ctx)
		if err == nil {
			if c.Cache != nil {
				if err := c.Cache.Store(ctx, records); err != nil {
					logging.LogError(logger, "failed to cache progress", err,
						slog.String("component", "feed"))
				}
			}
			return Result{Origin: Fetched, Records: records, At: c.now()}
		}
		liveErr = err
		logger.Warn("live progress fetch failed, falling back",
			slog.String("component", "feed"),
			slog.String("error", err.Error()))
	}

	if c.Cache != nil {
		records, at, err := c.Cache.Load(ctx)
		switch {
		case err == nil && len(records) > 0:
			return Result{Origin: Cached, Records: records, At: at, Err: liveErr}
		case err != nil && !errors.Is(err, ErrCacheEmpty):
			logging.LogError(logger, "failed to read progress cache", err,
				slog.String("component", "feed"))
		}
	}

	var records []Record
	if c.Default != nil {
		records = c.Default()
	} else {
		records = DemoRecords()
	}
	return Result{Origin: Default, Records: records, At: c.now(), Err: liveErr}
}

func (c *Chain) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// DemoRecords is the built-in progress shown when no sheet is configured.
func DemoRecords() []Record {
	return []Record{
		{Name: "Rosie", Steps: 458000, Date: "2025-01-11"},
		{Name: "Lily", Steps: 392000, Date: "2025-01-11"},
	}
}
