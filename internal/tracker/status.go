package tracker

import (
	"math"
	"time"

	"journey-tracker/internal/curve"
	"journey-tracker/internal/feed"
	"journey-tracker/internal/route"
)

// WalkerStatus is one walker's resolved place on the journey.
type WalkerStatus struct {
	Name     string  `json:"name"`
	Steps    int64   `json:"steps"`
	Date     string  `json:"date"`
	Distance float64 `json:"distance"`
	Fraction float64 `json:"fraction"`
	Percent  float64 `json:"percent"`

	Current  route.Waypoint  `json:"current"`
	Next     *route.Waypoint `json:"next,omitempty"`
	Complete bool            `json:"complete"`

	// Position is the linearly interpolated map position (2D icon);
	// CurvePosition is the same progress on the smoothed curve.
	Position      route.Point `json:"position"`
	CurvePosition route.Point `json:"curvePosition"`
	World         curve.Vec3  `json:"world"`
	TrailLength   float64     `json:"trailLength"`
}

// Status converts one progress record. Malformed distances are clamped to
// the start rather than rejected.
func Status(r *route.Route, c *curve.Curve, scene curve.Scene, rec feed.Record) WalkerStatus {
	d := rec.Distance(r)
	if math.IsNaN(d) || d < 0 {
		d = 0
	}
	fraction := r.ProgressFraction(d)
	s := WalkerStatus{
		Name:          rec.Name,
		Steps:         rec.Steps,
		Date:          rec.Date,
		Distance:      d,
		Fraction:      fraction,
		Percent:       fraction * 100,
		Current:       r.CurrentWaypoint(d),
		Position:      r.PositionAtFraction(fraction),
		CurvePosition: c.PointAtDistance(d),
		TrailLength:   c.LengthAtDistance(d),
	}
	if next, ok := r.NextWaypoint(d); ok {
		s.Next = &next
	} else {
		s.Complete = true
	}
	s.World = scene.ToWorld(c.PointAt(math.Min(d/r.TotalDistance(), 1)))
	return s
}

// Snapshot is the state of every walker after one refresh.
type Snapshot struct {
	Origin    feed.Origin    `json:"origin"`
	FetchedAt time.Time      `json:"fetchedAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Walkers   []WalkerStatus `json:"walkers"`
	// Leader is the furthest walker; nil when there are no walkers.
	Leader *WalkerStatus `json:"leader,omitempty"`
	// TrailLength is how much of the curve is lit: up to the leader.
	TrailLength float64 `json:"trailLength"`
	CurveLength float64 `json:"curveLength"`
	// FetchError explains why live data was not used, if it was not.
	FetchError string `json:"fetchError,omitempty"`
}

// BuildSnapshot resolves every record in res.
func BuildSnapshot(r *route.Route, c *curve.Curve, scene curve.Scene, res feed.Result, now time.Time) Snapshot {
	snap := Snapshot{
		Origin:      res.Origin,
		FetchedAt:   res.At,
		UpdatedAt:   now,
		Walkers:     make([]WalkerStatus, 0, len(res.Records)),
		CurveLength: c.TotalLength(),
	}
	if res.Err != nil {
		snap.FetchError = res.Err.Error()
	}

	leader := -1
	for i, rec := range res.Records {
		s := Status(r, c, scene, rec)
		snap.Walkers = append(snap.Walkers, s)
		if leader < 0 || s.Distance > snap.Walkers[leader].Distance {
			leader = i
		}
	}
	if leader >= 0 {
		l := snap.Walkers[leader]
		snap.Leader = &l
		snap.TrailLength = l.TrailLength
	}
	return snap
}
