// Package curve builds the smooth path drawn through a route's waypoints and
// answers arc-length queries against it, so that the share of the path drawn
// matches the share of the journey walked.
package curve

import (
	"math"
	"sort"

	"journey-tracker/internal/route"
)

// Curve is the cached, read-only smooth path for a Route.
type Curve struct {
	route    *route.Route
	segments []Segment
	// prefix[i] is the arc length before segments[i].
	prefix []float64
	total  float64
}

// New smooths the route's waypoint positions and caches per-segment lengths.
func New(r *route.Route) (*Curve, error) {
	if r == nil {
		return nil, &route.ConfigurationError{Field: "route", Reason: "route is nil"}
	}
	segs, err := Smooth(r.Points())
	if err != nil {
		return nil, err
	}
	c := &Curve{
		route:    r,
		segments: segs,
		prefix:   make([]float64, len(segs)),
	}
	for i, s := range segs {
		c.prefix[i] = c.total
		c.total += s.Length()
	}
	return c, nil
}

// Route returns the route the curve was built from.
func (c *Curve) Route() *route.Route { return c.route }

// Segments returns a copy of the Bézier segments in route order.
func (c *Curve) Segments() []Segment { return append([]Segment(nil), c.segments...) }

// TotalLength is the arc length of the whole curve in normalized map units.
func (c *Curve) TotalLength() float64 { return c.total }

// LengthAtDistance returns the arc length of the curve that corresponds to
// distance traveled: every segment already passed plus the walked share of
// the current segment's own length.
//
// It is 0 at or before the start and TotalLength at or past the route's total distance.
func (c *Curve) LengthAtDistance(distance float64) float64 {
	if math.IsNaN(distance) || distance <= 0 {
		return 0
	}
	if distance >= c.route.TotalDistance() {
		return c.total
	}
	i, progress := c.route.Locate(distance)
	return c.prefix[i] + progress*c.segments[i].Length()
}

// PointAtDistance returns the point on the curve where the traveled trail
// for distance ends.
func (c *Curve) PointAtDistance(distance float64) route.Point {
	if math.IsNaN(distance) || distance <= 0 {
		return c.segments[0].P0
	}
	i, progress := c.route.Locate(distance)
	s := c.segments[i]
	return s.At(s.ParamAtLength(progress * s.Length()))
}

// PointAt returns the point at fraction u of the curve's arc length, ignoring
// waypoint distances. u is clamped to [0, 1].
func (c *Curve) PointAt(u float64) route.Point {
	if math.IsNaN(u) || u <= 0 {
		return c.segments[0].P0
	}
	if u >= 1 {
		return c.segments[len(c.segments)-1].P1
	}
	length := u * c.total
	// last segment starting at or before length
	i := sort.Search(len(c.prefix), func(k int) bool { return c.prefix[k] > length }) - 1
	if i < 0 {
		i = 0
	}
	s := c.segments[i]
	return s.At(s.ParamAtLength(length - c.prefix[i]))
}
