// Package route holds the static geometry of a journey and converts between
// distance traveled, progress fraction and map position.
//
// Every conversion is total: out of range or malformed numeric input is
// clamped, since progress records come from an external source and a single
// bad record must not break rendering.
package route

import (
	"fmt"
	"math"
)

// Route is an immutable, validated journey. It is safe for concurrent readers.
type Route struct {
	totalDistance float64
	stepsPerUnit  float64
	waypoints     []Waypoint
	// fractions[i] is waypoints[i].CumulativeDistance / totalDistance.
	fractions []float64
	warnings  []string
}

// New validates cfg and builds a Route. Invalid configuration is reported as a
// *ConfigurationError.
func New(cfg Config) (*Route, error) {
	n := len(cfg.Waypoints)
	if n < 2 {
		return nil, configErr("waypoints", "need at least 2 waypoints, got %d", n)
	}
	if !finite(cfg.StepsPerUnit) || cfg.StepsPerUnit <= 0 {
		return nil, configErr("stepsPerUnit", "must be a positive number, got %v", cfg.StepsPerUnit)
	}

	names := make(map[string]int, n)
	for i, wp := range cfg.Waypoints {
		field := fmt.Sprintf("waypoints[%d]", i)
		if wp.Name == "" {
			return nil, configErr(field, "name is empty")
		}
		if j, dup := names[wp.Name]; dup {
			return nil, configErr(field, "name %q already used by waypoints[%d]", wp.Name, j)
		}
		names[wp.Name] = i
		if !finite(wp.Position.X) || !finite(wp.Position.Y) ||
			wp.Position.X < 0 || wp.Position.X > MapExtent ||
			wp.Position.Y < 0 || wp.Position.Y > MapExtent {
			return nil, configErr(field, "position (%v, %v) outside [0, %v]", wp.Position.X, wp.Position.Y, MapExtent)
		}
		d := wp.CumulativeDistance
		if !finite(d) || d < 0 {
			return nil, configErr(field, "cumulative distance must be a non-negative number, got %v", d)
		}
		if i == 0 && d != 0 {
			return nil, configErr(field, "journey must start at distance 0, got %v", d)
		}
		if i > 0 && d < cfg.Waypoints[i-1].CumulativeDistance {
			return nil, configErr(field, "cumulative distance %v is less than previous %v", d, cfg.Waypoints[i-1].CumulativeDistance)
		}
	}

	last := cfg.Waypoints[n-1].CumulativeDistance
	if last == 0 {
		return nil, configErr("waypoints", "all waypoints are at the start; the journey has no length")
	}
	if !finite(cfg.TotalDistance) || cfg.TotalDistance <= 0 {
		return nil, configErr("totalDistance", "must be a positive number, got %v", cfg.TotalDistance)
	}
	if cfg.TotalDistance < last {
		return nil, configErr("totalDistance", "%v is shorter than the last waypoint distance %v", cfg.TotalDistance, last)
	}

	r := &Route{
		totalDistance: cfg.TotalDistance,
		stepsPerUnit:  cfg.StepsPerUnit,
		waypoints:     append([]Waypoint(nil), cfg.Waypoints...),
		fractions:     make([]float64, n),
	}
	for i, wp := range r.waypoints {
		r.fractions[i] = wp.CumulativeDistance / r.totalDistance
	}
	if cfg.TotalDistance != last {
		r.warnings = append(r.warnings, fmt.Sprintf(
			"total distance %v does not match last waypoint %q at %v",
			cfg.TotalDistance, r.waypoints[n-1].Name, last))
	}
	return r, nil
}

// Warnings returns non-fatal findings from validation.
func (r *Route) Warnings() []string { return append([]string(nil), r.warnings...) }

func (r *Route) TotalDistance() float64 { return r.totalDistance }

func (r *Route) StepsPerUnit() float64 { return r.stepsPerUnit }

// TotalSteps is the step count that completes the journey.
func (r *Route) TotalSteps() float64 { return r.totalDistance * r.stepsPerUnit }

// Len returns the number of waypoints.
func (r *Route) Len() int { return len(r.waypoints) }

// Waypoint returns the i-th waypoint. It panics if i is out of range, like a slice index.
func (r *Route) Waypoint(i int) Waypoint { return r.waypoints[i] }

// Waypoints returns a copy of the ordered waypoint list.
func (r *Route) Waypoints() []Waypoint { return append([]Waypoint(nil), r.waypoints...) }

// Points returns the waypoint positions in order.
func (r *Route) Points() []Point {
	pts := make([]Point, len(r.waypoints))
	for i, wp := range r.waypoints {
		pts[i] = wp.Position
	}
	return pts
}

// CurrentWaypoint returns the last waypoint whose cumulative distance is at or
// before distance. Before the start it returns the first waypoint.
func (r *Route) CurrentWaypoint(distance float64) Waypoint {
	distance = sanitize(distance)
	for i := len(r.waypoints) - 1; i >= 0; i-- {
		if distance >= r.waypoints[i].CumulativeDistance {
			return r.waypoints[i]
		}
	}
	return r.waypoints[0]
}

// NextWaypoint returns the first waypoint strictly beyond distance. ok is
// false once distance reaches the last waypoint.
func (r *Route) NextWaypoint(distance float64) (wp Waypoint, ok bool) {
	distance = sanitize(distance)
	for _, w := range r.waypoints {
		if w.CumulativeDistance > distance {
			return w, true
		}
	}
	return Waypoint{}, false
}

// ProgressFraction returns distance / TotalDistance clamped to [0, 1].
func (r *Route) ProgressFraction(distance float64) float64 {
	return clamp01(sanitize(distance) / r.totalDistance)
}

// DistanceFromSteps converts a step count into distance units.
func (r *Route) DistanceFromSteps(steps float64) float64 {
	return steps / r.stepsPerUnit
}

// PositionAtFraction linearly interpolates the map position for a progress
// fraction. Fractions at or past the last waypoint return its position exactly
// and fractions before the start return the first position.
func (r *Route) PositionAtFraction(fraction float64) Point {
	i, t := r.locate(sanitize(fraction))
	return r.waypoints[i].Position.Lerp(r.waypoints[i+1].Position, t)
}

// PositionAtDistance is PositionAtFraction(ProgressFraction(distance)).
func (r *Route) PositionAtDistance(distance float64) Point {
	return r.PositionAtFraction(r.ProgressFraction(distance))
}

// Locate returns the segment (waypoints[i] -> waypoints[i+1]) containing
// distance and the progress within it, in [0, 1].
func (r *Route) Locate(distance float64) (segment int, progress float64) {
	return r.locate(r.ProgressFraction(distance))
}

// locate brackets fraction in [fractions[i], fractions[i+1]). Zero-length
// segments have an empty bracket and are never selected, so a fraction that
// lands on co-located waypoints resolves to the later one.
func (r *Route) locate(fraction float64) (int, float64) {
	last := len(r.fractions) - 1
	if fraction >= r.fractions[last] {
		return last - 1, 1
	}
	if fraction <= 0 {
		return 0, 0
	}
	for i := 0; i < last; i++ {
		lo, hi := r.fractions[i], r.fractions[i+1]
		if fraction >= lo && fraction < hi {
			span := hi - lo
			if span <= 0 {
				return i, 1
			}
			return i, (fraction - lo) / span
		}
	}
	return last - 1, 1
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// sanitize maps NaN to zero so comparisons stay meaningful.
func sanitize(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
