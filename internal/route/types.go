package route

import "math"

// MapExtent is the upper bound of both normalized map axes. Positions are
// percentages of the map image dimensions.
const MapExtent = 100.0

// Point is a position in normalized map space, each axis in [0, MapExtent].
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Scale returns p scaled by k on both axes.
func (p Point) Scale(k float64) Point { return Point{X: p.X * k, Y: p.Y * k} }

// Lerp interpolates from p towards q by t.
func (p Point) Lerp(q Point, t float64) Point {
	if t == 1 {
		return q
	}
	return Point{X: p.X + (q.X-p.X)*t, Y: p.Y + (q.Y-p.Y)*t}
}

// Dist returns the straight-line distance between p and q.
func (p Point) Dist(q Point) float64 { return math.Hypot(q.X-p.X, q.Y-p.Y) }

// Waypoint is a named, fixed stop along the journey.
type Waypoint struct {
	Name               string  `json:"name"`
	Position           Point   `json:"position"`
	CumulativeDistance float64 `json:"cumulativeDistance"`
	Description        string  `json:"description,omitempty"`
}

// Config is the authored description of a journey. It is validated once by New.
type Config struct {
	// TotalDistance is the configured journey length. It may exceed the
	// distance of the last waypoint.
	TotalDistance float64
	// StepsPerUnit converts a step count into distance units (e.g. 2000 steps per mile).
	StepsPerUnit float64
	Waypoints    []Waypoint
}
