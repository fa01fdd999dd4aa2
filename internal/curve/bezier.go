package curve

import (
	"sort"

	"journey-tracker/internal/route"
)

// arcSamples is the number of chords used to measure each segment.
const arcSamples = 64

// Segment is one cubic Bézier piece of the curve, from P0 to P1 with control
// points C1 and C2.
type Segment struct {
	P0, C1, C2, P1 route.Point

	// lut[k] is the arc length from t=0 to t=k/arcSamples.
	lut []float64
}

func newSegment(p0, c1, c2, p1 route.Point) Segment {
	s := Segment{P0: p0, C1: c1, C2: c2, P1: p1}
	s.lut = make([]float64, arcSamples+1)
	prev := p0
	for k := 1; k <= arcSamples; k++ {
		pt := s.At(float64(k) / arcSamples)
		s.lut[k] = s.lut[k-1] + prev.Dist(pt)
		prev = pt
	}
	return s
}

// At evaluates the segment at parameter t in [0, 1]. The endpoints are
// returned exactly.
func (s Segment) At(t float64) route.Point {
	switch {
	case t <= 0:
		return s.P0
	case t >= 1:
		return s.P1
	}
	mt := 1 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	c := 3 * mt * t * t
	d := t * t * t
	return route.Point{
		X: a*s.P0.X + b*s.C1.X + c*s.C2.X + d*s.P1.X,
		Y: a*s.P0.Y + b*s.C1.Y + c*s.C2.Y + d*s.P1.Y,
	}
}

// Length is the arc length of the whole segment.
func (s Segment) Length() float64 { return s.lut[arcSamples] }

// LengthAt returns the arc length from the start of the segment to parameter t.
func (s Segment) LengthAt(t float64) float64 {
	switch {
	case t <= 0:
		return 0
	case t >= 1:
		return s.Length()
	}
	x := t * arcSamples
	k := int(x)
	return s.lut[k] + (s.lut[k+1]-s.lut[k])*(x-float64(k))
}

// ParamAtLength inverts LengthAt: it returns the parameter whose arc length
// from the segment start is length.
func (s Segment) ParamAtLength(length float64) float64 {
	if length <= 0 {
		return 0
	}
	if length >= s.Length() {
		return 1
	}
	// first sample whose cumulative length reaches length
	k := sort.SearchFloat64s(s.lut, length)
	if k == 0 {
		return 0
	}
	lo, hi := s.lut[k-1], s.lut[k]
	frac := 0.0
	if hi > lo {
		frac = (length - lo) / (hi - lo)
	}
	return (float64(k-1) + frac) / arcSamples
}

// Smooth converts an ordered point sequence into N-1 cubic Bézier segments
// using the Catmull-Rom construction. Neighbours beyond either end are clamped
// to the boundary point. The curve passes through every input point.
func Smooth(points []route.Point) ([]Segment, error) {
	n := len(points)
	if n < 2 {
		return nil, &route.ConfigurationError{Field: "points", Reason: "a curve needs at least 2 points"}
	}
	segs := make([]Segment, 0, n-1)
	for i := 0; i < n-1; i++ {
		p0 := points[max(i-1, 0)]
		p1 := points[i]
		p2 := points[i+1]
		p3 := points[min(i+2, n-1)]

		c1 := p1.Add(p2.Sub(p0).Scale(1.0 / 6))
		c2 := p2.Sub(p3.Sub(p1).Scale(1.0 / 6))
		segs = append(segs, newSegment(p1, c1, c2, p2))
	}
	return segs, nil
}
