package curve

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"

	"journey-tracker/internal/route"
)

func testRoute(t *testing.T, total float64) *route.Route {
	t.Helper()
	r, err := route.New(route.Config{
		TotalDistance: total,
		StepsPerUnit:  2000,
		Waypoints: []route.Waypoint{
			{Name: "Start", Position: route.Point{X: 0, Y: 0}, CumulativeDistance: 0},
			{Name: "Middle", Position: route.Point{X: 50, Y: 50}, CumulativeDistance: 100},
			{Name: "Bend", Position: route.Point{X: 60, Y: 20}, CumulativeDistance: 150},
			{Name: "End", Position: route.Point{X: 100, Y: 0}, CumulativeDistance: 300},
		},
	})
	require.NoError(t, err)
	return r
}

func TestSmoothRejectsShortInput(t *testing.T) {
	for _, pts := range [][]route.Point{nil, {{X: 1, Y: 1}}} {
		segs, err := Smooth(pts)
		assert.Nil(t, segs)
		require.Error(t, err)
		assert.True(t, errors.Is(err, route.ErrConfiguration))
	}
}

func TestSmoothControlPoints(t *testing.T) {
	pts := []route.Point{{X: 0, Y: 0}, {X: 60, Y: 30}, {X: 90, Y: 90}}
	segs, err := Smooth(pts)
	require.NoError(t, err)
	require.Len(t, segs, 2)

	// first segment: p_{i-1} clamps to p_0
	assert.InDelta(t, 10, segs[0].C1.X, 1e-12)
	assert.InDelta(t, 5, segs[0].C1.Y, 1e-12)
	assert.InDelta(t, 45, segs[0].C2.X, 1e-12)
	assert.InDelta(t, 15, segs[0].C2.Y, 1e-12)

	// last segment: p_{i+2} clamps to p_{n-1}
	assert.InDelta(t, 75, segs[1].C1.X, 1e-12)
	assert.InDelta(t, 45, segs[1].C1.Y, 1e-12)
	assert.InDelta(t, 85, segs[1].C2.X, 1e-12)
	assert.InDelta(t, 80, segs[1].C2.Y, 1e-12)
}

func TestCurvePassesThroughWaypoints(t *testing.T) {
	r := testRoute(t, 300)
	c, err := New(r)
	require.NoError(t, err)

	segs := c.Segments()
	require.Len(t, segs, r.Len()-1)
	for i, s := range segs {
		assert.Equal(t, r.Waypoint(i).Position, s.At(0))
		assert.Equal(t, r.Waypoint(i+1).Position, s.At(1))
	}
}

func TestCurveIsC1AtInteriorWaypoints(t *testing.T) {
	c, err := New(testRoute(t, 300))
	require.NoError(t, err)

	segs := c.Segments()
	for i := 0; i < len(segs)-1; i++ {
		// outgoing tangent of segment i is 3(P1-C2); incoming of i+1 is 3(C1-P0)
		out := segs[i].P1.Sub(segs[i].C2)
		in := segs[i+1].C1.Sub(segs[i+1].P0)
		assert.InDelta(t, out.X, in.X, 1e-9)
		assert.InDelta(t, out.Y, in.Y, 1e-9)
	}
}

func TestSegmentLength(t *testing.T) {
	// collinear control points give a straight segment
	segs, err := Smooth([]route.Point{{X: 0, Y: 0}, {X: 30, Y: 40}})
	require.NoError(t, err)
	s := segs[0]

	assert.InDelta(t, 50, s.Length(), 1e-9)
	assert.Equal(t, 0.0, s.LengthAt(0))
	assert.Equal(t, s.Length(), s.LengthAt(1))

	for _, u := range []float64{0.1, 0.25, 0.5, 0.9} {
		param := s.ParamAtLength(u * s.Length())
		assert.InDelta(t, u*s.Length(), s.LengthAt(param), 1e-6)
	}
}

func TestNewRejectsNilRoute(t *testing.T) {
	c, err := New(nil)
	assert.Nil(t, c)
	assert.True(t, errors.Is(err, route.ErrConfiguration))
}

func TestLengthAtDistance(t *testing.T) {
	r := testRoute(t, 300)
	c, err := New(r)
	require.NoError(t, err)

	t.Run("boundaries", func(t *testing.T) {
		assert.Equal(t, 0.0, c.LengthAtDistance(0))
		assert.Equal(t, 0.0, c.LengthAtDistance(-20))
		assert.Equal(t, 0.0, c.LengthAtDistance(math.NaN()))
		assert.Equal(t, c.TotalLength(), c.LengthAtDistance(r.TotalDistance()))
		assert.Equal(t, c.TotalLength(), c.LengthAtDistance(r.TotalDistance()*3))
	})

	t.Run("monotonic", func(t *testing.T) {
		prev := 0.0
		for d := 0.0; d <= 320; d += 0.25 {
			l := c.LengthAtDistance(d)
			assert.GreaterOrEqual(t, l, prev, "distance %v", d)
			prev = l
		}
	})

	t.Run("waypoints map to segment boundaries", func(t *testing.T) {
		segs := c.Segments()
		expected := 0.0
		for i, wp := range r.Waypoints()[:r.Len()-1] {
			assert.InDelta(t, expected, c.LengthAtDistance(wp.CumulativeDistance), 1e-9, wp.Name)
			expected += segs[i].Length()
		}
	})

	t.Run("weights by segment progress", func(t *testing.T) {
		segs := c.Segments()
		assert.InDelta(t, segs[0].Length()/2, c.LengthAtDistance(50), 1e-9)
	})
}

func TestLengthAtDistanceWithLongerTotal(t *testing.T) {
	r := testRoute(t, 320)
	c, err := New(r)
	require.NoError(t, err)

	// distances between the last waypoint and the configured total draw the full curve
	assert.Equal(t, c.TotalLength(), c.LengthAtDistance(300))
	assert.Equal(t, c.TotalLength(), c.LengthAtDistance(310))
	assert.Equal(t, c.TotalLength(), c.LengthAtDistance(320))
}

func TestPointAtDistance(t *testing.T) {
	r := testRoute(t, 300)
	c, err := New(r)
	require.NoError(t, err)

	for _, wp := range r.Waypoints() {
		p := c.PointAtDistance(wp.CumulativeDistance)
		assert.InDelta(t, wp.Position.X, p.X, 1e-9, wp.Name)
		assert.InDelta(t, wp.Position.Y, p.Y, 1e-9, wp.Name)
	}
	assert.Equal(t, r.Waypoint(0).Position, c.PointAtDistance(-1))
}

func TestPointAt(t *testing.T) {
	c, err := New(testRoute(t, 300))
	require.NoError(t, err)

	assert.Equal(t, route.Point{X: 0, Y: 0}, c.PointAt(0))
	assert.Equal(t, route.Point{X: 100, Y: 0}, c.PointAt(1))
	assert.Equal(t, route.Point{X: 100, Y: 0}, c.PointAt(2))

	segs := c.Segments()
	boundary := segs[0].Length() / c.TotalLength()
	p := c.PointAt(boundary)
	assert.InDelta(t, 50, p.X, 1e-6)
	assert.InDelta(t, 50, p.Y, 1e-6)
}

func TestSVGPath(t *testing.T) {
	r, err := route.New(route.Config{
		TotalDistance: 10,
		StepsPerUnit:  1,
		Waypoints: []route.Waypoint{
			{Name: "A", Position: route.Point{X: 0, Y: 0}},
			{Name: "B", Position: route.Point{X: 60, Y: 30}, CumulativeDistance: 10},
		},
	})
	require.NoError(t, err)
	c, err := New(r)
	require.NoError(t, err)

	d := c.SVGPath(Viewport{Width: 100, Height: 100})
	assert.Equal(t, "M 0 0 C 10 5, 50 25, 60 30", d)

	scaled := c.SVGPath(Viewport{Width: 200, Height: 10})
	assert.True(t, strings.HasPrefix(scaled, "M 0 0 C 20 0.5,"), scaled)
	assert.True(t, strings.HasSuffix(scaled, "120 3"), scaled)
}

func TestPolyline(t *testing.T) {
	r := testRoute(t, 300)
	c, err := New(r)
	require.NoError(t, err)

	pts := c.Polyline(8)
	require.Len(t, pts, 3*8+1)
	for i, wp := range r.Waypoints() {
		assert.Equal(t, wp.Position, pts[i*8], wp.Name)
	}

	assert.Len(t, c.Polyline(0), 3+1)

	encoded := c.EncodedPolyline(8)
	decoded, rest, err := polyline.DecodeCoords([]byte(encoded))
	require.NoError(t, err)
	assert.Empty(t, rest)
	require.Len(t, decoded, len(pts))
	assert.InDelta(t, 50, decoded[8][0], 1e-5)
	assert.InDelta(t, 50, decoded[8][1], 1e-5)
}

func TestProjections(t *testing.T) {
	p := route.Point{X: 50, Y: 25}

	assert.Equal(t, route.Point{X: 500, Y: 175}, DefaultViewport.ToScreen(p))

	w := DefaultScene.ToWorld(p)
	assert.Equal(t, 0.0, w.X)
	assert.Equal(t, 20.0, w.Y)
	assert.InDelta(t, -0.25*4386/2, w.Z, 1e-9)
}
