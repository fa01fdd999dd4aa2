package curve

import (
	"strconv"
	"strings"

	"github.com/twpayne/go-polyline"

	"journey-tracker/internal/route"
)

// Viewport maps normalized map positions onto image pixels.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DefaultViewport is used when the map image size is unknown.
var DefaultViewport = Viewport{Width: 1000, Height: 700}

func (v Viewport) ToScreen(p route.Point) route.Point {
	return route.Point{X: p.X * v.Width / route.MapExtent, Y: p.Y * v.Height / route.MapExtent}
}

// Vec3 is a position in the 3D scene. Y is up.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Scene places the map on the horizontal plane of a 3D world centred on the
// map's midpoint.
type Scene struct {
	Width     float64
	Height    float64
	Scale     float64
	Elevation float64
}

var DefaultScene = Scene{Width: 7680, Height: 4386, Scale: 2, Elevation: 20}

func (s Scene) ToWorld(p route.Point) Vec3 {
	half := route.MapExtent / 2
	return Vec3{
		X: (p.X - half) / route.MapExtent * (s.Width / s.Scale),
		Y: s.Elevation,
		Z: (p.Y - half) / route.MapExtent * (s.Height / s.Scale),
	}
}

// SVGPath renders the curve as SVG path data ("M x y C ...") in viewport pixels.
func (c *Curve) SVGPath(v Viewport) string {
	var b strings.Builder
	start := v.ToScreen(c.segments[0].P0)
	b.WriteString("M ")
	writePair(&b, start)
	for _, s := range c.segments {
		b.WriteString(" C ")
		writePair(&b, v.ToScreen(s.C1))
		b.WriteString(", ")
		writePair(&b, v.ToScreen(s.C2))
		b.WriteString(", ")
		writePair(&b, v.ToScreen(s.P1))
	}
	return b.String()
}

func writePair(b *strings.Builder, p route.Point) {
	b.WriteString(strconv.FormatFloat(p.X, 'f', -1, 64))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatFloat(p.Y, 'f', -1, 64))
}

// Polyline flattens the curve into points in normalized map space, sampling
// each segment samplesPerSegment times. Every waypoint is included.
func (c *Curve) Polyline(samplesPerSegment int) []route.Point {
	if samplesPerSegment < 1 {
		samplesPerSegment = 1
	}
	pts := make([]route.Point, 0, len(c.segments)*samplesPerSegment+1)
	pts = append(pts, c.segments[0].P0)
	for _, s := range c.segments {
		for k := 1; k <= samplesPerSegment; k++ {
			pts = append(pts, s.At(float64(k)/float64(samplesPerSegment)))
		}
	}
	return pts
}

// EncodedPolyline returns Polyline in the Google encoded polyline format with
// Y in the first (latitude) slot and X in the second.
func (c *Curve) EncodedPolyline(samplesPerSegment int) string {
	pts := c.Polyline(samplesPerSegment)
	coords := make([][]float64, len(pts))
	for i, p := range pts {
		coords[i] = []float64{p.Y, p.X}
	}
	return string(polyline.EncodeCoords(coords))
}
