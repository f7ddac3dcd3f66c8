// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package render draws Voronoi diagrams and point sets as SVG maps.
package render

import (
	"fmt"
	"io"
	"math"

	"github.com/2dChan/s2lloyd"
	"github.com/2dChan/s2lloyd/s2hull"
	svg "github.com/ajstarks/svgo"
	"github.com/golang/geo/s2"
)

const (
	DefaultWidth = 1500

	backgroundStyle = "fill:rgb(255,255,255)"
	polygonStyle    = "fill:rgb(255,255,255);stroke:rgb(170,170,170);stroke-width:1;stroke-opacity:1.0"
	siteStyle       = "fill:rgb(255,0,0)"
	hullSiteStyle   = "fill:rgb(0,0,255)"
	siteRadius      = 3
)

// Map is a plate carrée canvas of the given width and half that height.
type Map struct {
	width  int
	height int
	proj   s2.Projection
}

// New returns a map of the given width in pixels.
func New(width int) (*Map, error) {
	if width < 2 {
		return nil, fmt.Errorf("render: width must be at least 2, got %d", width)
	}
	return &Map{
		width:  width,
		height: width / 2,
		proj:   s2.NewPlateCarreeProjection(float64(width)),
	}, nil
}

// PointToScreen maps p to pixel coordinates.
func (m *Map) PointToScreen(p s2.Point) (int, int) {
	xScale := float64(m.width)
	r2p := m.proj.Project(p)

	x := (r2p.X + xScale) / (2 * xScale)
	y := (-r2p.Y + xScale/2) / xScale

	return int(x * float64(m.width)), int(y * float64(m.height))
}

// Diagram draws every cell polygon of vd and its sites. Cells that may cross
// the antimeridian are skipped. It returns the number of polygons drawn.
func (m *Map) Diagram(w io.Writer, vd *s2lloyd.Diagram) (int, error) {
	ew := &errWriter{w: w}
	canvas := m.start(ew)

	drawn := 0
	xPoints := make([]int, 0)
	yPoints := make([]int, 0)
	for _, cell := range vd.Cells() {
		xPoints = xPoints[:0]
		yPoints = yPoints[:0]

		draw := true
		sLng := s2.LatLngFromPoint(cell.Site()).Lng.Radians()
		for _, vert := range cell.Vertices() {
			vLng := s2.LatLngFromPoint(vert).Lng.Radians()
			if math.Abs(vLng-sLng) > math.Pi {
				draw = false
				break
			}

			x, y := m.PointToScreen(vert)
			xPoints = append(xPoints, x)
			yPoints = append(yPoints, y)
		}

		if draw {
			canvas.Polygon(xPoints, yPoints, polygonStyle)
			drawn++
		}
	}

	m.sites(canvas, vd.Sites)
	canvas.End()
	return drawn, ew.err
}

// Hull draws the faces of h over its sites, skipping faces that may cross the
// antimeridian. It returns the number of polygons drawn.
func (m *Map) Hull(w io.Writer, h *s2hull.Hull) (int, error) {
	ew := &errWriter{w: w}
	canvas := m.start(ew)

	drawn := 0
	xPoints := make([]int, 0)
	yPoints := make([]int, 0)
	for _, f := range h.Faces {
		xPoints = xPoints[:0]
		yPoints = yPoints[:0]

		draw := true
		lng0 := s2.LatLngFromPoint(h.Sites[f.Vertices[0]]).Lng.Radians()
		for _, id := range f.Vertices {
			v := h.Sites[id]
			lng := s2.LatLngFromPoint(v).Lng.Radians()
			if math.Abs(lng0-lng) > math.Pi {
				draw = false
				break
			}

			x, y := m.PointToScreen(v)
			xPoints = append(xPoints, x)
			yPoints = append(yPoints, y)
		}

		if draw {
			canvas.Polygon(xPoints, yPoints, polygonStyle)
			drawn++
		}
	}

	for _, p := range h.Sites {
		x, y := m.PointToScreen(p)
		canvas.Circle(x, y, siteRadius, hullSiteStyle)
	}
	canvas.End()
	return drawn, ew.err
}

// Points draws the points alone.
func (m *Map) Points(w io.Writer, points s2.PointVector) error {
	ew := &errWriter{w: w}
	canvas := m.start(ew)
	m.sites(canvas, points)
	canvas.End()
	return ew.err
}

func (m *Map) start(w io.Writer) *svg.SVG {
	canvas := svg.New(w)
	canvas.Start(m.width, m.height)
	canvas.Rect(0, 0, m.width, m.height, backgroundStyle)
	return canvas
}

func (m *Map) sites(canvas *svg.SVG, points s2.PointVector) {
	for _, p := range points {
		sx, sy := m.PointToScreen(p)
		canvas.Circle(sx, sy, siteRadius, siteStyle)
	}
}

// errWriter keeps the first write error; svgo does not report them.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) Write(p []byte) (int, error) {
	if ew.err != nil {
		return len(p), nil
	}
	n, err := ew.w.Write(p)
	if err != nil {
		ew.err = err
	}
	return n, err
}
