// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2lloyd

import (
	"errors"
	"fmt"
	"slices"

	"github.com/2dChan/s2lloyd/internal/tangent"
	"github.com/2dChan/s2lloyd/s2hull"
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
	"go.uber.org/zap"
)

// Diagram is a Voronoi diagram on the unit sphere derived from the convex
// hull of its sites. Each hull face contributes one Voronoi vertex, its normal.
type Diagram struct {
	Sites    s2.PointVector
	Vertices s2.PointVector

	// NOTE: Sort in CCW per Cell(look out of sphere)
	CellVertices []int
	// NOTE: CellNeighbors[CellOffsets[i]+j] is the site across the edge
	// from vertex j to vertex j+1 of cell i.
	CellNeighbors []int
	CellOffsets   []int

	opts Options
}

// NewDiagram computes the Voronoi diagram of sites, which must lie on the unit sphere.
func NewDiagram(sites s2.PointVector, setters ...Option) (*Diagram, error) {
	opts, err := newOptions(setters)
	if err != nil {
		return nil, err
	}
	return newDiagram(sites, opts)
}

func newDiagram(sites s2.PointVector, opts Options) (*Diagram, error) {
	h, err := opts.Hull.ConvexHull(sites)
	if err != nil {
		if !errors.Is(err, ErrHull) {
			err = fmt.Errorf("%w: %w", ErrHull, err)
		}
		return nil, err
	}
	if len(h.Sites) != len(sites) || len(h.IncidentFaceOffsets) != len(sites)+1 {
		return nil, fmt.Errorf("%w: hull indexes %d sites, want %d", ErrHull, len(h.Sites), len(sites))
	}

	numVertices := len(h.Faces)
	d := &Diagram{
		Sites:         slices.Clone(sites),
		Vertices:      make(s2.PointVector, numVertices),
		CellVertices:  slices.Clone(h.IncidentFaceIndices),
		CellNeighbors: make([]int, len(h.IncidentFaceIndices)),
		CellOffsets:   slices.Clone(h.IncidentFaceOffsets),
		opts:          opts,
	}
	for i, f := range h.Faces {
		d.Vertices[i] = f.Normal
	}

	err = parallelFor(len(d.Sites), opts.Workers, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			if err := d.buildCell(i, h.Faces); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	opts.Logger.Debug("built voronoi diagram",
		zap.Int("sites", len(d.Sites)),
		zap.Int("vertices", len(d.Vertices)),
	)
	return d, nil
}

// buildCell orders cell i's vertices CCW and fills in its neighbors.
// It writes only to cell i's slots.
func (d *Diagram) buildCell(i int, faces []s2hull.Face) error {
	start, end := d.CellOffsets[i], d.CellOffsets[i+1]
	verts := d.CellVertices[start:end]
	if len(verts) < 3 {
		return fmt.Errorf("%w: cell %d has %d vertices, want at least 3",
			ErrGeometryDegeneracy, i, len(verts))
	}

	eps := d.opts.Eps
	frame, err := tangent.NewFrame(d.Sites[i].Vector, eps)
	if err != nil {
		return fmt.Errorf("%w: cell %d: %w", ErrGeometryDegeneracy, i, err)
	}
	at := func(v int) r3.Vector { return d.Vertices[v].Vector }
	if err := frame.Sort(verts, at, eps); err != nil {
		return fmt.Errorf("%w: cell %d: %w", ErrGeometryDegeneracy, i, err)
	}

	for a := range verts {
		for b := a + 1; b < len(verts); b++ {
			if d.Vertices[verts[a]].Sub(d.Vertices[verts[b]].Vector).Norm() <= eps {
				return fmt.Errorf("%w: cell %d has coincident vertices %d and %d",
					ErrGeometryDegeneracy, i, verts[a], verts[b])
			}
		}
	}

	k := len(verts)
	for j := 0; j < k; j++ {
		n, ok := sharedSite(faces[verts[j]].Vertices, faces[verts[(j+1)%k]].Vertices, i)
		if !ok {
			return fmt.Errorf("%w: cell %d vertices %d and %d share no edge",
				ErrGeometryDegeneracy, i, verts[j], verts[(j+1)%k])
		}
		d.CellNeighbors[start+j] = n
	}
	return nil
}

// sharedSite returns the site other than self present in both faces.
func sharedSite(a, b []int, self int) (int, bool) {
	for _, v := range a {
		if v != self && slices.Contains(b, v) {
			return v, true
		}
	}
	return 0, false
}

func (d *Diagram) NumCells() int {
	return len(d.Sites)
}

// Cell returns the cell of site i.
// It returns an error if the index is out of range.
func (d *Diagram) Cell(i int) (Cell, error) {
	if i < 0 || i >= len(d.Sites) {
		return Cell{}, fmt.Errorf("Cell: index %d out of range [0 %d)", i, len(d.Sites))
	}
	return Cell{idx: i, d: d}, nil
}

// Cells returns every cell, indexed like Sites.
func (d *Diagram) Cells() []Cell {
	cells := make([]Cell, len(d.Sites))
	for i := range cells {
		cells[i] = Cell{idx: i, d: d}
	}
	return cells
}
