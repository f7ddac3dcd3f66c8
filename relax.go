// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2lloyd

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
	"go.uber.org/zap"
)

// Centroid approximates the spherical centroid of a polygon given by its
// vertices in cyclic order. Each edge contributes its midpoint direction
// weighted by its chord length. The result is exact for regular polygons
// and is not an area centroid in general.
func Centroid(vertices s2.PointVector) (s2.Point, error) {
	return centroid(vertices, defaultEps)
}

func centroid(vertices s2.PointVector, eps float64) (s2.Point, error) {
	k := len(vertices)
	if k < 3 {
		return s2.Point{}, fmt.Errorf("%w: centroid of %d vertices", ErrGeometryDegeneracy, k)
	}

	var sum r3.Vector
	for i := 0; i < k; i++ {
		v1 := vertices[i].Vector
		v2 := vertices[(i+1)%k].Vector
		sum = sum.Add(v1.Add(v2).Mul(v1.Sub(v2).Norm()))
	}

	n := sum.Norm()
	if !(n > eps) {
		return s2.Point{}, fmt.Errorf("%w: centroid sum has norm %v", ErrNumericalInstability, n)
	}
	return s2.Point{Vector: sum.Mul(1 / n)}, nil
}

// Relax performs one Lloyd step: every site moves to normalize(site + weight*centroid).
// cells should come from a single Diagram so that they share one hull.
func Relax(cells []Cell, weight float64) (s2.PointVector, error) {
	if err := checkWeight(weight); err != nil {
		return nil, fmt.Errorf("Relax: %w", err)
	}

	sites := make(s2.PointVector, len(cells))
	for i, c := range cells {
		p, err := relaxCell(c, weight, c.d.opts.Eps)
		if err != nil {
			return nil, err
		}
		sites[i] = p
	}
	return sites, nil
}

func relaxCell(c Cell, weight, eps float64) (s2.Point, error) {
	ctr, err := c.Centroid()
	if err != nil {
		return s2.Point{}, err
	}
	v := c.Site().Add(ctr.Mul(weight))
	n := v.Norm()
	if !(n > eps) {
		return s2.Point{}, fmt.Errorf("%w: cell %d centroid opposes its site", ErrNumericalInstability, c.idx)
	}
	return s2.Point{Vector: v.Mul(1 / n)}, nil
}

// relaxed returns the sites after one Lloyd step using the diagram's weight.
// Cells are processed in parallel; the result is only returned once every
// cell is done.
func (d *Diagram) relaxed() (s2.PointVector, error) {
	sites := make(s2.PointVector, len(d.Sites))
	err := parallelFor(len(d.Sites), d.opts.Workers, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			p, err := relaxCell(Cell{idx: i, d: d}, d.opts.Weight, d.opts.Eps)
			if err != nil {
				return err
			}
			sites[i] = p
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sites, nil
}

// Relax applies steps Lloyd iterations in place, rebuilding the diagram after each.
// On error d keeps the last diagram that was built successfully.
func (d *Diagram) Relax(steps int) error {
	if steps < 0 {
		return errors.New("Relax: steps must be non-negative")
	}
	for _i := 0; _i < steps; _i++ {
		sites, err := d.relaxed()
		if err != nil {
			return err
		}
		nd, err := newDiagram(sites, d.opts)
		if err != nil {
			return err
		}
		*d = *nd
	}
	return nil
}

// Result is the outcome of Lloyd.
type Result struct {
	Diagram *Diagram
	// Iterations is the number of Lloyd steps performed.
	Iterations int
	// Residual is the largest angle in radians any site moved during the last step.
	Residual float64
}

// Lloyd relaxes sites for up to iterations steps. It stops early once the
// residual drops to the tolerance set by WithTolerance, or when ctx is done.
func Lloyd(ctx context.Context, sites s2.PointVector, iterations int, setters ...Option) (*Result, error) {
	if iterations < 0 {
		return nil, errors.New("Lloyd: iterations must be non-negative")
	}
	opts, err := newOptions(setters)
	if err != nil {
		return nil, err
	}

	d, err := newDiagram(sites, opts)
	if err != nil {
		return nil, err
	}

	res := &Result{Diagram: d}
	for it := 0; it < iterations; it++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, err := d.relaxed()
		if err != nil {
			return nil, fmt.Errorf("iteration %d: %w", it, err)
		}
		residual := maxMove(d.Sites, next)

		d, err = newDiagram(next, opts)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: %w", it, err)
		}
		res.Diagram = d
		res.Iterations = it + 1
		res.Residual = residual

		opts.Logger.Debug("lloyd iteration",
			zap.Int("iteration", it+1),
			zap.Float64("residual", residual),
		)
		if opts.Tolerance > 0 && residual <= opts.Tolerance {
			break
		}
	}
	return res, nil
}

func maxMove(from, to s2.PointVector) float64 {
	var m float64
	for i := range from {
		m = max(m, from[i].Distance(to[i]).Radians())
	}
	return m
}
