// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/2dChan/s2lloyd"
	"github.com/golang/geo/s2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

func (a *app) sample(cmd *cobra.Command) error {
	points, err := s2lloyd.SampleSphere(a.cfg.Points, a.cfg.Seed)
	if err != nil {
		return err
	}
	a.logger.Info("sampled points",
		zap.Int("points", len(points)),
		zap.Int64("seed", a.cfg.Seed),
	)
	return a.write(cmd, pointSet{seed: a.cfg.Seed, points: points}, nil)
}

// relaxed loads the input and runs Lloyd on it.
func (a *app) relaxed(cmd *cobra.Command) (pointSet, *s2lloyd.Result, error) {
	ps, err := a.inputPoints()
	if err != nil {
		return pointSet{}, nil, err
	}
	res, err := s2lloyd.Lloyd(cmd.Context(), ps.points, a.cfg.Iterations, a.lloydOptions()...)
	if err != nil {
		return pointSet{}, nil, err
	}
	a.logger.Info("relaxed points",
		zap.Int("points", len(ps.points)),
		zap.Int("iterations", res.Iterations),
		zap.Float64("residual", res.Residual),
	)
	ps.iterations += res.Iterations
	ps.points = res.Diagram.Sites
	return ps, res, nil
}

func (a *app) relax(cmd *cobra.Command) error {
	ps, res, err := a.relaxed(cmd)
	if err != nil {
		return err
	}
	return a.write(cmd, ps, res.Diagram)
}

func (a *app) cells(cmd *cobra.Command) (err error) {
	_, res, err := a.relaxed(cmd)
	if err != nil {
		return err
	}

	w, closeFn, err := a.output(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); err == nil {
			err = cerr
		}
	}()
	return writeCells(w, res.Diagram)
}

// writeCells prints one line per cell followed by a summary line. Spacing is
// the mean angle in radians between neighboring sites and cv its coefficient
// of variation.
func writeCells(w io.Writer, vd *s2lloyd.Diagram) error {
	if _, err := fmt.Fprintf(w, "%-6s %-8s %-11s %-11s %s\n", "cell", "vertices", "lat", "lng", "neighbors"); err != nil {
		return err
	}

	minDeg, maxDeg, sum := -1, 0, 0
	spacing := make([]float64, 0, len(vd.CellNeighbors))
	var nb strings.Builder
	for _, c := range vd.Cells() {
		k := c.NumVertices()
		sum += k
		maxDeg = max(maxDeg, k)
		if minDeg < 0 || k < minDeg {
			minDeg = k
		}

		nb.Reset()
		for j, n := range c.NeighborIndices() {
			if j > 0 {
				nb.WriteByte(' ')
			}
			fmt.Fprintf(&nb, "%d", n)
			spacing = append(spacing, c.Site().Distance(vd.Sites[n]).Radians())
		}

		ll := s2.LatLngFromPoint(c.Site())
		_, err := fmt.Fprintf(w, "%-6d %-8d %-11.6f %-11.6f %s\n",
			c.SiteIndex(), k, ll.Lat.Degrees(), ll.Lng.Degrees(), nb.String())
		if err != nil {
			return err
		}
	}

	mean, std := stat.MeanStdDev(spacing, nil)
	_, err := fmt.Fprintf(w, "cells=%d vertices=%d edges=%d degree=[%d %d] spacing=%.6f cv=%.4f\n",
		vd.NumCells(), len(vd.Vertices), sum/2, minDeg, maxDeg, mean, std/mean)
	return err
}
