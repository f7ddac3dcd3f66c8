// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2lloyd

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"github.com/2dChan/s2lloyd/internal/tangent"
	"github.com/2dChan/s2lloyd/s2hull"
	"github.com/2dChan/s2lloyd/sampling"
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
	"go.uber.org/zap"
)

const (
	defaultEps    = 1e-12
	defaultWeight = 1.0
)

var (
	ErrSampling = sampling.ErrSampling
	ErrHull     = s2hull.ErrHull

	ErrGeometryDegeneracy   = errors.New("s2lloyd: degenerate geometry")
	ErrNumericalInstability = errors.New("s2lloyd: numerical instability")
)

type Options struct {
	Eps float64
	// Weight scales the pull of the centroid in (0, 1].
	Weight float64
	// Tolerance stops Lloyd once no site moves by more than this angle in radians.
	// Zero disables the check.
	Tolerance float64
	Workers   int
	Hull      s2hull.Provider
	Logger    *zap.Logger
}

type Option func(*Options) error

func WithEps(eps float64) Option {
	return func(o *Options) error {
		if eps <= 0 || math.IsNaN(eps) {
			return errors.New("WithEps: eps must be positive")
		}
		o.Eps = eps
		return nil
	}
}

func WithWeight(w float64) Option {
	return func(o *Options) error {
		if err := checkWeight(w); err != nil {
			return fmt.Errorf("WithWeight: %w", err)
		}
		o.Weight = w
		return nil
	}
}

func WithTolerance(tol float64) Option {
	return func(o *Options) error {
		if tol < 0 || math.IsNaN(tol) {
			return errors.New("WithTolerance: tolerance must be non-negative")
		}
		o.Tolerance = tol
		return nil
	}
}

// WithWorkers bounds the goroutines used for per-cell work. One runs everything inline.
func WithWorkers(n int) Option {
	return func(o *Options) error {
		if n < 1 {
			return errors.New("WithWorkers: n must be positive")
		}
		o.Workers = n
		return nil
	}
}

// WithHullProvider replaces the default quickhull-backed provider.
func WithHullProvider(p s2hull.Provider) Option {
	return func(o *Options) error {
		if p == nil {
			return errors.New("WithHullProvider: provider must not be nil")
		}
		o.Hull = p
		return nil
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(o *Options) error {
		if l == nil {
			l = zap.NewNop()
		}
		o.Logger = l
		return nil
	}
}

func newOptions(setters []Option) (Options, error) {
	opts := Options{
		Eps:     defaultEps,
		Weight:  defaultWeight,
		Workers: runtime.GOMAXPROCS(0),
		Logger:  zap.NewNop(),
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return Options{}, err
		}
	}
	if opts.Hull == nil {
		qh, err := s2hull.NewQuickHull(s2hull.WithEps(opts.Eps))
		if err != nil {
			return Options{}, err
		}
		opts.Hull = qh
	}
	return opts, nil
}

func checkWeight(w float64) error {
	if !(w > 0 && w <= 1) {
		return fmt.Errorf("weight %v out of range (0 1]", w)
	}
	return nil
}

// SampleSphere draws n uniform points on the unit sphere from a seeded source.
func SampleSphere(n int, seed int64) (s2.PointVector, error) {
	//nolint:gosec
	return sampling.SampleSphere(n, rand.New(rand.NewSource(seed)))
}

// SortCCW returns vertices ordered counter-clockwise around center when
// looking at the sphere from outside. Vertices with equal angles keep their
// relative order.
func SortCCW(center s2.Point, vertices s2.PointVector) (s2.PointVector, error) {
	return sortCCW(center, vertices, defaultEps)
}

func sortCCW(center s2.Point, vertices s2.PointVector, eps float64) (s2.PointVector, error) {
	frame, err := tangent.NewFrame(center.Vector, eps)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeometryDegeneracy, err)
	}

	idx := make([]int, len(vertices))
	for i := range idx {
		idx[i] = i
	}
	at := func(i int) r3.Vector { return vertices[i].Vector }
	if err := frame.Sort(idx, at, eps); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeometryDegeneracy, err)
	}

	sorted := make(s2.PointVector, len(vertices))
	for i, j := range idx {
		sorted[i] = vertices[j]
	}
	return sorted, nil
}
