// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package tangent builds local orthonormal frames on the sphere and orders
// directions by their in-plane angle around the frame axis.
package tangent

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/golang/geo/r3"
)

// ErrDegenerate is returned when a frame or an in-plane direction cannot be normalized.
var ErrDegenerate = errors.New("tangent: degenerate direction")

// parallelDot is the |axis·Z| above which the X axis seeds the frame instead of Z.
const parallelDot = 0.99

// Frame is a right-handed orthonormal basis with Z along the frame axis.
type Frame struct {
	X, Y, Z r3.Vector
}

// NewFrame returns the tangent frame at axis.
func NewFrame(axis r3.Vector, eps float64) (Frame, error) {
	n := axis.Norm()
	if !(n > eps) || math.IsInf(n, 0) {
		return Frame{}, fmt.Errorf("%w: axis %v has norm %v", ErrDegenerate, axis, n)
	}
	z := axis.Mul(1 / n)

	seed := r3.Vector{Z: 1}
	if math.Abs(z.Dot(seed)) > parallelDot {
		seed = r3.Vector{X: 1}
	}
	x := z.Cross(seed)
	xn := x.Norm()
	if xn <= eps {
		return Frame{}, fmt.Errorf("%w: axis %v parallel to seed %v", ErrDegenerate, axis, seed)
	}
	x = x.Mul(1 / xn)

	return Frame{X: x, Y: z.Cross(x), Z: z}, nil
}

// Angle returns the counter-clockwise angle in (-π, π] of v projected onto the
// tangent plane, measured from X toward Y.
func (f Frame) Angle(v r3.Vector, eps float64) (float64, error) {
	r := v.Sub(f.Z.Mul(v.Dot(f.Z)))
	rn := r.Norm()
	if !(rn > eps) {
		return 0, fmt.Errorf("%w: %v has no component orthogonal to axis %v", ErrDegenerate, v, f.Z)
	}
	r = r.Mul(1 / rn)
	return math.Atan2(r.Dot(f.Y), r.Dot(f.X)), nil
}

type angled struct {
	angle float64
	idx   int
}

// Sort reorders idx so that at(idx[i]) runs counter-clockwise around Z when
// looking at the plane from the +Z side. Ties keep their input order.
// idx is left untouched if any direction is degenerate.
func (f Frame) Sort(idx []int, at func(int) r3.Vector, eps float64) error {
	items := make([]angled, len(idx))
	for i, id := range idx {
		a, err := f.Angle(at(id), eps)
		if err != nil {
			return err
		}
		items[i] = angled{angle: a, idx: id}
	}

	slices.SortStableFunc(items, func(a, b angled) int {
		return cmp.Compare(a.angle, b.angle)
	})
	for i := range items {
		idx[i] = items[i].idx
	}
	return nil
}
