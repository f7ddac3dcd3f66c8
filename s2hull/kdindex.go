// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2hull

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/spatial/kdtree"
)

var (
	_ kdtree.Interface  = kdPoints{}
	_ kdtree.SortSlicer = kdPlane{}
)

// kdPoint is a vector tagged with its position in the caller's slice,
// since kdtree.New reorders the points it is given.
type kdPoint struct {
	idx int
	v   r3.Vector
}

func (p kdPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(kdPoint)
	return coord(p.v, d) - coord(q.v, d)
}

func (p kdPoint) Dims() int { return 3 }

// Distance returns the squared Euclidean distance, as kdtree expects.
func (p kdPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(kdPoint)
	return p.v.Sub(q.v).Norm2()
}

func coord(v r3.Vector, d kdtree.Dim) float64 {
	switch d {
	case 0:
		return v.X
	case 1:
		return v.Y
	}
	return v.Z
}

type kdPoints []kdPoint

func (p kdPoints) Index(i int) kdtree.Comparable { return p[i] }

func (p kdPoints) Len() int { return len(p) }

func (p kdPoints) Pivot(d kdtree.Dim) int {
	plane := kdPlane{dim: d, points: p}
	return kdtree.Partition(plane, kdtree.MedianOfMedians(plane))
}

func (p kdPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

type kdPlane struct {
	dim    kdtree.Dim
	points kdPoints
}

func (p kdPlane) Less(i, j int) bool {
	return coord(p.points[i].v, p.dim) < coord(p.points[j].v, p.dim)
}
func (p kdPlane) Swap(i, j int) {
	p.points[i], p.points[j] = p.points[j], p.points[i]
}
func (p kdPlane) Len() int {
	return len(p.points)
}
func (p kdPlane) Slice(start, end int) kdtree.SortSlicer {
	p.points = p.points[start:end]
	return p
}

// proximity answers "which other vectors lie within tol of vector i" queries.
type proximity struct {
	vs   []r3.Vector
	tree *kdtree.Tree
}

func newProximity(vs []r3.Vector) *proximity {
	pts := make(kdPoints, len(vs))
	for i, v := range vs {
		pts[i] = kdPoint{idx: i, v: v}
	}
	return &proximity{vs: vs, tree: kdtree.New(pts, false)}
}

// near returns the indices j != i with |vs[j]-vs[i]| <= tol, in no particular order.
func (p *proximity) near(i int, tol float64) []int {
	keep := kdtree.NewDistKeeper(tol * tol)
	p.tree.NearestSet(keep, kdPoint{idx: i, v: p.vs[i]})

	var out []int
	for _, c := range keep.Heap {
		if c.Comparable == nil {
			continue
		}
		if j := c.Comparable.(kdPoint).idx; j != i {
			out = append(out, j)
		}
	}
	return out
}

// clusters groups vectors transitively connected by pairs closer than tol.
// It returns a cluster id per vector; ids are dense and ordered by the
// first member's index.
func (p *proximity) clusters(tol float64) []int {
	parent := make([]int, len(p.vs))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for i := range p.vs {
		for _, j := range p.near(i, tol) {
			ri, rj := find(i), find(j)
			if ri == rj {
				continue
			}
			if ri < rj {
				parent[rj] = ri
			} else {
				parent[ri] = rj
			}
		}
	}

	ids := make([]int, len(p.vs))
	next := 0
	dense := make(map[int]int)
	for i := range p.vs {
		r := find(i)
		id, ok := dense[r]
		if !ok {
			id = next
			dense[r] = id
			next++
		}
		ids[i] = id
	}
	return ids
}
