// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package s2hull computes the convex hull of points on the unit sphere and
// indexes its faces by incident point.
package s2hull

import (
	"errors"
	"fmt"
	"math"

	"github.com/2dChan/s2lloyd/internal/tangent"
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
	"github.com/markus-wa/quickhull-go/v2"
)

const (
	defaultEps      = 1e-12
	defaultMergeTol = 1e-9

	// unitTol bounds how far an input point may be from the unit sphere.
	unitTol = 1e-6
)

var (
	// ErrHull is wrapped by every error returned from a hull computation.
	ErrHull = errors.New("s2hull: convex hull failed")

	ErrInsufficientPoints = fmt.Errorf("%w: insufficient points (minimum 4 required)", ErrHull)
	ErrDuplicatePoints    = fmt.Errorf("%w: coincident points", ErrHull)
	ErrDegenerate         = fmt.Errorf("%w: degenerate input", ErrHull)
)

// Face is a facet of the hull.
type Face struct {
	// Normal is the unit outward normal of the facet plane.
	Normal s2.Point
	// Vertices are indices of the incident input points, CCW when looking
	// at the face from outside. Three for points in general position.
	Vertices []int
}

// Hull is the convex hull of a point set on the unit sphere.
type Hull struct {
	Sites s2.PointVector
	Faces []Face

	// NOTE: Indexed by site through IncidentFaceOffsets, unordered per site.
	IncidentFaceIndices []int
	IncidentFaceOffsets []int
}

// IncidentFaces returns the indices of the faces touching site vIdx.
func (h *Hull) IncidentFaces(vIdx int) []int {
	if vIdx < 0 || vIdx+1 >= len(h.IncidentFaceOffsets) {
		panic("IncidentFaces: vIdx out of range")
	}
	start := h.IncidentFaceOffsets[vIdx]
	end := h.IncidentFaceOffsets[vIdx+1]
	return h.IncidentFaceIndices[start:end]
}

// Degree returns the number of faces touching site vIdx.
func (h *Hull) Degree(vIdx int) int {
	return len(h.IncidentFaces(vIdx))
}

// NumEdges returns the number of hull edges. Every edge borders exactly two faces.
func (h *Hull) NumEdges() int {
	n := 0
	for _, f := range h.Faces {
		n += len(f.Vertices)
	}
	return n / 2
}

// Provider computes convex hulls. Implementations must either return a
// complete hull or an error wrapping ErrHull, never a partial result.
type Provider interface {
	ConvexHull(sites s2.PointVector) (*Hull, error)
}

type Options struct {
	// Eps is the quickhull tolerance and the distance under which two sites
	// are considered coincident.
	Eps float64
	// MergeTol is the distance under which two face normals are considered
	// the same facet.
	MergeTol float64
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

func WithMergeTol(tol float64) Option {
	return func(o *Options) error {
		if tol < 0 || math.IsNaN(tol) {
			return errors.New("WithMergeTol: tol must be non-negative")
		}
		o.MergeTol = tol
		return nil
	}
}

// QuickHull is a Provider backed by quickhull-go.
type QuickHull struct {
	opts Options
}

var _ Provider = (*QuickHull)(nil)

func NewQuickHull(setters ...Option) (*QuickHull, error) {
	opts := Options{
		Eps:      defaultEps,
		MergeTol: defaultMergeTol,
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}
	return &QuickHull{opts: opts}, nil
}

// ConvexHull computes the hull with a default QuickHull.
func ConvexHull(sites s2.PointVector, setters ...Option) (*Hull, error) {
	qh, err := NewQuickHull(setters...)
	if err != nil {
		return nil, err
	}
	return qh.ConvexHull(sites)
}

// NOTE: All sites must lie on the unit sphere.
func (q *QuickHull) ConvexHull(sites s2.PointVector) (*Hull, error) {
	numSites := len(sites)
	if numSites < 4 {
		return nil, fmt.Errorf("%w: got %d", ErrInsufficientPoints, numSites)
	}

	r3sites := make([]r3.Vector, numSites)
	var interior r3.Vector
	for i, p := range sites {
		if n := p.Norm(); math.IsNaN(n) || math.Abs(n-1) > unitTol {
			return nil, fmt.Errorf("%w: site %d has norm %v, want 1", ErrDegenerate, i, n)
		}
		r3sites[i] = p.Vector
		interior = interior.Add(p.Vector)
	}
	interior = interior.Mul(1 / float64(numSites))

	prox := newProximity(r3sites)
	for i := range r3sites {
		if near := prox.near(i, q.opts.Eps); len(near) > 0 {
			return nil, fmt.Errorf("%w: sites %d and %d", ErrDuplicatePoints, i, near[0])
		}
	}

	indices, err := q.triangulate(r3sites)
	if err != nil {
		return nil, err
	}
	// Every site is extreme on a sphere, so the hull is a triangulated
	// sphere with 2n-4 triangles.
	numTriangles := 2 * (numSites - 2)
	if len(indices) != numTriangles*3 {
		return nil, fmt.Errorf("%w: quickhull returned %d indices, want %d",
			ErrDegenerate, len(indices), numTriangles*3)
	}

	tris := make([][3]int, numTriangles)
	normals := make([]r3.Vector, numTriangles)
	for i := 0; i < numTriangles; i++ {
		tri := [3]int{indices[3*i], indices[3*i+1], indices[3*i+2]}
		n, err := orientTriangle(&tri, r3sites, interior, q.opts.Eps)
		if err != nil {
			return nil, err
		}
		tris[i] = tri
		normals[i] = n
	}

	faces, err := mergeCoplanar(tris, normals, sites, q.opts.MergeTol, q.opts.Eps)
	if err != nil {
		return nil, err
	}

	h := &Hull{
		Sites: sites,
		Faces: faces,
	}
	h.buildIncidence()

	for i := 0; i < numSites; i++ {
		if d := h.Degree(i); d < 3 {
			return nil, fmt.Errorf("%w: site %d touches %d faces", ErrDegenerate, i, d)
		}
	}

	return h, nil
}

func (q *QuickHull) triangulate(vs []r3.Vector) (indices []int, err error) {
	defer func() {
		if r := recover(); r != nil {
			indices = nil
			err = fmt.Errorf("%w: quickhull: %v", ErrDegenerate, r)
		}
	}()

	qh := new(quickhull.QuickHull)
	ch := qh.ConvexHull(vs, true, true, q.opts.Eps)
	return ch.Indices, nil
}

// orientTriangle reorders t to be CCW seen from outside and returns its unit
// outward normal.
func orientTriangle(t *[3]int, v []r3.Vector, interior r3.Vector, eps float64) (r3.Vector, error) {
	p0, p1, p2 := v[t[0]], v[t[1]], v[t[2]]
	norm := p1.Sub(p0).Cross(p2.Sub(p0))
	n := norm.Norm()
	if n <= eps {
		return r3.Vector{}, fmt.Errorf("%w: zero-area face %v", ErrDegenerate, *t)
	}
	norm = norm.Mul(1 / n)

	dist := norm.Dot(p0.Sub(interior))
	if math.Abs(dist) <= eps {
		return r3.Vector{}, fmt.Errorf("%w: flat hull at face %v", ErrDegenerate, *t)
	}
	if dist < 0 {
		t[1], t[2] = t[2], t[1]
		norm = norm.Mul(-1)
	}
	return norm, nil
}

// mergeCoplanar joins triangles whose normals coincide within tol into a
// single face. On a convex hull equal outward normals mean the same facet.
func mergeCoplanar(tris [][3]int, normals []r3.Vector, sites s2.PointVector, tol, eps float64) ([]Face, error) {
	ids := newProximity(normals).clusters(tol)

	numFaces := 0
	for _, id := range ids {
		numFaces = max(numFaces, id+1)
	}
	members := make([][]int, numFaces)
	for i, id := range ids {
		members[id] = append(members[id], i)
	}

	faces := make([]Face, numFaces)
	for id, tIdx := range members {
		if len(tIdx) == 1 {
			t := tris[tIdx[0]]
			faces[id] = Face{
				Normal:   s2.Point{Vector: normals[tIdx[0]]},
				Vertices: []int{t[0], t[1], t[2]},
			}
			continue
		}

		var sum r3.Vector
		seen := make(map[int]bool)
		var verts []int
		for _, ti := range tIdx {
			sum = sum.Add(normals[ti])
			for _, v := range tris[ti] {
				if !seen[v] {
					seen[v] = true
					verts = append(verts, v)
				}
			}
		}
		normal := sum.Normalize()

		frame, err := tangent.NewFrame(normal, eps)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDegenerate, err)
		}
		// Sort around the face center, not the normal, so that the polygon
		// is ordered even when the facet is far from the origin.
		center := faceCenter(verts, sites)
		at := func(i int) r3.Vector { return sites[i].Sub(center) }
		if err := frame.Sort(verts, at, eps); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDegenerate, err)
		}
		faces[id] = Face{Normal: s2.Point{Vector: normal}, Vertices: verts}
	}
	return faces, nil
}

func faceCenter(verts []int, sites s2.PointVector) r3.Vector {
	var c r3.Vector
	for _, v := range verts {
		c = c.Add(sites[v].Vector)
	}
	return c.Mul(1 / float64(len(verts)))
}

// buildIncidence fills the site -> incident faces index in one pass over the faces.
func (h *Hull) buildIncidence() {
	numSites := len(h.Sites)
	h.IncidentFaceOffsets = make([]int, numSites+1)
	for _, f := range h.Faces {
		for _, v := range f.Vertices {
			h.IncidentFaceOffsets[v+1]++
		}
	}
	for i := 0; i < numSites; i++ {
		h.IncidentFaceOffsets[i+1] += h.IncidentFaceOffsets[i]
	}

	h.IncidentFaceIndices = make([]int, h.IncidentFaceOffsets[numSites])
	nxt := make([]int, numSites)
	copy(nxt, h.IncidentFaceOffsets[:numSites])
	for fIdx, f := range h.Faces {
		for _, v := range f.Vertices {
			h.IncidentFaceIndices[nxt[v]] = fIdx
			nxt[v]++
		}
	}
}
