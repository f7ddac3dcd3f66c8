// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2hull

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/2dChan/s2lloyd/internal/polyhedra"
	"github.com/2dChan/s2lloyd/sampling"
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
	"github.com/google/go-cmp/cmp"
	"github.com/markus-wa/quickhull-go/v2"
)

// Options

func TestWithEps(t *testing.T) {
	tests := []struct {
		name    string
		eps     float64
		wantErr bool
	}{
		{"eps positive", 0.5, false},
		{"eps zero", 0, true},
		{"eps negative", -1, true},
		{"eps NaN", math.NaN(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := &Options{Eps: defaultEps}
			opt := WithEps(tt.eps)
			err := opt(opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("WithEps(%v) error = %v, wantErr %v", tt.eps, err, tt.wantErr)
			}
			if err == nil && opts.Eps != tt.eps {
				t.Errorf("WithEps(%v) opts.Eps = %v, want %v", tt.eps, opts.Eps, tt.eps)
			}
		})
	}
}

func TestWithMergeTol(t *testing.T) {
	tests := []struct {
		name    string
		tol     float64
		wantErr bool
	}{
		{"tol positive", 1e-6, false},
		{"tol zero", 0, false},
		{"tol negative", -1e-6, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := &Options{MergeTol: defaultMergeTol}
			err := WithMergeTol(tt.tol)(opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("WithMergeTol(%v) error = %v, wantErr %v", tt.tol, err, tt.wantErr)
			}
			if err == nil && opts.MergeTol != tt.tol {
				t.Errorf("WithMergeTol(%v) opts.MergeTol = %v, want %v", tt.tol, opts.MergeTol, tt.tol)
			}
		})
	}
}

// ConvexHull

func TestConvexHull_WithEps(t *testing.T) {
	points := sampling.GenerateRandomPoints(10, 0)
	tests := []struct {
		name    string
		eps     float64
		wantErr bool
	}{
		{"eps default", defaultEps, false},
		{"eps positive", 1e-9, false},
		{"eps beyond diameter", 2.5, true},
		{"eps zero", 0, true},
		{"eps negative", -0.01, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ConvexHull(points, WithEps(tt.eps))
			if (err != nil) != tt.wantErr {
				t.Errorf("ConvexHull(..., WithEps(%v)) error = %v, wantErr %v", tt.eps, err, tt.wantErr)
			}
		})
	}
}

func TestConvexHull_InvalidInput(t *testing.T) {
	dup := sampling.GenerateRandomPoints(10, 3)
	dup[7] = dup[2]

	offSphere := sampling.GenerateRandomPoints(10, 3)
	offSphere[4] = s2.Point{Vector: offSphere[4].Mul(1.5)}

	tests := []struct {
		name   string
		points s2.PointVector
		want   error
	}{
		{"empty", nil, ErrInsufficientPoints},
		{"three points", s2.PointVector{
			s2.PointFromCoords(1, 0, 0),
			s2.PointFromCoords(0, 1, 0),
			s2.PointFromCoords(0, 0, 1),
		}, ErrInsufficientPoints},
		{"duplicate points", dup, ErrDuplicatePoints},
		{"point off sphere", offSphere, ErrDegenerate},
		{"coplanar great circle", s2.PointVector{
			s2.PointFromCoords(1, 0, 0),
			s2.PointFromCoords(0, 1, 0),
			s2.PointFromCoords(-1, 0, 0),
			s2.PointFromCoords(0, -1, 0),
			s2.PointFromCoords(1, 1, 0),
		}, ErrHull},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := ConvexHull(tt.points)
			if !errors.Is(err, tt.want) {
				t.Errorf("ConvexHull(...) error = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, ErrHull) {
				t.Errorf("ConvexHull(...) error = %v, want wrapping ErrHull", err)
			}
			if h != nil {
				t.Errorf("ConvexHull(...) = %v, want nil hull", h)
			}
		})
	}
}

func TestConvexHull_FaceNormals(t *testing.T) {
	h := mustConvexHull(t, 200)

	for fIdx, f := range h.Faces {
		if n := f.Normal.Norm(); math.Abs(n-1) > 1e-12 {
			t.Errorf("h.Faces[%d].Normal norm = %v, want ~1.0", fIdx, n)
		}

		offset := f.Normal.Dot(h.Sites[f.Vertices[0]].Vector)
		for _, v := range f.Vertices {
			if d := f.Normal.Dot(h.Sites[v].Vector); math.Abs(d-offset) > 1e-9 {
				t.Errorf("h.Faces[%d] site %d off the face plane by %v", fIdx, v, d-offset)
			}
		}
		// Outward normal: no site lies in front of a face plane.
		for i, p := range h.Sites {
			if d := f.Normal.Dot(p.Vector); d > offset+1e-9 {
				t.Errorf("h.Faces[%d] site %d in front of face by %v", fIdx, i, d-offset)
			}
		}
	}
}

func TestConvexHull_FacesCCW(t *testing.T) {
	h := mustConvexHull(t, 200)

	for fIdx, f := range h.Faces {
		if len(f.Vertices) != 3 {
			t.Errorf("h.Faces[%d] has %d vertices, want 3 for random input", fIdx, len(f.Vertices))
			continue
		}
		a, b, c := h.Sites[f.Vertices[0]], h.Sites[f.Vertices[1]], h.Sites[f.Vertices[2]]
		cross := b.Sub(a.Vector).Cross(c.Sub(a.Vector))
		if cross.Dot(f.Normal.Vector) <= 0 {
			t.Errorf("h.Faces[%d] vertices are not sorted in CCW", fIdx)
		}
	}
}

func TestConvexHull_IncidenceMatchesScan(t *testing.T) {
	h := mustConvexHull(t, 300)

	for vIdx := range h.Sites {
		var want []int
		for fIdx, f := range h.Faces {
			for _, v := range f.Vertices {
				if v == vIdx {
					want = append(want, fIdx)
				}
			}
		}
		if diff := cmp.Diff(want, h.IncidentFaces(vIdx)); diff != "" {
			t.Errorf("h.IncidentFaces(%d) mismatch (-want +got):\n%s", vIdx, diff)
		}
	}
}

func TestConvexHull_Handshake(t *testing.T) {
	for _, n := range []int{4, 10, 1024} {
		t.Run(fmt.Sprintf("N%d", n), func(t *testing.T) {
			h := mustConvexHull(t, n)

			edges := make(map[[2]int]int)
			for _, f := range h.Faces {
				k := len(f.Vertices)
				for i := 0; i < k; i++ {
					a, b := f.Vertices[i], f.Vertices[(i+1)%k]
					edges[[2]int{min(a, b), max(a, b)}]++
				}
			}
			for e, cnt := range edges {
				if cnt != 2 {
					t.Errorf("edge %v borders %d faces, want 2", e, cnt)
				}
			}
			if got := h.NumEdges(); got != len(edges) {
				t.Errorf("h.NumEdges() = %v, want %v", got, len(edges))
			}

			sumDegree := 0
			for i := range h.Sites {
				sumDegree += h.Degree(i)
			}
			if sumDegree != 2*h.NumEdges() {
				t.Errorf("sum of degrees = %v, want 2*edges = %v", sumDegree, 2*h.NumEdges())
			}

			// Euler's formula for a convex polyhedron.
			if got := len(h.Sites) - h.NumEdges() + len(h.Faces); got != 2 {
				t.Errorf("V - E + F = %v, want 2", got)
			}
		})
	}
}

func TestConvexHull_Icosahedron(t *testing.T) {
	h, err := ConvexHull(polyhedra.Icosahedron())
	if err != nil {
		t.Fatalf("ConvexHull(icosahedron) error = %v, want nil", err)
	}
	if got := len(h.Faces); got != 20 {
		t.Errorf("len(h.Faces) = %v, want 20", got)
	}
	for i := range h.Sites {
		if got := h.Degree(i); got != 5 {
			t.Errorf("h.Degree(%d) = %v, want 5", i, got)
		}
	}
}

func TestConvexHull_CubeMergesCoplanarTriangles(t *testing.T) {
	h, err := ConvexHull(polyhedra.Cube())
	if err != nil {
		t.Fatalf("ConvexHull(cube) error = %v, want nil", err)
	}
	if got := len(h.Faces); got != 6 {
		t.Fatalf("len(h.Faces) = %v, want 6", got)
	}

	for fIdx, f := range h.Faces {
		if got := len(f.Vertices); got != 4 {
			t.Errorf("len(h.Faces[%d].Vertices) = %v, want 4", fIdx, got)
		}
		axis := math.Max(math.Abs(f.Normal.X), math.Max(math.Abs(f.Normal.Y), math.Abs(f.Normal.Z)))
		if math.Abs(axis-1) > 1e-12 {
			t.Errorf("h.Faces[%d].Normal = %v, want a coordinate axis", fIdx, f.Normal)
		}

		k := len(f.Vertices)
		for i := 0; i < k; i++ {
			a := h.Sites[f.Vertices[i]]
			b := h.Sites[f.Vertices[(i+1)%k]]
			c := h.Sites[f.Vertices[(i+2)%k]]
			turn := b.Sub(a.Vector).Cross(c.Sub(b.Vector))
			if turn.Dot(f.Normal.Vector) <= 0 {
				t.Errorf("h.Faces[%d] vertices %d..%d are not sorted in CCW", fIdx, i, i+2)
			}
		}
	}
	for i := range h.Sites {
		if got := h.Degree(i); got != 3 {
			t.Errorf("h.Degree(%d) = %v, want 3", i, got)
		}
	}
}

func TestConvexHull_Deterministic(t *testing.T) {
	a := mustConvexHull(t, 500)
	b := mustConvexHull(t, 500)
	if diff := cmp.Diff(a, b, cmp.AllowUnexported(s2.Point{})); diff != "" {
		t.Errorf("ConvexHull(...) not deterministic (-first +second):\n%s", diff)
	}
}

func TestHull_IncidentFaces(t *testing.T) {
	assertPanic := func(h *Hull, in int) {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("h.IncidentFaces(%d) did not panic, want panic", in)
			}
		}()
		h.IncidentFaces(in)
	}

	h := &Hull{
		IncidentFaceIndices: []int{0, 1, 1, 1, 2},
		IncidentFaceOffsets: []int{0, 2, 3, 5},
	}

	tests := []struct {
		name string
		in   int
		want []int
	}{
		{"index 0", 0, []int{0, 1}},
		{"index 1", 1, []int{1}},
		{"index 2", 2, []int{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := h.IncidentFaces(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("h.IncidentFaces(%d) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}

	assertPanic(h, -1)
	assertPanic(h, len(h.IncidentFaceOffsets))
}

func TestOrientTriangle(t *testing.T) {
	verts := []r3.Vector{{X: 1}, {Y: 1}, {Z: 1}}
	interior := r3.Vector{}

	tri1 := [3]int{0, 1, 2}
	n1, err := orientTriangle(&tri1, verts, interior, defaultEps)
	if err != nil {
		t.Fatalf("orientTriangle([0 1 2], ...) error = %v, want nil", err)
	}
	if diff := cmp.Diff([3]int{0, 1, 2}, tri1); diff != "" {
		t.Errorf("orientTriangle([0 1 2], ...) mismatch (-want +got):\n%s", diff)
	}

	tri2 := [3]int{0, 2, 1}
	n2, err := orientTriangle(&tri2, verts, interior, defaultEps)
	if err != nil {
		t.Fatalf("orientTriangle([0 2 1], ...) error = %v, want nil", err)
	}
	if diff := cmp.Diff([3]int{0, 1, 2}, tri2); diff != "" {
		t.Errorf("orientTriangle([0 2 1], ...) mismatch (-want +got):\n%s", diff)
	}

	want := r3.Vector{X: 1, Y: 1, Z: 1}.Normalize()
	for _, n := range []r3.Vector{n1, n2} {
		if n.Sub(want).Norm() > 1e-12 {
			t.Errorf("orientTriangle(...) normal = %v, want %v", n, want)
		}
	}

	flat := [3]int{0, 1, 2}
	if _, err := orientTriangle(&flat, []r3.Vector{{X: 1}, {X: 2}, {X: 3}}, interior, defaultEps); !errors.Is(err, ErrDegenerate) {
		t.Errorf("orientTriangle(collinear) error = %v, want ErrDegenerate", err)
	}
}

func TestProximity_Clusters(t *testing.T) {
	vs := []r3.Vector{
		{X: 1},
		{Y: 1},
		{X: 1, Y: 1e-10},
		{Z: 1},
		{Y: 1, Z: 1e-10},
		{X: 1, Y: 2e-10},
	}
	got := newProximity(vs).clusters(1.5e-10)
	want := []int{0, 1, 0, 2, 1, 0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("clusters(...) mismatch (-want +got):\n%s", diff)
	}
}

// Benchmarks

func BenchmarkQuickHull(b *testing.B) {
	sizes := []int{1e+2, 1e+3, 1e+4, 1e+5}
	for _, pointsCnt := range sizes {
		b.Run(fmt.Sprintf("N%d", pointsCnt), func(b *testing.B) {
			points := sampling.GenerateRandomPoints(pointsCnt, 0)
			v3 := make([]r3.Vector, len(points))
			for i, p := range points {
				v3[i] = p.Vector
			}

			qh := new(quickhull.QuickHull)

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				qh.ConvexHull(v3, true, true, 0)
			}
		})
	}
}

func BenchmarkConvexHull(b *testing.B) {
	sizes := []int{1e+2, 1e+3, 1e+4, 1e+5}
	for _, pointsCnt := range sizes {
		b.Run(fmt.Sprintf("N%d", pointsCnt), func(b *testing.B) {
			points := sampling.GenerateRandomPoints(pointsCnt, 0)

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, err := ConvexHull(points)
				if err != nil {
					b.Fatalf("ConvexHull(...) error = %v, want nil", err)
				}
			}
		})
	}
}

// Helpers

func mustConvexHull(t *testing.T, n int) *Hull {
	t.Helper()
	points := sampling.GenerateRandomPoints(n, 0)

	h, err := ConvexHull(points)
	if err != nil {
		t.Fatalf("ConvexHull(...) error = %v, want nil", err)
	}
	return h
}
