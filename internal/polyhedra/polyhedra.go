// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package polyhedra provides the vertices of regular polyhedra projected onto the unit sphere.
package polyhedra

import (
	"math"

	"github.com/golang/geo/s2"
)

// Phi is the golden ratio.
var Phi = (1 + math.Sqrt(5)) / 2

// Tetrahedron returns the 4 vertices of a regular tetrahedron.
func Tetrahedron() s2.PointVector {
	return s2.PointVector{
		s2.PointFromCoords(1, 1, 1),
		s2.PointFromCoords(1, -1, -1),
		s2.PointFromCoords(-1, 1, -1),
		s2.PointFromCoords(-1, -1, 1),
	}
}

// Octahedron returns the 6 vertices of a regular octahedron.
func Octahedron() s2.PointVector {
	return s2.PointVector{
		s2.PointFromCoords(1, 0, 0),
		s2.PointFromCoords(-1, 0, 0),
		s2.PointFromCoords(0, 1, 0),
		s2.PointFromCoords(0, -1, 0),
		s2.PointFromCoords(0, 0, 1),
		s2.PointFromCoords(0, 0, -1),
	}
}

// Cube returns the 8 vertices of a cube. Its faces are quadrilaterals.
func Cube() s2.PointVector {
	var pts s2.PointVector
	for _, x := range []float64{-1, 1} {
		for _, y := range []float64{-1, 1} {
			for _, z := range []float64{-1, 1} {
				pts = append(pts, s2.PointFromCoords(x, y, z))
			}
		}
	}
	return pts
}

// Icosahedron returns the 12 vertices of a regular icosahedron.
func Icosahedron() s2.PointVector {
	return s2.PointVector{
		s2.PointFromCoords(Phi, 1, 0),
		s2.PointFromCoords(-Phi, 1, 0),
		s2.PointFromCoords(Phi, -1, 0),
		s2.PointFromCoords(-Phi, -1, 0),
		s2.PointFromCoords(1, 0, Phi),
		s2.PointFromCoords(1, 0, -Phi),
		s2.PointFromCoords(-1, 0, Phi),
		s2.PointFromCoords(-1, 0, -Phi),
		s2.PointFromCoords(0, Phi, 1),
		s2.PointFromCoords(0, -Phi, 1),
		s2.PointFromCoords(0, Phi, -1),
		s2.PointFromCoords(0, -Phi, -1),
	}
}

// Dodecahedron returns the 20 vertices of a regular dodecahedron, the dual of Icosahedron.
func Dodecahedron() s2.PointVector {
	inv := 1 / Phi
	pts := Cube()
	for _, a := range []float64{-1, 1} {
		for _, b := range []float64{-1, 1} {
			pts = append(pts,
				s2.PointFromCoords(a*inv, b*Phi, 0),
				s2.PointFromCoords(0, a*inv, b*Phi),
				s2.PointFromCoords(b*Phi, 0, a*inv),
			)
		}
	}
	return pts
}

// IcosahedronCellChord is the chord length between an icosahedron vertex and
// the vertices of its dodecahedral Voronoi cell.
var IcosahedronCellChord = math.Sqrt(2 - 2*math.Sqrt(1.0/15*(5+2*math.Sqrt(5))))
