// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package sampling draws points uniformly distributed over the surface of a sphere.

package sampling

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
)

// ErrSampling is returned for invalid sampling parameters.
var ErrSampling = errors.New("sampling: invalid parameters")

// RandomSpherical draws a single point uniformly distributed on the sphere of the given radius.
// The polar angle is taken from a uniform cosine so that points do not cluster at the poles.
func RandomSpherical(radius float64, rng *rand.Rand) (r3.Vector, error) {
	if rng == nil {
		return r3.Vector{}, fmt.Errorf("%w: nil random source", ErrSampling)
	}
	if !(radius > 0) || math.IsInf(radius, 1) {
		return r3.Vector{}, fmt.Errorf("%w: radius %v must be positive and finite", ErrSampling, radius)
	}

	theta := rng.Float64() * 2 * math.Pi
	cosPhi := rng.Float64()*2 - 1
	phi := math.Acos(cosPhi)

	return sphericalToCartesian(theta, phi).Mul(radius), nil
}

// SampleSphere draws n independent points uniformly distributed on the unit sphere.
func SampleSphere(n int, rng *rand.Rand) (s2.PointVector, error) {
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrSampling)
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: point count %d must be positive", ErrSampling, n)
	}

	points := make(s2.PointVector, n)
	for i := 0; i < n; i++ {
		u := rng.Float64()
		v := rng.Float64()

		theta := 2 * math.Pi * u
		phi := math.Acos(2*v - 1)
		points[i] = s2.Point{Vector: sphericalToCartesian(theta, phi)}
	}

	return points, nil
}

// GenerateRandomPoints generates a vector of random points on the S2 sphere.
// The seed parameter ensures reproducibility.
func GenerateRandomPoints(cnt int, seed int64) s2.PointVector {
	if cnt < 0 {
		panic("GenerateRandomPoints: cnt must be non-negative")
	}
	if cnt == 0 {
		return s2.PointVector{}
	}

	//nolint:gosec
	random := rand.New(rand.NewSource(seed))
	points, err := SampleSphere(cnt, random)
	if err != nil {
		panic(err)
	}
	return points
}

func sphericalToCartesian(theta, phi float64) r3.Vector {
	sinPhi := math.Sin(phi)
	return r3.Vector{
		X: sinPhi * math.Cos(theta),
		Y: sinPhi * math.Sin(theta),
		Z: math.Cos(phi),
	}
}
