// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2lloyd

import "golang.org/x/sync/errgroup"

// minChunk is the smallest range worth handing to its own goroutine.
const minChunk = 256

// parallelFor splits [0, n) into at most workers contiguous ranges and runs fn
// on each. It returns after every range is done.
func parallelFor(n, workers int, fn func(lo, hi int) error) error {
	if workers <= 1 || n <= minChunk {
		return fn(0, n)
	}

	chunk := max((n+workers-1)/workers, minChunk)
	var g errgroup.Group
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += chunk {
		lo := lo
		hi := min(lo+chunk, n)
		g.Go(func() error {
			return fn(lo, hi)
		})
	}
	return g.Wait()
}
