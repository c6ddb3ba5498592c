// Package stencil implements a run-length voxel mask: row query (ordered
// in-mask [xLo,xHi] runs for a (y,z) row) and tail-append insertion,
// single-writer per row.
package stencil

import "sort"

// Run is a closed inclusive interval [XLo,XHi] of in-mask voxels on one row.
type Run struct {
	XLo, XHi int
}

// Reader is the read side of the stencil contract: given (y,z), yields the
// ordered sequence of in-mask runs intersecting that row. Implemented by
// both the input stencil (read during sampling) and, indirectly, by the
// RunStencil type below (which is both Reader and Writer).
type Reader interface {
	Rows(y, z int) []Run
}

// Writer is the write side of the stencil contract: appends a run at the
// current tail for (y,z). The tile driver guarantees runs for a given (y,z)
// arrive in increasing X order and never interleaves writers across threads
// for the same row.
type Writer interface {
	InsertRun(xLo, xHi, y, z int)
}

// rowKey packs (y,z) into a single map key.
type rowKey struct{ y, z int }

// RunStencil is a reference run-length mask implementation: a map from
// (y,z) to a slice of runs, append-only during a pass.
type RunStencil struct {
	rows map[rowKey][]Run
}

// NewRunStencil returns an empty stencil ready for insertion.
func NewRunStencil() *RunStencil {
	return &RunStencil{rows: make(map[rowKey][]Run)}
}

// Rows implements Reader.
func (s *RunStencil) Rows(y, z int) []Run {
	return s.rows[rowKey{y, z}]
}

// InsertRun implements Writer. Appends at the tail; callers (the tile
// driver) are responsible for the increasing-X-order guarantee, but
// InsertRun defensively merges with the current tail run when the new run
// is contiguous or overlapping, so accidental adjacent singletons don't
// fragment the row.
func (s *RunStencil) InsertRun(xLo, xHi, y, z int) {
	k := rowKey{y, z}
	runs := s.rows[k]
	if n := len(runs); n > 0 && xLo <= runs[n-1].XHi+1 {
		if xHi > runs[n-1].XHi {
			runs[n-1].XHi = xHi
		}
		s.rows[k] = runs
		return
	}
	s.rows[k] = append(runs, Run{XLo: xLo, XHi: xHi})
}

// Contains reports whether x is in-mask on row (y,z).
func (s *RunStencil) Contains(x, y, z int) bool {
	runs := s.Rows(y, z)
	i := sort.Search(len(runs), func(i int) bool { return runs[i].XHi >= x })
	return i < len(runs) && runs[i].XLo <= x
}

// FromMask builds a RunStencil from a dense boolean mask covering extent
// [x0,x1]x[y0,y1]x[z0,z1], useful for tests and for adapting an
// externally-supplied binary image into the run contract.
func FromMask(x0, x1, y0, y1, z0, z1 int, at func(x, y, z int) bool) *RunStencil {
	s := NewRunStencil()
	for z := z0; z <= z1; z++ {
		for y := y0; y <= y1; y++ {
			runStart := -1
			for x := x0; x <= x1; x++ {
				if at(x, y, z) {
					if runStart < 0 {
						runStart = x
					}
				} else if runStart >= 0 {
					s.InsertRun(runStart, x-1, y, z)
					runStart = -1
				}
			}
			if runStart >= 0 {
				s.InsertRun(runStart, x1, y, z)
			}
		}
	}
	return s
}
