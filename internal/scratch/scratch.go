// Package scratch provides a bucketed sync.Pool of float64 slices for the
// per-voxel sample/composited buffers and per-row slab accumulators the
// execute paths allocate on every tile. Buffers are organized by size
// class, keyed by element count, to minimize waste across the wide range
// of tile widths a reslice pass can produce.
package scratch

import "sync"

// Size classes for bucketed float64 pools, in element count.
const (
	Elems64   = 64
	Elems256  = 256
	Elems1024 = 1024
	Elems4096 = 4096
	Elems16K  = 16384
)

var floatSizes = [5]int{Elems64, Elems256, Elems1024, Elems4096, Elems16K}

var floatPools [5]sync.Pool

func init() {
	for i := range floatPools {
		n := floatSizes[i]
		floatPools[i] = sync.Pool{
			New: func() any {
				b := make([]float64, n)
				return &b
			},
		}
	}
}

func floatBucketIndex(n int) int {
	for i, sz := range floatSizes {
		if n <= sz {
			return i
		}
	}
	return len(floatSizes) - 1
}

// GetFloats returns a float64 slice of length n from the pool. The caller
// must call PutFloats when done with it.
func GetFloats(n int) []float64 {
	idx := floatBucketIndex(n)
	bp := floatPools[idx].Get().(*[]float64)
	b := *bp
	if cap(b) < n {
		b = make([]float64, n)
		*bp = b
		return b
	}
	return b[:n]
}

// PutFloats returns a float64 slice obtained from GetFloats to the pool.
func PutFloats(b []float64) {
	c := cap(b)
	if c < Elems64 {
		return
	}
	idx := floatBucketIndex(c)
	floatPools[idx].Put(&b)
}
