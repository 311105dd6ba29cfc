// Package bytepool defines a pool for storing and reusing raw byte buffers,
// used on the hot path (response encoding) to avoid a fresh allocation per
// announce/scrape request.
package bytepool

import "sync"

// BytePool is a cached pool of reusable byte slices of a fixed capacity.
type BytePool struct {
	sync.Pool
}

// NewBytePool allocates a new BytePool whose slices start at length zero but
// share the given backing capacity.
func NewBytePool(capacity int) *BytePool {
	var bp BytePool
	bp.New = func() any {
		// Avoids allocating the slice header separately from its backing
		// array; see https://staticcheck.io/docs/checks#SA6002.
		b := make([]byte, 0, capacity)
		return &b
	}
	return &bp
}

// Get returns a byte slice from the pool, truncated to zero length.
func (bp *BytePool) Get() *[]byte {
	b := bp.Pool.Get().(*[]byte)
	*b = (*b)[:0]
	return b
}

// Put returns a byte slice to the pool.
func (bp *BytePool) Put(b *[]byte) {
	bp.Pool.Put(b)
}
