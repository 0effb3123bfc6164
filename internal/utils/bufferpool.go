package utils

import "sync"

// blockSize is the FITS block unit; pooled buffers default to this
// capacity since most I/O in the library happens in whole blocks.
const blockSize = 2880

var bufferPool = sync.Pool{
	New: func() interface{} {
		return make([]byte, 0, blockSize)
	},
}

// GetBuffer returns a byte slice of the requested size from the pool.
func GetBuffer(size int) []byte {
	buf := bufferPool.Get().([]byte)
	if cap(buf) < size {
		return make([]byte, size, size*2) // Increase capacity.
	}
	return buf[:size]
}

// ReleaseBuffer returns a buffer to the pool.
func ReleaseBuffer(buf []byte) {
	//nolint:staticcheck // SA6002: slice descriptor copy is acceptable for sync.Pool
	bufferPool.Put(buf[:0])
}
