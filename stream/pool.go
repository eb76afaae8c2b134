package stream

import "sync"

// bufferPool recycles small scratch buffers for fixed-width reads.
var bufferPool = sync.Pool{
	New: func() interface{} {
		return make([]byte, 0, 64)
	},
}

func getBuffer(size int) []byte {
	buf := bufferPool.Get().([]byte)
	if cap(buf) < size {
		return make([]byte, size)
	}
	return buf[:size]
}

func releaseBuffer(buf []byte) {
	bufferPool.Put(buf[:0]) //nolint:staticcheck // SA6002: acceptable slice descriptor copy for sync.Pool
}
