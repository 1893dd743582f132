package encryption

import (
	"crypto/aes"
	"sync"
)

// chunkBufferSize leaves room for one block of padding after a full default chunk.
const chunkBufferSize = DefaultChunkSize + aes.BlockSize

// bufferPool provides reusable chunk buffers for engines running with the default chunk size.
//
//nolint:gochecknoglobals
var bufferPool = sync.Pool{
	New: func() any {
		return make([]byte, chunkBufferSize)
	},
}

// buffer returns a chunk buffer and the function that releases it.
func (e *Engine) buffer() ([]byte, func()) {
	if e.chunkSize != DefaultChunkSize {
		return make([]byte, e.chunkSize+aes.BlockSize), func() {}
	}

	buf, ok := bufferPool.Get().([]byte)
	if !ok {
		buf = make([]byte, chunkBufferSize)
	}

	return buf, func() { bufferPool.Put(buf) } //nolint:staticcheck
}
