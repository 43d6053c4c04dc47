package waveform

import (
	"fmt"
	"sync/atomic"
)

var lastSampleBufferID atomic.Uint64

// SampleBuffer holds one channel of audio samples.
//
// A SampleBuffer is immutable once created and may be shared between
// goroutines. Each buffer gets a unique ID at construction; the
// Renderer uses it to decide whether the buffer pyramid has to be
// rebuilt, so two buffers with equal contents are still different
// buffers.
type SampleBuffer struct {
	id      uint64
	samples []float32
}

// NewSampleBuffer takes ownership of samples. The caller must not
// modify the slice afterwards.
func NewSampleBuffer(samples []float32) *SampleBuffer {
	return &SampleBuffer{
		id:      lastSampleBufferID.Add(1),
		samples: samples,
	}
}

func (sb *SampleBuffer) ID() uint64 {
	return sb.id
}

func (sb *SampleBuffer) Samples() []float32 {
	return sb.samples
}

func (sb *SampleBuffer) Count() int {
	return len(sb.samples)
}

func (sb *SampleBuffer) String() string {
	return fmt.Sprintf("SampleBuffer(id=%d count=%d)", sb.id, len(sb.samples))
}
