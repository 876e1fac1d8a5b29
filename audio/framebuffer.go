package audio

import "fmt"

// FrameBuffer accumulates arbitrary-sized sample chunks into fixed-size
// blocks. With a non-zero overlap fraction each emitted block retains the
// trailing samples of the previous one to smooth seams between transforms.
//
// FrameBuffer holds no cross-session state; callers own synchronization.
type FrameBuffer struct {
	blockSize  int
	step       int // samples consumed per emitted block
	sampleRate int
	pending    []float64
}

// NewFrameBuffer creates a frame buffer emitting blocks of blockSize
// samples. overlap is the fraction of each block carried into the next and
// must be in [0, 1).
func NewFrameBuffer(blockSize, sampleRate int, overlap float64) (*FrameBuffer, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("%w: block size must be positive: %d", ErrInvalidConfig, blockSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive: %d", ErrInvalidConfig, sampleRate)
	}
	if overlap < 0 || overlap >= 1 {
		return nil, fmt.Errorf("%w: overlap must be in [0, 1): %f", ErrInvalidConfig, overlap)
	}
	step := blockSize - int(float64(blockSize)*overlap)
	if step < 1 {
		step = 1
	}
	return &FrameBuffer{
		blockSize:  blockSize,
		step:       step,
		sampleRate: sampleRate,
	}, nil
}

// BlockSize returns the configured block length in samples.
func (fb *FrameBuffer) BlockSize() int { return fb.blockSize }

// Pending returns the number of buffered samples not yet emitted.
func (fb *FrameBuffer) Pending() int { return len(fb.pending) }

// Push appends a chunk of samples and returns every complete block now
// available, in arrival order. Partial blocks are never emitted here.
func (fb *FrameBuffer) Push(chunk []float64) []Block {
	fb.pending = append(fb.pending, chunk...)

	var blocks []Block
	for len(fb.pending) >= fb.blockSize {
		samples := make([]float64, fb.blockSize)
		copy(samples, fb.pending[:fb.blockSize])
		blocks = append(blocks, Block{
			Samples:    samples,
			SampleRate: fb.sampleRate,
			Channels:   1,
		})
		fb.pending = fb.pending[fb.step:]
	}
	return blocks
}

// Flush emits whatever samples remain as one final short block. It reports
// false when nothing is pending. Only valid at stream end.
func (fb *FrameBuffer) Flush() (Block, bool) {
	if len(fb.pending) == 0 {
		return Block{}, false
	}
	samples := make([]float64, len(fb.pending))
	copy(samples, fb.pending)
	fb.pending = fb.pending[:0]
	return Block{Samples: samples, SampleRate: fb.sampleRate, Channels: 1}, true
}
