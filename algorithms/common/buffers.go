package common

import (
	"fmt"
)

// BlockFramer slices an arbitrary sample stream into fixed-size,
// non-overlapping blocks.
type BlockFramer struct {
	buffer    []float64
	blockSize int
	writePos  int
}

// NewBlockFramer creates a framer emitting blocks of blockSize samples.
func NewBlockFramer(blockSize int) (*BlockFramer, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("block size must be positive, got %d", blockSize)
	}
	return &BlockFramer{
		buffer:    make([]float64, blockSize),
		blockSize: blockSize,
	}, nil
}

// AddSamples appends samples and returns every block completed by them.
// Returned blocks are freshly allocated.
func (bf *BlockFramer) AddSamples(samples []float64) [][]float64 {
	var blocks [][]float64

	for len(samples) > 0 {
		n := copy(bf.buffer[bf.writePos:], samples)
		bf.writePos += n
		samples = samples[n:]

		if bf.writePos == bf.blockSize {
			block := make([]float64, bf.blockSize)
			copy(block, bf.buffer)
			blocks = append(blocks, block)
			bf.writePos = 0
		}
	}

	return blocks
}

// Flush returns the pending partial block zero-padded to full size, or nil
// if nothing is pending.
func (bf *BlockFramer) Flush() []float64 {
	if bf.writePos == 0 {
		return nil
	}
	block := make([]float64, bf.blockSize)
	copy(block, bf.buffer[:bf.writePos])
	bf.writePos = 0
	return block
}
