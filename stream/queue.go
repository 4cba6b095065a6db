package stream

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueClosed is returned by Push after Close, and by Pop once a closed
// queue has been drained.
var ErrQueueClosed = errors.New("block queue closed")

// Block is one fixed-length run of mono samples. A block must not be
// modified after it is pushed.
type Block []float64

// BlockQueue is an unbounded FIFO of audio blocks shared by one producer and
// one consumer. Push never blocks, so a slow consumer makes the queue grow
// rather than stalling capture.
type BlockQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	blocks []Block
	head   int
	closed bool
}

// NewBlockQueue creates an empty queue.
func NewBlockQueue() *BlockQueue {
	q := &BlockQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends a block and wakes a waiting consumer.
func (q *BlockQueue) Push(b Block) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	q.blocks = append(q.blocks, b)
	q.cond.Signal()
	return nil
}

// Pop removes and returns the oldest block, blocking until one is available.
// It returns ctx.Err() if ctx is cancelled while waiting, and ErrQueueClosed
// once the queue is closed and empty. Blocks pushed before Close are still
// delivered.
func (q *BlockQueue) Pop(ctx context.Context) (Block, error) {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.cond.Broadcast()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for q.len() == 0 {
		if q.closed {
			return nil, ErrQueueClosed
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q.cond.Wait()
	}

	b := q.blocks[q.head]
	q.blocks[q.head] = nil
	q.head++

	// Reclaim the consumed prefix once it dominates the backing array.
	if q.head > 64 && q.head*2 >= len(q.blocks) {
		q.blocks = append([]Block(nil), q.blocks[q.head:]...)
		q.head = 0
	}
	return b, nil
}

// Close stops further pushes and wakes every waiting consumer. It is safe to
// call more than once.
func (q *BlockQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}

// Len returns the number of queued blocks.
func (q *BlockQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.len()
}

func (q *BlockQueue) len() int {
	return len(q.blocks) - q.head
}
