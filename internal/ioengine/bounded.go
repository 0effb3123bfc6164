package ioengine

import (
	"context"
	"os"
	"sync"

	"golang.org/x/sync/semaphore"
)

// rangeClaim tracks one in-flight operation's byte range so later
// overlapping operations can wait on it.
type rangeClaim struct {
	offset, size int64
	done         chan struct{}
}

// BoundedExecutor runs reads and writes concurrently, up to a fixed
// concurrency limit, while still completing overlapping byte ranges in
// issue order: a task that overlaps an earlier, still-running task
// waits for it before starting.
//
// Use this instead of Engine when many independent HDUs are being read
// or written at once and single-threaded draining becomes the
// bottleneck.
type BoundedExecutor struct {
	file *os.File
	sem  *semaphore.Weighted

	mu     sync.Mutex
	claims []*rangeClaim
}

// NewBoundedExecutor returns an executor over file allowing up to
// concurrency operations in flight simultaneously.
func NewBoundedExecutor(file *os.File, concurrency int64) *BoundedExecutor {
	if concurrency <= 0 {
		concurrency = 1
	}

	return &BoundedExecutor{
		file: file,
		sem:  semaphore.NewWeighted(concurrency),
	}
}

// AsyncReadAt enqueues a read, blocking only to acquire a concurrency
// slot (and, for ctx cancellation, not at all otherwise).
func (b *BoundedExecutor) AsyncReadAt(ctx context.Context, buf []byte, offset int64) (*Future, error) {
	return b.submit(ctx, taskRead, buf, offset)
}

// AsyncWriteAt enqueues a write.
func (b *BoundedExecutor) AsyncWriteAt(ctx context.Context, buf []byte, offset int64) (*Future, error) {
	return b.submit(ctx, taskWrite, buf, offset)
}

func (b *BoundedExecutor) submit(ctx context.Context, kind taskKind, buf []byte, offset int64) (*Future, error) {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	size := int64(len(buf))
	blockers, claim := b.claimRange(offset, size)

	resultCh := make(chan taskResult, 1)

	go func() {
		defer b.sem.Release(1)
		defer b.releaseRange(claim)

		for _, blocker := range blockers {
			<-blocker
		}

		var n int
		var err error
		switch kind {
		case taskRead:
			n, err = b.file.ReadAt(buf, offset)
		case taskWrite:
			n, err = b.file.WriteAt(buf, offset)
		}

		resultCh <- taskResult{n: n, err: err}
	}()

	return &Future{ch: resultCh}, nil
}

// claimRange registers [offset, offset+size) as in-flight and returns
// the done channels of every still-registered claim that overlaps it.
// Waiting on all of them orders the new operation behind each earlier
// overlapping one, including when those earlier claims do not overlap
// each other.
func (b *BoundedExecutor) claimRange(offset, size int64) ([]<-chan struct{}, *rangeClaim) {
	b.mu.Lock()
	defer b.mu.Unlock()

	end := offset + size

	var blockers []<-chan struct{}
	for _, c := range b.claims {
		if offset < c.offset+c.size && c.offset < end {
			blockers = append(blockers, c.done)
		}
	}

	claim := &rangeClaim{offset: offset, size: size, done: make(chan struct{})}
	b.claims = append(b.claims, claim)

	return blockers, claim
}

func (b *BoundedExecutor) releaseRange(claim *rangeClaim) {
	close(claim.done)

	b.mu.Lock()
	defer b.mu.Unlock()

	for i, c := range b.claims {
		if c == claim {
			b.claims = append(b.claims[:i], b.claims[i+1:]...)
			break
		}
	}
}
