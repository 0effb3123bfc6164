// Package writer provides file creation and space allocation infrastructure
// for constructing fits files.
//
// Allocator implements the library's closed-form layout strategy: every
// block is placed at the current end of file and never reused. Later
// positional writes into an already allocated block (such as a header
// block being rewritten) do not go through the allocator.
package writer

import (
	"fmt"
	"sort"
)

// AllocatedBlock tracks a contiguous region reserved in the file.
type AllocatedBlock struct {
	Offset uint64
	Size   uint64
}

// Allocator hands out strictly increasing, non-overlapping byte ranges.
// Space is never reclaimed: once allocated, a block is permanent for the
// lifetime of the allocator.
//
// Not safe for concurrent use.
type Allocator struct {
	blocks     []AllocatedBlock
	nextOffset uint64
}

// NewAllocator returns an allocator starting at initialOffset. Pass 0 to
// allocate from the beginning of the file.
func NewAllocator(initialOffset uint64) *Allocator {
	return &Allocator{
		blocks:     make([]AllocatedBlock, 0, 16),
		nextOffset: initialOffset,
	}
}

// Allocate reserves size bytes at the current end of file and returns the
// address of the reserved block. The block is not zeroed.
func (a *Allocator) Allocate(size uint64) (uint64, error) {
	if size == 0 {
		return 0, fmt.Errorf("cannot allocate zero bytes")
	}

	addr := a.nextOffset
	a.blocks = append(a.blocks, AllocatedBlock{Offset: addr, Size: size})
	a.nextOffset = addr + size

	return addr, nil
}

// IsAllocated reports whether [offset, offset+size) overlaps any block
// already handed out.
func (a *Allocator) IsAllocated(offset, size uint64) bool {
	if size == 0 {
		return false
	}

	rangeEnd := offset + size
	for _, block := range a.blocks {
		blockEnd := block.Offset + block.Size
		if offset < blockEnd && block.Offset < rangeEnd {
			return true
		}
	}

	return false
}

// EndOfFile returns the address the next Allocate call would use, which
// is also the current total file size.
func (a *Allocator) EndOfFile() uint64 {
	return a.nextOffset
}

// Blocks returns a copy of all allocated blocks sorted by offset.
func (a *Allocator) Blocks() []AllocatedBlock {
	blocks := make([]AllocatedBlock, len(a.blocks))
	copy(blocks, a.blocks)

	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].Offset < blocks[j].Offset
	})

	return blocks
}

// ValidateNoOverlaps checks allocator integrity. A correctly used allocator
// never produces overlaps; a non-nil return indicates a caller bug (e.g. a
// layout plan computed from stale axis data).
func (a *Allocator) ValidateNoOverlaps() error {
	blocks := a.Blocks()

	for i := 0; i < len(blocks)-1; i++ {
		current := blocks[i]
		next := blocks[i+1]

		currentEnd := current.Offset + current.Size
		if currentEnd > next.Offset {
			return fmt.Errorf("overlap detected: block at %d (size %d) overlaps block at %d",
				current.Offset, current.Size, next.Offset)
		}
	}

	return nil
}
