// Package ioengine drives positional reads and writes against an open
// fits file: synchronous calls for the common case, and a single
// cooperative executor for callers that want to issue several
// operations and collect their results later without managing their
// own goroutines.
package ioengine

import (
	"context"
	"os"
	"sync/atomic"

	"github.com/gofits/fits/internal/utils"
)

type taskKind int

const (
	taskRead taskKind = iota
	taskWrite
)

type task struct {
	kind   taskKind
	buf    []byte
	offset int64
	result chan taskResult
}

type taskResult struct {
	n   int
	err error
}

// Future is a pending async result. Wait blocks until the operation
// completes.
type Future struct {
	ch chan taskResult
}

// Wait blocks for the result of the async operation this future was
// returned from.
func (f *Future) Wait() (int, error) {
	r := <-f.ch
	return r.n, r.err
}

// Engine serializes positional I/O against a single file through one
// cooperative loop, run by calling Run from a dedicated goroutine.
// Overlapping reads and writes complete in the order they were issued,
// since a single goroutine drains the task queue.
//
// Not safe for concurrent Run calls; AsyncReadAt/AsyncWriteAt/ReadAt/
// WriteAt may be called from any goroutine.
type Engine struct {
	file    *os.File
	tasks   chan task
	done    chan struct{}
	running atomic.Bool
}

// NewEngine returns an engine over file. queueDepth bounds how many
// async operations may be outstanding before AsyncReadAt/AsyncWriteAt
// block; 0 selects a sensible default.
func NewEngine(file *os.File, queueDepth int) *Engine {
	if queueDepth <= 0 {
		queueDepth = 256
	}

	return &Engine{
		file:  file,
		tasks: make(chan task, queueDepth),
		done:  make(chan struct{}),
	}
}

// ReadAt performs an immediate positional read, bypassing the task
// queue. Safe to call while Run is active or stopped.
func (e *Engine) ReadAt(buf []byte, offset int64) (int, error) {
	return e.file.ReadAt(buf, offset)
}

// WriteAt performs an immediate positional write, bypassing the task
// queue. Safe to call while Run is active or stopped.
func (e *Engine) WriteAt(buf []byte, offset int64) (int, error) {
	return e.file.WriteAt(buf, offset)
}

// AsyncReadAt enqueues a read and returns a Future for its result. The
// read does not start until Run's loop reaches it.
func (e *Engine) AsyncReadAt(buf []byte, offset int64) (*Future, error) {
	return e.submit(task{kind: taskRead, buf: buf, offset: offset})
}

// AsyncWriteAt enqueues a write and returns a Future for its result.
func (e *Engine) AsyncWriteAt(buf []byte, offset int64) (*Future, error) {
	return e.submit(task{kind: taskWrite, buf: buf, offset: offset})
}

func (e *Engine) submit(t task) (*Future, error) {
	if !e.running.Load() {
		return nil, utils.New(utils.KindCancelled, "engine is not running")
	}

	t.result = make(chan taskResult, 1)

	select {
	case e.tasks <- t:
		return &Future{ch: t.result}, nil
	case <-e.done:
		return nil, utils.New(utils.KindCancelled, "engine stopped while submitting task")
	}
}

// Run drains the task queue until ctx is cancelled or Stop is called.
// It is meant to be called from one dedicated goroutine; the caller
// decides whether that's the main goroutine or a background one.
func (e *Engine) Run(ctx context.Context) error {
	e.running.Store(true)
	defer e.running.Store(false)

	for {
		select {
		case t, ok := <-e.tasks:
			if !ok {
				return nil
			}
			e.execute(t)
		case <-ctx.Done():
			e.drainCancelled()
			return ctx.Err()
		case <-e.done:
			e.drainCancelled()
			return nil
		}
	}
}

func (e *Engine) execute(t task) {
	var n int
	var err error

	switch t.kind {
	case taskRead:
		n, err = e.file.ReadAt(t.buf, t.offset)
	case taskWrite:
		n, err = e.file.WriteAt(t.buf, t.offset)
	}

	t.result <- taskResult{n: n, err: err}
}

// drainCancelled delivers a Cancelled result to every task still sitting
// in the queue when Run is asked to stop, so no Future.Wait blocks
// forever on a task that will never run.
func (e *Engine) drainCancelled() {
	for {
		select {
		case t := <-e.tasks:
			t.result <- taskResult{err: utils.New(utils.KindCancelled, "engine stopped before task ran")}
		default:
			return
		}
	}
}

// Stop signals Run to return. Safe to call more than once.
func (e *Engine) Stop() {
	select {
	case <-e.done:
	default:
		close(e.done)
	}
}
