/**
 * Copyright (c) 2020, The Artemis Authors.
 *
 * Permission to use, copy, modify, and/or distribute this software for any
 * purpose with or without fee is hereby granted, provided that the above
 * copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES
 * WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR
 * ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES
 * WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN
 * ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF
 * OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package futures

import (
	"sync/atomic"

	"github.com/botobag/futures/executor"
)

// A PackagedTask wraps a function so that its outcome is delivered through a future. It is the
// bridge between a plain callable and the promise side of an operation state: Call (or Run) runs
// the function exactly once and completes the state with whatever it returns or panics with.
//
// PackagedTask implements executor.Task, so it can be handed to any executor directly:
//
//	task := futures.NewPackagedTask(compute)
//	f, _ := task.Future()
//	pool.Submit(task)
//	value, err := f.Get()
type PackagedTask[T any] struct {
	fn        func() (T, error)
	state     *state[T]
	called    atomic.Bool
	retrieved atomic.Bool
}

// PackagedTask implements executor.Task.
var _ executor.Task = (*PackagedTask[struct{}])(nil)

// NewPackagedTask creates a packaged task around fn.
func NewPackagedTask[T any](fn func() (T, error)) *PackagedTask[T] {
	return &PackagedTask[T]{
		fn:    fn,
		state: newState[T](false, stateOptions{}),
	}
}

// Future returns the unique consumer handle for this task. Only one handle is ever minted; later
// calls report ErrFutureAlreadyRetrieved.
func (t *PackagedTask[T]) Future() (*Future[T], error) {
	if !t.retrieved.CompareAndSwap(false, true) {
		return nil, ErrFutureAlreadyRetrieved
	}
	return &Future[T]{state: t.state}, nil
}

// Call runs the wrapped function and completes the state with its outcome. A task runs at most
// once; later calls report ErrPromiseAlreadySatisfied without running the function.
func (t *PackagedTask[T]) Call() error {
	if !t.called.CompareAndSwap(false, true) {
		return ErrPromiseAlreadySatisfied
	}
	fn := t.fn
	t.fn = nil
	t.state.apply(fn)
	return nil
}

// Run implements executor.Task. It calls Call and discards the at-most-once violation error (the
// outcome still reaches consumers through the future).
func (t *PackagedTask[T]) Run() {
	_ = t.Call()
}

// Close retires the task. If it never ran, ErrBrokenPromise is installed as the outcome.
func (t *PackagedTask[T]) Close() {
	_ = t.state.setError(ErrBrokenPromise)
}
