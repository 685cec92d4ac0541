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
	"time"

	"github.com/botobag/futures/executor"
)

// A Future is the unique consumer handle on an operation state: the value of an asynchronous
// computation that may not have finished yet.
//
// Unique futures expose a destructive read: Get consumes the handle, and any later access reports
// ErrPromiseUninitialized. Use Share to trade the unique handle for a SharedFuture which allows
// any number of coexisting readers.
//
// A Future must not be copied; pass the pointer around. The zero Future is invalid.
type Future[T any] struct {
	state *state[T]
}

// Valid reports whether the handle refers to an operation state. Get, Share and Release
// invalidate the handle.
func (f *Future[T]) Valid() bool {
	return f != nil && f.state != nil
}

// IsReady reports whether the outcome is available. It never blocks. An invalid handle reports
// false.
func (f *Future[T]) IsReady() bool {
	return f.Valid() && f.state.isReady()
}

// Status returns the current status of the underlying operation without launching or waiting.
// The result is immediately stale unless it is StatusReady, which is terminal. An invalid handle
// reports StatusDeferred.
func (f *Future[T]) Status() Status {
	if !f.Valid() {
		return StatusDeferred
	}
	return f.state.loadStatus()
}

// Wait blocks until the outcome is available. The first wait on a deferred future launches its
// task. Waiting on an invalid handle returns immediately.
func (f *Future[T]) Wait() {
	if f.Valid() {
		f.state.wait()
	}
}

// WaitFor waits for the outcome for at most d. Like Wait, it launches a deferred task. On
// WaitTimeout the operation is left untouched and may be waited on again.
func (f *Future[T]) WaitFor(d time.Duration) WaitStatus {
	return f.WaitUntil(time.Now().Add(d))
}

// WaitUntil waits for the outcome until the time instant t.
func (f *Future[T]) WaitUntil(t time.Time) WaitStatus {
	if !f.Valid() {
		return WaitReady
	}
	return f.state.waitDeadline(t)
}

// Get waits for and returns the outcome, consuming the handle. A second Get (or a Get after
// Share/Release) reports ErrPromiseUninitialized.
func (f *Future[T]) Get() (T, error) {
	if !f.Valid() {
		var zero T
		return zero, ErrPromiseUninitialized
	}
	s := f.state
	f.state = nil
	return s.get()
}

// Err returns the error of a ready operation (nil if it succeeded) without consuming the handle.
// On a state that is not ready yet it reports ErrPromiseUninitialized.
func (f *Future[T]) Err() error {
	if !f.Valid() {
		return ErrPromiseUninitialized
	}
	return f.state.errNow()
}

// Share consumes the unique handle and returns a shared one. Shared futures may be cloned freely
// and read any number of times.
func (f *Future[T]) Share() *SharedFuture[T] {
	if !f.Valid() {
		return &SharedFuture[T]{}
	}
	s := f.state
	f.state = nil
	return &SharedFuture[T]{state: s}
}

// Release drops the handle without reading the outcome. On a stoppable future this also requests
// a stop, mirroring the teardown contract of stoppable operations. Release does not block; a
// running task keeps running (and keeps the state alive) until it completes.
func (f *Future[T]) Release() {
	if !f.Valid() {
		return
	}
	f.state.stop.RequestStop()
	f.state = nil
}

// Continuable reports whether the future carries a continuation list, i.e. whether Then can
// schedule successors without occupying a goroutine while this operation runs.
func (f *Future[T]) Continuable() bool {
	return f.Valid() && f.state.continuations.Valid()
}

// Stoppable reports whether the future carries a stop source.
func (f *Future[T]) Stoppable() bool {
	return f.Valid() && f.state.stop.StopPossible()
}

// RequestStop requests a cooperative stop of the associated task. It returns true only on the
// call that performed the transition; false when already requested or when the future is not
// stoppable.
func (f *Future[T]) RequestStop() bool {
	if !f.Valid() {
		return false
	}
	return f.state.stop.RequestStop()
}

// StopToken returns a token observing the future's stop source. The zero token is returned when
// the future is not stoppable.
func (f *Future[T]) StopToken() StopToken {
	if !f.Valid() {
		return StopToken{}
	}
	return f.state.stop.Token()
}

// Executor returns the executor the operation was launched with, or nil.
func (f *Future[T]) Executor() executor.Executor {
	if !f.Valid() {
		return nil
	}
	return f.state.executor
}

// And is syntactic sugar for the two-input conjunction: it completes when both f and other
// completed, collecting both outcomes. Both handles are consumed.
func (f *Future[T]) And(other *Future[T]) *Future[[]Result[T]] {
	return WhenAll(f, other)
}

// Or is syntactic sugar for the two-input disjunction: it completes as soon as either f or other
// does. Both handles are consumed; the loser is reachable through the result.
func (f *Future[T]) Or(other *Future[T]) *Future[AnyResult[T]] {
	return WhenAny(f, other)
}

// readyFuture creates a future that is immediately ready with the given outcome.
func readyFuture[T any](value T, err error) *Future[T] {
	s := newState[T](false, stateOptions{})
	if err != nil {
		s.setError(err)
	} else {
		s.setValue(value)
	}
	return &Future[T]{state: s}
}

// Ready creates a future that is immediately ready with a value.
func Ready[T any](value T) *Future[T] {
	return readyFuture(value, nil)
}

// Err creates a future that is immediately ready with an error.
func Err[T any](err error) *Future[T] {
	var zero T
	return readyFuture(zero, err)
}
