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

import "sync/atomic"

// A Promise is the producer handle on an operation state. The producer sets a value or an error
// exactly once; the consumer observes it through the Future obtained from the Future method.
//
// A producer that walks away without setting anything must call Close, which installs
// ErrBrokenPromise so consumers are not left waiting forever.
//
// Promise-backed futures carry no continuation list; combinators over them use the polling and
// condition-variable strategies instead of continuations.
type Promise[T any] struct {
	state     *state[T]
	retrieved atomic.Bool
}

// NewPromise creates a promise with a fresh operation state.
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{
		state: newState[T](false, stateOptions{}),
	}
}

// Future returns the unique consumer handle for this promise. Only one handle is ever minted;
// later calls report ErrFutureAlreadyRetrieved.
func (p *Promise[T]) Future() (*Future[T], error) {
	if !p.retrieved.CompareAndSwap(false, true) {
		return nil, ErrFutureAlreadyRetrieved
	}
	return &Future[T]{state: p.state}, nil
}

// SetValue completes the operation with a value. A second completion attempt (by SetValue,
// SetError or a prior Close) reports ErrPromiseAlreadySatisfied.
func (p *Promise[T]) SetValue(value T) error {
	return p.state.setValue(value)
}

// SetError completes the operation with an error.
func (p *Promise[T]) SetError(err error) error {
	return p.state.setError(err)
}

// IsSatisfied reports whether the operation has been completed.
func (p *Promise[T]) IsSatisfied() bool {
	return p.state.isReady()
}

// Close retires the producer. If the operation has not been completed, ErrBrokenPromise is
// installed as its outcome. Close is safe to call after a successful SetValue/SetError, where it
// does nothing, so it can be deferred at the top of a producer.
func (p *Promise[T]) Close() {
	// setError refuses with ErrPromiseAlreadySatisfied when an outcome exists; that is exactly
	// the wanted behavior here.
	_ = p.state.setError(ErrBrokenPromise)
}
