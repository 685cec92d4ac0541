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

import "time"

// A SharedFuture is a consumer handle that allows multiple coexisting readers of one operation
// state. It is obtained from Future.Share and may be cloned freely. Get is non-destructive: every
// handle (and every caller) can read the outcome.
//
// Values of type T are returned by copy; if T has reference semantics (slices, maps, pointers),
// readers share the pointed-to data.
type SharedFuture[T any] struct {
	state *state[T]
}

// Valid reports whether the handle refers to an operation state.
func (f *SharedFuture[T]) Valid() bool {
	return f != nil && f.state != nil
}

// Clone returns another handle on the same operation state.
func (f *SharedFuture[T]) Clone() *SharedFuture[T] {
	if !f.Valid() {
		return &SharedFuture[T]{}
	}
	return &SharedFuture[T]{state: f.state}
}

// IsReady reports whether the outcome is available. It never blocks.
func (f *SharedFuture[T]) IsReady() bool {
	return f.Valid() && f.state.isReady()
}

// Status returns the current status of the underlying operation without launching or waiting.
func (f *SharedFuture[T]) Status() Status {
	if !f.Valid() {
		return StatusDeferred
	}
	return f.state.loadStatus()
}

// Wait blocks until the outcome is available. The first waiter on a shared deferred future
// launches its task; everyone else blocks until completion.
func (f *SharedFuture[T]) Wait() {
	if f.Valid() {
		f.state.wait()
	}
}

// WaitFor waits for the outcome for at most d. Shared handles observe rather than drive the
// operation: a deferred task is not launched, and WaitDeferred is returned instead. Use Wait or
// Get to launch it.
func (f *SharedFuture[T]) WaitFor(d time.Duration) WaitStatus {
	return f.WaitUntil(time.Now().Add(d))
}

// WaitUntil waits for the outcome until the time instant t. See WaitFor for the treatment of
// deferred operations.
func (f *SharedFuture[T]) WaitUntil(t time.Time) WaitStatus {
	if !f.Valid() {
		return WaitReady
	}
	return f.state.waitDeadlineObserve(t)
}

// Get waits for and returns the outcome. Unlike Future.Get it does not consume the handle; any
// number of calls from any number of clones observe the same outcome.
func (f *SharedFuture[T]) Get() (T, error) {
	if !f.Valid() {
		var zero T
		return zero, ErrPromiseUninitialized
	}
	return f.state.get()
}

// Err returns the error of a ready operation (nil if it succeeded). On a state that is not ready
// yet it reports ErrPromiseUninitialized.
func (f *SharedFuture[T]) Err() error {
	if !f.Valid() {
		return ErrPromiseUninitialized
	}
	return f.state.errNow()
}
