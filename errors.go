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
	"errors"
	"fmt"
)

var (
	// ErrBrokenPromise indicates a promise was closed (or its producer went away) before setting a
	// value or an error. It is observed by the consumer through Get.
	ErrBrokenPromise = errors.New("futures: broken promise")

	// ErrPromiseAlreadySatisfied indicates a second attempt to set the value or the error of an
	// operation state. It is reported to the setter; the state keeps its first outcome.
	ErrPromiseAlreadySatisfied = errors.New("futures: promise already satisfied")

	// ErrPromiseUninitialized indicates an access to an operation state that holds no outcome:
	// reading the error of a not-yet-ready state, or using a future handle that was consumed,
	// moved or never attached to a state.
	ErrPromiseUninitialized = errors.New("futures: promise uninitialized")

	// ErrFutureAlreadyRetrieved indicates a second call to the Future method of a promise or a
	// packaged task. Only one consumer handle is ever minted per producer.
	ErrFutureAlreadyRetrieved = errors.New("futures: future already retrieved")
)

// PanicError records a panic recovered from a user task. The panic does not take down the worker
// that ran the task; it travels with the future like any other task error.
type PanicError struct {
	// The value passed to panic
	Value interface{}
}

// PanicError implements error.
var _ error = (*PanicError)(nil)

// Error implements error.
func (e *PanicError) Error() string {
	return fmt.Sprintf("futures: task panicked: %v", e.Value)
}
