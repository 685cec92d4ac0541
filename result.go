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

// Result holds the outcome of one completed operation: a value or an error. WhenAll collects one
// Result per input so the conjunction can complete successfully even when some of its inputs
// failed; each input's error surfaces only when its Result is accessed.
type Result[T any] struct {
	value T
	err   error
}

// ValueResult creates a Result carrying a value.
func ValueResult[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// ErrResult creates a Result carrying an error.
func ErrResult[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// Get returns the value or the error stored in the result.
func (r Result[T]) Get() (T, error) {
	return r.value, r.err
}

// Value returns the stored value. It is the zero value if the operation failed.
func (r Result[T]) Value() T {
	return r.value
}

// Err returns the stored error, if any.
func (r Result[T]) Err() error {
	return r.err
}
