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

// Status describes where an operation state is in its lifecycle. Transitions are monotonic:
//
//	StatusDeferred --> StatusLaunched --> StatusWaiting --> StatusReady
//
// with StatusWaiting optional (it records that some goroutine blocks on the state; a timed wait
// that gives up moves the state back to StatusLaunched). StatusReady is terminal.
type Status uint8

const (
	// Nothing happened yet; the task is stored but has not been posted.
	StatusDeferred Status = iota

	// The task has been launched.
	StatusLaunched

	// Some goroutine is waiting for the result.
	StatusWaiting

	// The outcome has been set and everyone was notified.
	StatusReady
)

// String implements fmt.Stringer to pretty-print Status.
func (s Status) String() string {
	switch s {
	case StatusDeferred:
		return "deferred"
	case StatusLaunched:
		return "launched"
	case StatusWaiting:
		return "waiting"
	case StatusReady:
		return "ready"
	}
	return "unknown"
}

// WaitStatus is the result of a bounded wait.
type WaitStatus int

const (
	// The state became ready before the deadline.
	WaitReady WaitStatus = iota

	// The deadline passed; the state is left untouched (back in StatusLaunched).
	WaitTimeout

	// The state is deferred and the waiting handle may not launch it (shared, observing access).
	WaitDeferred
)

// String implements fmt.Stringer to pretty-print WaitStatus.
func (s WaitStatus) String() string {
	switch s {
	case WaitReady:
		return "ready"
	case WaitTimeout:
		return "timeout"
	case WaitDeferred:
		return "deferred"
	}
	return "unknown"
}
