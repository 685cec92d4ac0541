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
	"sync"
	"sync/atomic"
)

//===----------------------------------------------------------------------------------------====//
// stopState
//===----------------------------------------------------------------------------------------====//

// stopState is the flag shared by a StopSource and every StopToken minted from it. The flag can
// only transition from "not requested" to "requested", exactly once.
type stopState struct {
	// Fast-path flag for StopRequested; the transition itself happens under mutex.
	flag atomic.Bool

	// Guards done and the close of done.
	mutex sync.Mutex

	// Lazily created channel closed on the first stop request; see StopToken.Done.
	done chan struct{}

	// Stop source of the predecessor operation, when this source belongs to a continuation. A
	// stop request propagates upstream so cancelling a successor also cancels the chain that
	// feeds it.
	upstream *stopState
}

// request flips the flag. It returns true only for the call that performed the transition.
func (st *stopState) request() bool {
	st.mutex.Lock()
	if st.flag.Load() {
		st.mutex.Unlock()
		return false
	}
	st.flag.Store(true)
	if st.done != nil {
		close(st.done)
	}
	st.mutex.Unlock()

	if st.upstream != nil {
		st.upstream.request()
	}
	return true
}

// doneChan returns the channel closed on the first stop request, creating it on demand.
func (st *stopState) doneChan() <-chan struct{} {
	st.mutex.Lock()
	if st.done == nil {
		st.done = make(chan struct{})
		if st.flag.Load() {
			close(st.done)
		}
	}
	done := st.done
	st.mutex.Unlock()
	return done
}

//===----------------------------------------------------------------------------------------====//
// StopSource
//===----------------------------------------------------------------------------------------====//

// StopSource provides the means to request a cooperative stop of an asynchronous operation. The
// source side requests; StopToken values minted from the source observe. The library itself never
// preempts a running task; tasks are expected to check their token at convenient points.
type StopSource struct {
	st *stopState
}

// NewStopSource creates a StopSource with a fresh stop state.
func NewStopSource() StopSource {
	return StopSource{st: &stopState{}}
}

// newLinkedStopSource creates a StopSource whose stop requests also propagate to upstream.
func newLinkedStopSource(upstream StopSource) StopSource {
	return StopSource{st: &stopState{upstream: upstream.st}}
}

// RequestStop asks the associated operation to stop. It returns true only on the call that
// performed the transition; later calls (from this source or any copy sharing the state) return
// false. A source with no associated state returns false.
func (s StopSource) RequestStop() bool {
	if s.st == nil {
		return false
	}
	return s.st.request()
}

// StopRequested reports whether a stop has been requested on the shared state.
func (s StopSource) StopRequested() bool {
	return s.st != nil && s.st.flag.Load()
}

// StopPossible reports whether the source has an associated stop state.
func (s StopSource) StopPossible() bool {
	return s.st != nil
}

// Token returns a StopToken observing this source's stop state.
func (s StopSource) Token() StopToken {
	return StopToken{st: s.st}
}

//===----------------------------------------------------------------------------------------====//
// StopToken
//===----------------------------------------------------------------------------------------====//

// neverDone is returned by Done for tokens with no associated state. It is never closed.
var neverDone = make(chan struct{})

// StopToken observes the stop state of a StopSource. All tokens of one source return the same
// answer. The zero StopToken has no associated state and never reports a stop.
type StopToken struct {
	st *stopState
}

// StopRequested reports whether the associated source has requested a stop.
func (t StopToken) StopRequested() bool {
	return t.st != nil && t.st.flag.Load()
}

// StopPossible reports whether the token has an associated stop state.
func (t StopToken) StopPossible() bool {
	return t.st != nil
}

// Done returns a channel closed on the first stop request, suitable for select loops. For a token
// with no associated state the returned channel never becomes ready.
func (t StopToken) Done() <-chan struct{} {
	if t.st == nil {
		return neverDone
	}
	return t.st.doneChan()
}
