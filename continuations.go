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

	"github.com/botobag/futures/executor"
)

//===----------------------------------------------------------------------------------------====//
// continuationsState
//===----------------------------------------------------------------------------------------====//

// continuationNode is a node in the lock-free stack of pending continuations.
type continuationNode struct {
	fn   func()
	next *continuationNode
}

// continuationsState is a small thread-safe container that holds continuation callbacks for an
// operation state. The whole logic is very similar to that of stop states: there is a state, a
// source held by the operation, and tokens handed to whoever attaches continuations.
//
// "fired" is a one-way latch. Callbacks recorded before the latch flips run exactly once when
// RequestRun drains the container; callbacks pushed after the flip run exactly once via the
// executor given to Push.
//
// Two storage regimes exist:
//
//   - Eager operations may race completion against concurrent Push calls from other goroutines.
//     Callbacks go into a lock-free stack (head CAS); RequestRun flips the latch with a CAS,
//     drains the stack without the mutex, then takes the mutex and drains once more to pick up
//     whatever was queued during the window. Push checks the latch under the mutex, so a push
//     that saw the latch unset either lands before the post-latch drain acquires the mutex (and
//     is drained) or observes the latch and forwards to its executor.
//
//   - Always-deferred operations are driven by a single goroutine at a time, so a plain slice and
//     a plain bool suffice; no atomics on this path.
type continuationsState struct {
	alwaysDeferred bool

	// Eager regime: lock-free stack, atomic latch, and the mutex closing the drain window.
	head  atomic.Pointer[continuationNode]
	fired atomic.Bool
	mutex sync.Mutex

	// Always-deferred regime.
	list       []func()
	firedPlain bool
}

// runVia runs fn through ex, or inline when ex is nil or rejects the task. A continuation is
// never dropped.
func runVia(ex executor.Executor, fn func()) {
	if ex == nil {
		fn()
		return
	}
	if err := executor.Execute(ex, fn); err != nil {
		fn()
	}
}

// IsRunRequested reports whether the latch has flipped.
func (cs *continuationsState) IsRunRequested() bool {
	if cs.alwaysDeferred {
		return cs.firedPlain
	}
	return cs.fired.Load()
}

// Push records fn to run when the operation completes and returns true. If the latch has already
// flipped, fn is submitted to ex (inline when ex is nil) and Push returns false.
func (cs *continuationsState) Push(ex executor.Executor, fn func()) bool {
	if cs.alwaysDeferred {
		if !cs.firedPlain {
			cs.list = append(cs.list, fn)
			return true
		}
		runVia(ex, fn)
		return false
	}

	cs.mutex.Lock()
	if !cs.fired.Load() {
		node := &continuationNode{fn: fn}
		for {
			head := cs.head.Load()
			node.next = head
			if cs.head.CompareAndSwap(head, node) {
				break
			}
		}
		cs.mutex.Unlock()
		return true
	}
	cs.mutex.Unlock()

	runVia(ex, fn)
	return false
}

// RequestRun flips the latch and drains every recorded callback. At most one call ever returns
// true.
func (cs *continuationsState) RequestRun() bool {
	if cs.alwaysDeferred {
		if cs.firedPlain {
			return false
		}
		cs.firedPlain = true
		list := cs.list
		cs.list = nil
		for _, fn := range list {
			fn()
		}
		return true
	}

	if !cs.fired.CompareAndSwap(false, true) {
		return false
	}

	// Pop and run what we can without the mutex.
	cs.drain()

	// Maybe some other goroutine was pushing a callback while we were draining. Take the mutex
	// to make sure we wait for that push to finish, then drain whatever is left.
	cs.mutex.Lock()
	cs.drain()
	cs.mutex.Unlock()

	return true
}

// drain detaches the stack and runs the callbacks in attach order, repeating until the stack
// stays empty.
func (cs *continuationsState) drain() {
	for {
		head := cs.head.Swap(nil)
		if head == nil {
			return
		}

		// The stack pops newest-first; reverse to run callbacks in the order they were attached.
		var prev *continuationNode
		for node := head; node != nil; {
			next := node.next
			node.next = prev
			prev = node
			node = next
		}
		for node := prev; node != nil; node = node.next {
			node.fn()
		}
	}
}

//===----------------------------------------------------------------------------------------====//
// continuationsSource
//===----------------------------------------------------------------------------------------====//

// continuationsSource provides the means to issue a request to run the continuations of an
// operation state. The zero value has no associated state; its operations are no-ops.
type continuationsSource struct {
	state *continuationsState
}

// newContinuationsSource creates a source with a fresh continuations state in the given regime.
func newContinuationsSource(alwaysDeferred bool) continuationsSource {
	return continuationsSource{state: &continuationsState{alwaysDeferred: alwaysDeferred}}
}

// Valid reports whether the source has an associated state.
func (s continuationsSource) Valid() bool {
	return s.state != nil
}

// Push forwards to continuationsState.Push. Without an associated state it returns false without
// running fn.
func (s continuationsSource) Push(ex executor.Executor, fn func()) bool {
	if s.state == nil {
		return false
	}
	return s.state.Push(ex, fn)
}

// RequestRun forwards to continuationsState.RequestRun.
func (s continuationsSource) RequestRun() bool {
	if s.state == nil {
		return false
	}
	return s.state.RequestRun()
}

// RunRequested reports whether the associated state has fired.
func (s continuationsSource) RunRequested() bool {
	return s.state != nil && s.state.IsRunRequested()
}

// Token returns a continuationsToken observing the same state.
func (s continuationsSource) Token() continuationsToken {
	return continuationsToken{state: s.state}
}

// continuationsToken observes a continuations state.
type continuationsToken struct {
	state *continuationsState
}

// RunRequested reports whether the associated state has fired.
func (t continuationsToken) RunRequested() bool {
	return t.state != nil && t.state.IsRunRequested()
}

// RunPossible reports whether the token has an associated state that has not fired yet.
func (t continuationsToken) RunPossible() bool {
	return t.state != nil && !t.state.IsRunRequested()
}
