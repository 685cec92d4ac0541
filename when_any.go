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

// AnyResult is the outcome of a disjunction: the index of the first input that completed
// (successfully or with an error) and the handles of all inputs. The winner is ready; the others
// may still be pending and can be waited on or discarded through their handles.
type AnyResult[T any] struct {
	// Index of the input that completed first.
	Index int

	// The input futures, in the order they were given.
	Futures []*Future[T]
}

// WhenAny returns the disjunction of the inputs: a future that completes as soon as any input
// does. The first completion wins, error or not; which input wins when several race to ready is
// unspecified.
//
// The input handles are consumed and handed back through the AnyResult. Inputs that carry a
// continuation list signal the winner without occupying a goroutine; other inputs are watched by
// a waiter that registers a shared condition variable with each of them and scans on wakeup. The
// two paths coexist for mixed input sets; a winner compare-and-swap keeps completion unique.
//
// Like WhenAll, the aggregate is lazy: nothing is armed (and no deferred input runs) until the
// aggregate is waited on.
//
// WhenAny with no inputs is immediately ready with Index -1 and no futures.
func WhenAny[T any](fs ...*Future[T]) *Future[AnyResult[T]] {
	return WhenAnyOn(nil, fs...)
}

// WhenAnyOn is WhenAny with an explicit executor for the aggregate's bookkeeping. A nil ex runs
// the fallback waiter, if one is needed, inline on the goroutine that first waits on the
// aggregate.
func WhenAnyOn[T any](ex executor.Executor, fs ...*Future[T]) *Future[AnyResult[T]] {
	n := len(fs)
	if n == 0 {
		return Ready(AnyResult[T]{Index: -1})
	}

	// Take over the input handles. They are handed back through the AnyResult untouched: the
	// disjunction itself never reads outcomes.
	futures := make([]*Future[T], n)
	for i, f := range fs {
		futures[i] = &Future[T]{}
		if f != nil {
			futures[i].state = f.state
			f.state = nil
		}
	}

	agg := newState[AnyResult[T]](true, stateOptions{continuable: true, executor: ex})

	agg.task = func() {
		winner := int32(-1)

		// The shared condition variable serves the fallback waiter; continuation winners poke it
		// too so a blocked waiter notices that the race is over.
		var waiterMutex sync.Mutex
		cv := sync.NewCond(&waiterMutex)

		win := func(i int) {
			if atomic.CompareAndSwapInt32(&winner, -1, int32(i)) {
				_ = agg.setValue(AnyResult[T]{Index: i, Futures: futures})
				// Broadcast under the waiter's mutex: a waiter between its winner check and
				// cv.Wait holds the mutex, so the broadcast cannot slip into that window and be
				// lost.
				waiterMutex.Lock()
				cv.Broadcast()
				waiterMutex.Unlock()
			}
		}

		// Indexes of inputs the continuation path cannot cover.
		var fallback []int

		for i := range futures {
			ps := futures[i].state
			switch {
			case ps == nil:
				// An invalid input "completed" before the race began; accessing it reports
				// ErrPromiseUninitialized.
				win(i)
			case !ps.alwaysDeferred && ps.loadStatus() != StatusDeferred && ps.continuations.Valid():
				i := i
				ps.continuations.Push(nil, func() { win(i) })
			default:
				fallback = append(fallback, i)
			}
		}

		if len(fallback) == 0 || atomic.LoadInt32(&winner) != -1 {
			return
		}

		waiter := func() {
			// Register the shared condition variable with every fallback input. Registration
			// launches deferred inputs.
			handles := make(map[int]notifyHandle, len(fallback))
			for _, i := range fallback {
				handles[i] = futures[i].state.notifyWhenReady(cv)
			}

			waiterMutex.Lock()
			for atomic.LoadInt32(&winner) == -1 {
				found := -1
				for _, i := range fallback {
					if futures[i].state.isReady() {
						found = i
						break
					}
				}
				if found >= 0 {
					waiterMutex.Unlock()
					win(found)
					waiterMutex.Lock()
					break
				}
				cv.Wait()
			}
			waiterMutex.Unlock()

			for i, handle := range handles {
				futures[i].state.unnotifyWhenReady(handle)
			}
		}

		if ex != nil {
			runVia(ex, waiter)
		} else {
			waiter()
		}
	}

	return &Future[AnyResult[T]]{state: agg}
}
