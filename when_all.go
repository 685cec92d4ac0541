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
	"time"

	"github.com/botobag/futures/executor"
)

// Polling bounds for inputs that carry no continuation list: timed waits start at pollInitial and
// double up to pollCeiling, with the poller re-entering the executor between rounds so it never
// monopolizes a worker.
const (
	pollInitial = time.Millisecond
	pollCeiling = 100 * time.Millisecond
)

// WhenAll returns the conjunction of the inputs: a future that completes when every input has,
// collecting one Result per input in input order. The conjunction completes successfully even
// when inputs fail; each input's error is embedded in its Result and surfaces when that Result is
// accessed.
//
// The input handles are consumed. The aggregate is lazy with respect to deferred inputs: a
// deferred input's task does not run until the aggregate itself is waited on. Inputs that carry a
// continuation list complete the aggregate without occupying a goroutine. WhenAll has no
// executor, so each other input gets one blocking wait on the goroutine driving the aggregate;
// WhenAllOn watches such inputs with bounded exponential-backoff polling instead. The strategy is
// chosen per input, so mixed input sets are fine.
//
// WhenAll with no inputs is immediately ready with an empty collection.
func WhenAll[T any](fs ...*Future[T]) *Future[[]Result[T]] {
	return WhenAllOn(nil, fs...)
}

// WhenAllOn is WhenAll with an explicit executor for the aggregate's bookkeeping (the launch of
// deferred inputs and the polling of continuation-less ones). A nil ex runs bookkeeping inline on
// the goroutine that first waits on the aggregate, and pollers fall back to blocking waits.
func WhenAllOn[T any](ex executor.Executor, fs ...*Future[T]) *Future[[]Result[T]] {
	n := len(fs)
	if n == 0 {
		return Ready([]Result[T]{})
	}

	// Take over the input handles.
	preds := make([]*state[T], n)
	for i, f := range fs {
		if f != nil {
			preds[i] = f.state
			f.state = nil
		}
	}

	// The aggregate launches its bookkeeping on first wait so deferred inputs stay cold until a
	// consumer actually blocks. Its continuation list uses the eager regime: completion can come
	// from any input's thread.
	agg := newState[[]Result[T]](true, stateOptions{continuable: true, executor: ex})

	results := make([]Result[T], n)
	remaining := int32(n)

	agg.task = func() {
		for i := range preds {
			i := i
			ps := preds[i]

			recordDone := func() {
				if ps == nil {
					results[i] = ErrResult[T](ErrPromiseUninitialized)
				} else {
					value, err := ps.get()
					results[i] = Result[T]{value: value, err: err}
				}
				if atomic.AddInt32(&remaining, -1) == 0 {
					_ = agg.setValue(results)
				}
			}

			switch {
			case ps == nil:
				recordDone()
			case ps.alwaysDeferred || ps.loadStatus() == StatusDeferred:
				// Deferred inputs run where the aggregate is being driven: launch and collect
				// right here.
				recordDone()
			case ps.continuations.Valid():
				// recordDone's get returns immediately inside a continuation since the input is
				// ready by the time its list fires.
				ps.continuations.Push(nil, recordDone)
			default:
				watchByPolling(ex, ps, recordDone)
			}
		}
	}

	return &Future[[]Result[T]]{state: agg}
}

// watchByPolling waits for ps with timed waits under exponential backoff, re-entering ex between
// rounds. With no executor to re-enter it degrades to one blocking wait on the calling goroutine,
// the inline last resort.
func watchByPolling[T any](ex executor.Executor, ps *state[T], done func()) {
	if ex == nil {
		ps.wait()
		done()
		return
	}

	delay := pollInitial
	var round func()
	round = func() {
		if ps.waitDeadline(time.Now().Add(delay)) == WaitReady {
			done()
			return
		}
		if delay < pollCeiling {
			delay *= 2
			if delay > pollCeiling {
				delay = pollCeiling
			}
		}
		if err := executor.Execute(ex, round); err != nil {
			// The executor is gone; finish with a plain blocking wait.
			ps.wait()
			done()
		}
	}
	if err := executor.Execute(ex, round); err != nil {
		ps.wait()
		done()
	}
}
