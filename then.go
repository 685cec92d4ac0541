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

import "github.com/botobag/futures/executor"

//===----------------------------------------------------------------------------------------====//
// Then
//===----------------------------------------------------------------------------------------====//

// Then attaches a continuation to f: when f completes with a value, fn receives it and the
// returned future completes with fn's outcome. When f completes with an error, fn is not invoked
// and the error propagates to the returned future. Use ThenWith to observe errors.
//
// f is consumed. The continuation runs on f's executor when it has one, inline on the completing
// goroutine otherwise; use ThenOn to pick another executor. Attaching to an already completed
// future schedules the continuation immediately from the attaching goroutine. When f carries no
// continuation list (promise- and packaged-task-backed futures), the continuation is submitted
// right away to the chosen executor, or to DefaultExecutor when there is none, and blocks there
// until f completes.
//
// A continuation on a deferred future is itself deferred: nothing runs until the returned future
// is waited on, which first drives f to completion.
func Then[T, U any](f *Future[T], fn func(T) (U, error)) *Future[U] {
	return ThenOn(nil, f, fn)
}

// ThenOn is Then with an explicit executor for the continuation. A nil ex selects f's executor.
func ThenOn[T, U any](ex executor.Executor, f *Future[T], fn func(T) (U, error)) *Future[U] {
	return thenWithOn(ex, f, func(pred *Future[T]) (U, error) {
		value, err := pred.Get()
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(value)
	})
}

// ThenWith attaches a continuation that receives the completed predecessor handle itself rather
// than its value, so it can observe and recover errors:
//
//	recovered := futures.ThenWith(f, func(pred *futures.Future[int]) (int, error) {
//		if value, err := pred.Get(); err == nil {
//			return value, nil
//		}
//		return fallbackValue, nil
//	})
func ThenWith[T, U any](f *Future[T], fn func(*Future[T]) (U, error)) *Future[U] {
	return thenWithOn(nil, f, fn)
}

// ThenWithOn is ThenWith with an explicit executor for the continuation.
func ThenWithOn[T, U any](ex executor.Executor, f *Future[T], fn func(*Future[T]) (U, error)) *Future[U] {
	return thenWithOn(ex, f, fn)
}

// thenWithOn builds the successor state and wires its task to the predecessor. This is the one
// place that knows the three attachment strategies:
//
//   - deferred predecessor: the successor is a deferred continuation whose launch first waits on
//     the predecessor (preserving laziness through chains), then runs the continuation;
//   - eager continuable predecessor: an entry on the predecessor's continuation list re-enters
//     the chosen executor (or runs inline when there is none); the list takes care of
//     already-completed predecessors by scheduling the entry from the attaching goroutine;
//   - eager predecessor without a continuation list: the continuation body, whose first action
//     is a blocking read of the predecessor, is submitted to the chosen executor right away.
func thenWithOn[T, U any](ex executor.Executor, f *Future[T], cont func(*Future[T]) (U, error)) *Future[U] {
	s := f.state
	if s == nil {
		return Err[U](ErrPromiseUninitialized)
	}

	// Take over the predecessor handle; the continuation owns it from here.
	pred := &Future[T]{state: s}
	f.state = nil

	chosen := ex
	if chosen == nil {
		chosen = s.executor
	}

	if s.alwaysDeferred || s.loadStatus() == StatusDeferred {
		q := newState[U](true, stateOptions{continuable: true, executor: chosen})
		linkStop(q, s.stop)
		q.parent = s
		q.task = func() {
			q.apply(func() (U, error) { return cont(pred) })
		}
		return &Future[U]{state: q}
	}

	q := newState[U](false, stateOptions{continuable: true, executor: chosen})
	linkStop(q, s.stop)

	body := func() {
		q.apply(func() (U, error) { return cont(pred) })
	}

	entry := body
	if chosen != nil {
		entry = func() { runVia(chosen, body) }
	}

	if s.continuations.Valid() {
		// Push runs entry from the attaching goroutine (returning false) when the predecessor
		// already fired its continuations.
		s.continuations.Push(nil, entry)
		return &Future[U]{state: q}
	}

	// No continuation list to hook into (promise- and packaged-task-backed futures). The body
	// blocks on the predecessor before continuing, so give it a goroutine of its own through the
	// chosen executor.
	fallback := chosen
	if fallback == nil {
		fallback = DefaultExecutor()
	}
	runVia(fallback, body)
	return &Future[U]{state: q}
}

// linkStop makes q stoppable when the predecessor was, with stop requests propagating upstream:
// cancelling a continuation cancels the chain feeding it.
func linkStop[U any](q *state[U], upstream StopSource) {
	if upstream.StopPossible() {
		q.stop = newLinkedStopSource(upstream)
	}
}

//===----------------------------------------------------------------------------------------====//
// ThenCompose
//===----------------------------------------------------------------------------------------====//

// ThenCompose attaches a continuation that itself returns a future. The result is unwrapped: the
// returned future completes with the inner future's outcome, not with a future-of-future. Errors
// from f, from fn, and from the inner future all propagate.
func ThenCompose[T, U any](f *Future[T], fn func(T) (*Future[U], error)) *Future[U] {
	return ThenComposeOn(nil, f, fn)
}

// ThenComposeOn is ThenCompose with an explicit executor for the continuation.
func ThenComposeOn[T, U any](ex executor.Executor, f *Future[T], fn func(T) (*Future[U], error)) *Future[U] {
	nested := thenWithOn(ex, f, func(pred *Future[T]) (*Future[U], error) {
		value, err := pred.Get()
		if err != nil {
			return nil, err
		}
		return fn(value)
	})
	return flattenOn(ex, nested)
}

// flattenOn collapses a future-of-future into a future of the inner value. The outer future was
// produced by thenWithOn and is therefore continuable; the shape of the flattening follows the
// outer future's state:
//
//   - deferred outer: the result is a deferred continuation that, once launched, drives the
//     outer future and then the inner one on the waiting goroutine;
//   - eager outer: a continuation on the outer future adopts the inner outcome, through the
//     inner future's continuation list when it has one.
func flattenOn[U any](ex executor.Executor, nested *Future[*Future[U]]) *Future[U] {
	ns := nested.state
	if ns == nil {
		return Err[U](ErrPromiseUninitialized)
	}
	outer := &Future[*Future[U]]{state: ns}
	nested.state = nil

	chosen := ex
	if chosen == nil {
		chosen = ns.executor
	}

	unwrap := func() (*state[U], error) {
		inner, err := outer.Get()
		if err != nil {
			return nil, err
		}
		if inner == nil || inner.state == nil {
			return nil, ErrPromiseUninitialized
		}
		is := inner.state
		inner.state = nil
		return is, nil
	}

	if ns.alwaysDeferred || ns.loadStatus() == StatusDeferred {
		q := newState[U](true, stateOptions{continuable: true, executor: chosen})
		linkStop(q, ns.stop)
		q.parent = ns
		q.task = func() {
			q.apply(func() (U, error) {
				is, err := unwrap()
				if err != nil {
					var zero U
					return zero, err
				}
				return is.get()
			})
		}
		return &Future[U]{state: q}
	}

	q := newState[U](false, stateOptions{continuable: true, executor: chosen})
	linkStop(q, ns.stop)

	adopt := func(is *state[U]) {
		value, err := is.get()
		if err != nil {
			_ = q.setError(err)
		} else {
			_ = q.setValue(value)
		}
	}

	// Runs when the outer future completes.
	onOuterDone := func() {
		is, err := unwrap()
		if err != nil {
			_ = q.setError(err)
			return
		}
		if !is.alwaysDeferred && is.loadStatus() != StatusDeferred && is.continuations.Valid() {
			is.continuations.Push(nil, func() { adopt(is) })
			return
		}
		// Deferred inner futures are driven here, on the goroutine that ran the continuation;
		// eager ones without a continuation list get a goroutine through the executor since the
		// adoption blocks on them.
		if is.isReady() || is.alwaysDeferred || is.loadStatus() == StatusDeferred {
			adopt(is)
			return
		}
		fallback := chosen
		if fallback == nil {
			fallback = DefaultExecutor()
		}
		runVia(fallback, func() { adopt(is) })
	}

	if ns.continuations.Valid() {
		ns.continuations.Push(nil, onOuterDone)
	} else {
		// Outer futures built by thenWithOn are continuable; this covers ready error futures
		// from invalid handles, where onOuterDone returns immediately.
		fallback := chosen
		if fallback == nil {
			fallback = executor.Inline()
		}
		runVia(fallback, onOuterDone)
	}

	return &Future[U]{state: q}
}
