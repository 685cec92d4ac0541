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

// Package futures implements futures and promises over a shared operation state, with eager and
// deferred execution, continuations, cooperative cancellation, and conjunction/disjunction
// combinators.
//
// An operation state is the synchronization object behind every future/promise pair. It carries a
// monotonic status (deferred, launched, waiting, ready), an outcome set at most once (a value or
// an error), the wait machinery, an optional continuation list, and an optional stop source.
// Completion publishes the outcome before the ready status becomes observable, so any goroutine
// that saw IsReady reads the completed value.
//
// # Launching work
//
// Async submits a task right away and hands back its future:
//
//	f := futures.Async(func() (int, error) { return compute(), nil })
//	value, err := f.Get()
//
// Schedule captures the task instead; nothing runs until the future (or a future derived from it
// through Then) is first waited on:
//
//	d := futures.Schedule(func() (int, error) { return compute(), nil })
//	// compute has not run yet
//	value, err := d.Get() // runs here
//
// Both come in executor-selecting (AsyncOn, ScheduleOn) and stop-observing (AsyncStoppable,
// ScheduleStoppable) variants. Executors live in the executor package; when none is given, Async
// uses a lazily created process-wide worker pool.
//
// # Continuations and composition
//
// Then chains computations without blocking a goroutine in between; WhenAll and WhenAny compose
// futures into conjunctions and disjunctions:
//
//	six, seven := futures.Async(six), futures.Async(seven)
//	product := futures.Then(six.And(seven), func(rs []futures.Result[int]) (int, error) {
//		a, _ := rs[0].Get()
//		b, _ := rs[1].Get()
//		return a * b, nil
//	})
//
// Errors ride the future they occurred on: a value continuation is skipped and the error
// propagates, a ThenWith continuation receives the completed future and may recover, WhenAll
// embeds per-input errors in the collected results, and WhenAny reports the first completion,
// error or not.
//
// # Producers
//
// Promise and PackagedTask are the producer handles for code that completes an operation by hand
// or bridges a plain function onto an executor. A producer that goes away without completing
// leaves ErrBrokenPromise behind rather than a consumer blocked forever.
package futures
