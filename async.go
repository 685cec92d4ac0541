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

// Void is the value type of futures for tasks that produce no value.
type Void = struct{}

// submitEager posts an eager task, completing the state with the submission error if the
// executor refuses it.
func submitEager[T any](s *state[T], ex executor.Executor, task func()) {
	if err := executor.Execute(ex, task); err != nil {
		_ = s.setError(err)
	}
}

//===----------------------------------------------------------------------------------------====//
// Async: eager launchers
//===----------------------------------------------------------------------------------------====//

// Async submits fn to the default executor and returns the future of its outcome. The returned
// future is continuable: Then attaches successors without occupying a goroutine.
func Async[T any](fn func() (T, error)) *Future[T] {
	return AsyncOn(DefaultExecutor(), fn)
}

// AsyncOn submits fn to ex and returns the future of its outcome. The executor is borrowed: the
// library never shuts it down, and continuations of the returned future default to it.
func AsyncOn[T any](ex executor.Executor, fn func() (T, error)) *Future[T] {
	s := newState[T](false, stateOptions{continuable: true, executor: ex})
	submitEager(s, ex, func() { s.apply(fn) })
	return &Future[T]{state: s}
}

// AsyncStoppable is like Async for a task that observes cooperative cancellation: fn receives a
// StopToken connected to the future's stop source as its first argument.
func AsyncStoppable[T any](fn func(StopToken) (T, error)) *Future[T] {
	return AsyncStoppableOn(DefaultExecutor(), fn)
}

// AsyncStoppableOn is like AsyncOn for a stop-observing task.
func AsyncStoppableOn[T any](ex executor.Executor, fn func(StopToken) (T, error)) *Future[T] {
	s := newState[T](false, stateOptions{continuable: true, stoppable: true, executor: ex})
	token := s.stop.Token()
	submitEager(s, ex, func() {
		s.apply(func() (T, error) { return fn(token) })
	})
	return &Future[T]{state: s}
}

// AsyncVoid is Async for tasks that produce no value.
func AsyncVoid(fn func() error) *Future[Void] {
	return Async(voidTask(fn))
}

// AsyncVoidOn is AsyncOn for tasks that produce no value.
func AsyncVoidOn(ex executor.Executor, fn func() error) *Future[Void] {
	return AsyncOn(ex, voidTask(fn))
}

//===----------------------------------------------------------------------------------------====//
// Schedule: deferred launchers
//===----------------------------------------------------------------------------------------====//

// Schedule captures fn in a deferred future: nothing runs until a consumer first waits on the
// future (or on a future derived from it via Then), at which point fn runs inline on the waiting
// goroutine.
func Schedule[T any](fn func() (T, error)) *Future[T] {
	return scheduleOn(nil, fn)
}

// ScheduleOn is like Schedule but posts fn to ex when the future is first waited on. ex must not
// be nil; use Schedule for the run-inline behavior.
func ScheduleOn[T any](ex executor.Executor, fn func() (T, error)) *Future[T] {
	return scheduleOn(ex, fn)
}

// ScheduleStoppable is Schedule for a stop-observing task.
func ScheduleStoppable[T any](fn func(StopToken) (T, error)) *Future[T] {
	return scheduleStoppableOn(nil, fn)
}

// ScheduleStoppableOn is ScheduleOn for a stop-observing task.
func ScheduleStoppableOn[T any](ex executor.Executor, fn func(StopToken) (T, error)) *Future[T] {
	return scheduleStoppableOn(ex, fn)
}

// ScheduleVoid is Schedule for tasks that produce no value.
func ScheduleVoid(fn func() error) *Future[Void] {
	return Schedule(voidTask(fn))
}

// ScheduleVoidOn is ScheduleOn for tasks that produce no value.
func ScheduleVoidOn(ex executor.Executor, fn func() error) *Future[Void] {
	return ScheduleOn(ex, voidTask(fn))
}

func scheduleOn[T any](ex executor.Executor, fn func() (T, error)) *Future[T] {
	s := newState[T](true, stateOptions{
		continuable:    true,
		alwaysDeferred: true,
		executor:       ex,
	})
	s.task = func() { s.apply(fn) }
	return &Future[T]{state: s}
}

func scheduleStoppableOn[T any](ex executor.Executor, fn func(StopToken) (T, error)) *Future[T] {
	s := newState[T](true, stateOptions{
		continuable:    true,
		stoppable:      true,
		alwaysDeferred: true,
		executor:       ex,
	})
	token := s.stop.Token()
	s.task = func() {
		s.apply(func() (T, error) { return fn(token) })
	}
	return &Future[T]{state: s}
}

func voidTask(fn func() error) func() (Void, error) {
	return func() (Void, error) {
		return Void{}, fn()
	}
}
