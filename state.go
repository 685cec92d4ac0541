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
	"time"

	"github.com/botobag/futures/executor"
)

//===----------------------------------------------------------------------------------------====//
// state
//===----------------------------------------------------------------------------------------====//

// waitable is the handle a deferred continuation keeps to the operation it must wait on before
// its own task may run.
type waitable interface {
	wait()
}

// notifyHandle identifies an external condition variable registered with notifyWhenReady so it
// can later be unregistered. The owner of the condition variable must unregister it before
// discarding it.
type notifyHandle struct {
	cv *sync.Cond
}

// stateOptions selects the optional machinery attached to an operation state. The options are
// plain runtime flags rather than distinct state types; the branches they introduce are perfectly
// predicted next to the cost of executor dispatch.
type stateOptions struct {
	// Attach a continuation list so successors can be scheduled without blocking a goroutine.
	continuable bool

	// Attach a stop source and pass its token to the task.
	stoppable bool

	// The state is driven by one goroutine at a time (schedule and chains built on it); its
	// continuation list may use the plain storage regime.
	alwaysDeferred bool

	// Executor that continuations default to, and that a deferred task is posted to on launch.
	// May be nil, in which case work runs inline on the launching goroutine.
	executor executor.Executor
}

// state is the operation state: the object shared by a future/promise pair. It carries the
// status machine, the outcome, the wait machinery, the continuation list and the stop source, and
// for deferred operations the delayed task itself.
//
// Completion synchronizes through mutex; observers use acquire loads on status so a goroutine
// that saw StatusReady also sees the outcome written before the release store.
type state[T any] struct {
	// Mutex for goroutines that want to wait on the result and for all status transitions.
	mutex sync.Mutex

	// The current status; release-stored by completion, acquire-loaded everywhere.
	status atomic.Uint32

	// The outcome. Written exactly once, before status becomes StatusReady. value stays the zero
	// value until set, so types without a meaningful default still work.
	value T
	err   error

	// Closed when the state becomes ready. This is the internal wait primitive: unlike a
	// condition variable it composes with timers, which wait deadlines need.
	ready chan struct{}

	// External condition variables to notify when this state is ready, registered by
	// disjunction-style waiters (WaitForAny, WhenAny). Guarded by mutex.
	externalWaiters []*sync.Cond

	// Continuation list; the zero source (no state) when the continuable option is off.
	continuations continuationsSource

	// Stop source; the zero source when the stoppable option is off.
	stop StopSource

	// Executor borrowed from the launcher; never shut down by the state. May be nil.
	executor executor.Executor

	// The delayed task of a deferred state; nil for eager states and after launch. Guarded by
	// mutex.
	task func()

	// The predecessor a deferred continuation waits on before posting task. Guarded by mutex.
	parent waitable

	// See stateOptions.alwaysDeferred.
	alwaysDeferred bool
}

// newState creates an operation state. Eager states are born StatusLaunched; deferred states are
// born StatusDeferred and expect task (and possibly parent) to be filled in before the state is
// shared.
func newState[T any](deferred bool, opts stateOptions) *state[T] {
	s := &state[T]{
		ready:          make(chan struct{}),
		executor:       opts.executor,
		alwaysDeferred: opts.alwaysDeferred,
	}
	if deferred {
		s.status.Store(uint32(StatusDeferred))
	} else {
		s.status.Store(uint32(StatusLaunched))
	}
	if opts.continuable {
		s.continuations = newContinuationsSource(opts.alwaysDeferred)
	}
	if opts.stoppable {
		s.stop = NewStopSource()
	}
	return s
}

//===----------------------------------------------------------------------------------------====//
// Observers
//===----------------------------------------------------------------------------------------====//

func (s *state[T]) loadStatus() Status {
	return Status(s.status.Load())
}

func (s *state[T]) isReady() bool {
	return s.loadStatus() == StatusReady
}

func (s *state[T]) isDeferred() bool {
	return s.loadStatus() == StatusDeferred
}

// succeeded reports ready with a value.
func (s *state[T]) succeeded() bool {
	return s.isReady() && s.err == nil
}

// failed reports ready with an error.
func (s *state[T]) failed() bool {
	return s.isReady() && s.err != nil
}

// errNow returns the stored error without waiting. Accessing the error of a state that is not
// ready reports ErrPromiseUninitialized.
func (s *state[T]) errNow() error {
	s.mutex.Lock()
	if !s.isReady() {
		s.mutex.Unlock()
		return ErrPromiseUninitialized
	}
	err := s.err
	s.mutex.Unlock()
	return err
}

//===----------------------------------------------------------------------------------------====//
// Completion
//===----------------------------------------------------------------------------------------====//

// markReadyLocked publishes the outcome: status flips to StatusReady with release semantics, the
// ready channel closes to wake internal waiters, and every registered external condition variable
// is broadcast. The caller holds mutex and has written value or err.
//
// Each broadcast happens under the condition variable's own lock: an external waiter holds that
// lock between its readiness scan and its Wait, so the broadcast cannot land in that window and
// be lost. External waiters must not hold their lock while registering or unregistering (both
// take this state's mutex), or the lock orders would cross.
func (s *state[T]) markReadyLocked() {
	s.status.Store(uint32(StatusReady))
	close(s.ready)
	for _, cv := range s.externalWaiters {
		cv.L.Lock()
		cv.Broadcast()
		cv.L.Unlock()
	}
}

// setValue completes the state with a value and fans out continuations. A state completes at most
// once; later attempts report ErrPromiseAlreadySatisfied.
func (s *state[T]) setValue(value T) error {
	s.mutex.Lock()
	if s.isReady() {
		s.mutex.Unlock()
		return ErrPromiseAlreadySatisfied
	}
	s.value = value
	s.markReadyLocked()
	s.mutex.Unlock()

	// Continuations run outside the waiter mutex so a Get inside a continuation (or a reentrant
	// completion) cannot deadlock, and so they observe a ready state.
	s.continuations.RequestRun()
	return nil
}

// setError completes the state with an error and fans out continuations.
func (s *state[T]) setError(err error) error {
	s.mutex.Lock()
	if s.isReady() {
		s.mutex.Unlock()
		return ErrPromiseAlreadySatisfied
	}
	s.err = err
	s.markReadyLocked()
	s.mutex.Unlock()

	s.continuations.RequestRun()
	return nil
}

// apply invokes fn and completes the state with its outcome. A panic in fn is recovered and
// recorded as a *PanicError so it travels with the future instead of tearing down the worker.
func (s *state[T]) apply(fn func() (T, error)) {
	completed := false
	defer func() {
		if !completed {
			s.setError(&PanicError{Value: recover()})
		}
	}()

	value, err := fn()
	completed = true
	if err != nil {
		s.setError(err)
	} else {
		s.setValue(value)
	}
}

//===----------------------------------------------------------------------------------------====//
// Waiting
//===----------------------------------------------------------------------------------------====//

// wait blocks until the state is ready. The first wait on a deferred state launches its task.
func (s *state[T]) wait() {
	s.waitDeadline(time.Time{})
}

// get waits for the state to become ready and returns its outcome.
func (s *state[T]) get() (T, error) {
	s.wait()
	if s.err != nil {
		var zero T
		return zero, s.err
	}
	return s.value, nil
}

// waitDeadline implements wait, waitFor and waitUntil. A zero deadline waits indefinitely.
func (s *state[T]) waitDeadline(deadline time.Time) WaitStatus {
	if s.isReady() {
		// Ready states return without touching the mutex.
		return WaitReady
	}

	s.mutex.Lock()
	switch s.loadStatus() {
	case StatusReady:
		s.mutex.Unlock()
		return WaitReady
	case StatusDeferred:
		s.launchLocked()
		if s.loadStatus() == StatusReady {
			s.mutex.Unlock()
			return WaitReady
		}
	}
	s.status.Store(uint32(StatusWaiting))
	ready := s.ready
	s.mutex.Unlock()

	if deadline.IsZero() {
		<-ready
		return WaitReady
	}

	timer := time.NewTimer(time.Until(deadline))
	select {
	case <-ready:
		timer.Stop()
		return WaitReady
	case <-timer.C:
		s.mutex.Lock()
		if s.isReady() {
			s.mutex.Unlock()
			return WaitReady
		}
		// A timed-out wait leaves the state as it was: launched, not waited on.
		s.status.Store(uint32(StatusLaunched))
		s.mutex.Unlock()
		return WaitTimeout
	}
}

// waitDeadlineObserve is the non-launching variant used by shared (observing) handles: a deferred
// state is reported as WaitDeferred instead of being launched.
func (s *state[T]) waitDeadlineObserve(deadline time.Time) WaitStatus {
	if s.isDeferred() {
		return WaitDeferred
	}
	return s.waitDeadline(deadline)
}

// launchLocked transitions StatusDeferred to StatusLaunched and posts the stored task: to the
// state's executor when it has one, inline on the calling goroutine otherwise. A deferred
// continuation first waits on its parent. The mutex is held on entry and on return but released
// around blocking work.
func (s *state[T]) launchLocked() {
	if parent := s.parent; parent != nil {
		s.mutex.Unlock()
		parent.wait()
		s.mutex.Lock()
		if s.loadStatus() != StatusDeferred {
			// Someone else launched the state while the mutex was released.
			return
		}
	}

	s.status.Store(uint32(StatusLaunched))
	task := s.task
	s.task = nil
	if task == nil {
		return
	}

	s.mutex.Unlock()
	if s.executor != nil {
		if err := executor.Execute(s.executor, task); err != nil {
			// The executor rejected the task; run it on the waiting goroutine.
			task()
		}
	} else {
		task()
	}
	s.mutex.Lock()
}

//===----------------------------------------------------------------------------------------====//
// External notification
//===----------------------------------------------------------------------------------------====//

// notifyWhenReady registers an external condition variable to broadcast when this state becomes
// ready. Registration counts as a wait: a deferred task is launched, and a not-yet-ready state
// moves to StatusWaiting. The caller must check readiness after registering; a state that was
// already ready will not broadcast again.
func (s *state[T]) notifyWhenReady(cv *sync.Cond) notifyHandle {
	s.mutex.Lock()
	if s.loadStatus() == StatusDeferred {
		s.launchLocked()
	}
	if s.loadStatus() != StatusReady {
		s.status.Store(uint32(StatusWaiting))
	}
	s.externalWaiters = append(s.externalWaiters, cv)
	s.mutex.Unlock()
	return notifyHandle{cv: cv}
}

// unnotifyWhenReady removes a condition variable registered with notifyWhenReady.
func (s *state[T]) unnotifyWhenReady(handle notifyHandle) {
	s.mutex.Lock()
	waiters := s.externalWaiters
	for i, cv := range waiters {
		if cv == handle.cv {
			s.externalWaiters = append(waiters[:i], waiters[i+1:]...)
			break
		}
	}
	s.mutex.Unlock()
}
