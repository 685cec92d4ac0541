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

// Package executor provides the execution contract consumed by the futures package along with two
// bundled implementations: a worker pool backed by goroutines and an inline executor that runs
// tasks synchronously on the submitting goroutine.
//
// Executors only arrange tasks for execution. They neither produce results nor report task
// failures; an asynchronous operation communicates its outcome through the operation state behind
// a future (see the futures package).
package executor

import "errors"

// Task represents an instance that can be executed by an Executor. Tasks carry no return value.
// Asynchronous results are delivered through futures which complete their operation state from
// within Run.
type Task interface {
	// Run performs actions to complete a Task.
	Run()
}

// The TaskFunc type is an adapter to allow the use of ordinary functions as a Task.
type TaskFunc func()

// TaskFunc implements Task.
var _ Task = (TaskFunc)(nil)

// Run implements Task. It calls f().
func (f TaskFunc) Run() {
	f()
}

// ErrShutdown indicates a task was rejected because the executor is shutting down or has shut
// down.
var ErrShutdown = errors.New("executor: shutting down")

// Executor provides interfaces to manage and to execute tasks.
type Executor interface {
	// Submit submits a task for execution. The method only arranges task for execution. The actual
	// execution may occur sometime later. It returns ErrShutdown (or an implementation-specific
	// error) if the task cannot be arranged.
	Submit(task Task) error

	// Shutdown shuts down the executor. Previously submitted tasks are executed but no new tasks
	// will be accepted. It is a no-op if the executor has already shut down. It returns a channel
	// which will receive a notification from the Executor when all remaining tasks have completed
	// after shutdown request.
	Shutdown() (terminated <-chan bool, err error)
}

// Execute submits a nullary function to ex for execution. It is the form in which the futures
// package talks to executors.
func Execute(ex Executor, fn func()) error {
	return ex.Submit(TaskFunc(fn))
}
