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
	"runtime"
	"sync"
	"time"

	"github.com/botobag/futures/executor"
)

var (
	// Guards defaultExecutorValue.
	defaultExecutorMutex sync.Mutex

	// The process-wide executor used by Async and friends when no executor is supplied. Created
	// lazily so programs that always pass their own executor never spin up the pool.
	defaultExecutorValue executor.Executor
)

// DefaultExecutor returns the process-wide executor used by launchers when none is given. The
// first call creates a worker pool of runtime.GOMAXPROCS workers. Workers are started as tasks
// arrive, up to that count, and are kept once started.
func DefaultExecutor() executor.Executor {
	defaultExecutorMutex.Lock()
	ex := defaultExecutorValue
	if ex == nil {
		pool, err := executor.NewWorkerPool(executor.WorkerPoolConfig{
			// The pool starts a worker per task only below MinPoolSize and queues otherwise, so
			// MinPoolSize is what lets tasks run in parallel.
			MinPoolSize:   uint32(runtime.GOMAXPROCS(-1)),
			MaxPoolSize:   uint32(runtime.GOMAXPROCS(-1)),
			KeepAliveTime: time.Second,
		})
		if err != nil {
			// The config above always validates; reaching here means GOMAXPROCS misbehaved.
			panic(err)
		}
		ex = pool
		defaultExecutorValue = ex
	}
	defaultExecutorMutex.Unlock()
	return ex
}

// SetDefaultExecutor replaces the process-wide default executor. Passing nil resets it so the
// next DefaultExecutor call creates a fresh pool. The previous executor is returned; shutting it
// down, if desired, is up to the caller, since futures launched on it may still be running.
func SetDefaultExecutor(ex executor.Executor) executor.Executor {
	defaultExecutorMutex.Lock()
	previous := defaultExecutorValue
	defaultExecutorValue = ex
	defaultExecutorMutex.Unlock()
	return previous
}
