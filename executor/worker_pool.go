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

package executor

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"
)

//===----------------------------------------------------------------------------------------====//
// WorkerPoolConfig
//===----------------------------------------------------------------------------------------====//

// WorkerPoolConfig contains options to configure a WorkerPool.
type WorkerPoolConfig struct {
	// The maximum number of workers allowed in pool (required, must be greater than 0)
	MaxPoolSize uint32

	// The minimum number of workers to maintain in pool
	MinPoolSize uint32

	// The maximum time for an idle worker to wait for new task
	KeepAliveTime time.Duration
}

// Validate verifies config values.
func (config *WorkerPoolConfig) Validate() error {
	if config.MaxPoolSize == 0 {
		return errors.New(`WorkerPool: MaxPoolSize must be a non-zero value which specifies the ` +
			`maximum number of workers to be created by the executor. If you have no idea, try to ` +
			`set the value to uint32(runtime.GOMAXPROCS(-1)).`)
	}

	if config.MaxPoolSize < config.MinPoolSize {
		return fmt.Errorf(`WorkerPool: MaxPoolSize (%d) should be greater than MinPoolSize (%d)`,
			config.MaxPoolSize, config.MinPoolSize)
	}
	return nil
}

//===----------------------------------------------------------------------------------------====//
// workerPoolState
//===----------------------------------------------------------------------------------------====//

// workerPoolState contains current state of the WorkerPool. It contains the pool size and the
// running state of the WorkerPool. It should be updated atomically with CAS.
type workerPoolState int64

// workerPoolRunState indicates the running state of WorkerPool. It is stored in the high 32 bits
// of workerPoolState. The low 32 bits in workerPoolRunState must be 0.
type workerPoolRunState int64

// Enumeration of workerPoolRunState
const (
	workerPoolRunStateMask int64 = -4294967296 // 0xffffffff00000000

	// Executor accepts and processes tasks. The constant is the one and the only one in
	// workerPoolRunState that sets the HSB. This makes workerPoolState with running state be a
	// negative value and thus enables fast check IsRunning.
	workerPoolRunStateRunning workerPoolRunState = workerPoolRunState(workerPoolRunStateMask)

	// Shutdown is invoked on the pool. Queued tasks are processed but no new tasks will be
	// accepted.
	workerPoolRunStateShutdown = 0 // 0x0 << 32

	// There's no tasks in the queue and no new tasks is accepted.
	workerPoolRunStateTerminated = 4294967296 // 0x1 << 32
)

// RunState reads run state from state word.
func (s workerPoolState) RunState() workerPoolRunState {
	return workerPoolRunState(int64(s) & workerPoolRunStateMask)
}

// WorkerCount returns number of workers in the pool currently.
func (s workerPoolState) WorkerCount() uint32 {
	return uint32(s & 0xffffffff)
}

// Load loads state word with atomic.LoadInt64 because it is a lock-free variable. This suppresses
// the errors from Go's race detector. On conventional machines (e.g., x86-64), this is the same
// as dereferencing an int64 pointer. See [0] for more details.
//
// [0]: https://golang.org/doc/articles/race_detector.html#Primitive_unprotected_variable
func (s *workerPoolState) Load() workerPoolState {
	return workerPoolState(atomic.LoadInt64((*int64)(s)))
}

// SetRunState sets the run state.
func (s *workerPoolState) SetRunState(newRunState workerPoolRunState) (oldState workerPoolState) {
	for {
		oldState = *s
		if int64(oldState) >= int64(newRunState) {
			// States are only allowed to transition from RUNNING to SHUTDOWN to TERMINATED.
			return
		}

		newState := makeWorkerPoolState(newRunState, oldState.WorkerCount())
		if atomic.CompareAndSwapInt64((*int64)(s), int64(oldState), int64(newState)) {
			return
		}
	}
}

// IsRunning returns true if the run state is workerPoolRunStateRunning.
func (s workerPoolState) IsRunning() bool {
	return s < 0
}

// IsShutdown returns true if the pool received a shutdown request.
func (s workerPoolState) IsShutdown() bool {
	return s >= workerPoolRunStateShutdown
}

// IsTerminated returns true if the pool is terminated.
func (s workerPoolState) IsTerminated() bool {
	return s >= workerPoolRunStateTerminated
}

// CompareAndIncWorkerCount increments the worker count in the given state by 1 with CAS.
func (s *workerPoolState) CompareAndIncWorkerCount(old workerPoolState) (done bool) {
	return atomic.CompareAndSwapInt64((*int64)(s), int64(old), int64(old+1))
}

// CompareAndDecWorkerCount decrements the worker count in the given state by 1 with CAS.
func (s *workerPoolState) CompareAndDecWorkerCount(old workerPoolState) (done bool) {
	return atomic.CompareAndSwapInt64((*int64)(s), int64(old), int64(old-1))
}

// DecWorkerCount decrement the worker count in the given state by 1. Return the new state after
// decrement.
func (s *workerPoolState) DecWorkerCount() workerPoolState {
	return workerPoolState(atomic.AddInt64((*int64)(s), int64(-1)))
}

// makeWorkerPoolState creates a workerPoolState from given run state and worker count.
func makeWorkerPoolState(runState workerPoolRunState, workerCount uint32) workerPoolState {
	return workerPoolState(int64(runState) | int64(workerCount))
}

//===----------------------------------------------------------------------------------------====//
// poolTask
//===----------------------------------------------------------------------------------------====//

// poolTask wraps a Task queued in a WorkerPool. Unlike the submitted Task, it carries the
// intrusive link used by poolTaskQueue to optimize footprint. Task results, if any, are
// communicated by the task itself (futures complete their operation state from within Run), so
// no result storage is needed here.
type poolTask struct {
	Task

	// The next task to this task in the poolTaskQueue
	next *poolTask
}

//===----------------------------------------------------------------------------------------====//
// poolTaskQueue
//===----------------------------------------------------------------------------------------====//

// poolTaskQueue is custom queue to store tasks for execution for WorkerPool. The queue is
// essentially a circular linked list which makes use of the "intrusive" link in poolTask. It
// implements Queue[*poolTask]; Remove compares elements by pointer identity.
type poolTaskQueue struct {
	// Tail of linked list; tail.next is the head of linked list.
	//
	// The actual type is *poolTask. "tail" is read in Empty without locking and therefore may
	// cause data races while Push and Poll are writing a new tail, we have to access it with
	// atomic.{Load,Store}Pointer to appease Go's race detector. Access it with loadTail and
	// storeTail.
	tail unsafe.Pointer // *poolTask

	// Lock that guards accesses to tail and pollCond.
	mutex sync.Mutex

	// Condition variable for Poll to wait for Push; If the queue is closed, it will be set to
	// nil.
	pollCond *sync.Cond
}

// poolTaskQueue implements Queue[*poolTask].
var _ Queue[*poolTask] = (*poolTaskQueue)(nil)

func newPoolTaskQueue() *poolTaskQueue {
	queue := &poolTaskQueue{}
	queue.pollCond = sync.NewCond(&queue.mutex)
	return queue
}

func (queue *poolTaskQueue) loadTail() *poolTask {
	return (*poolTask)(atomic.LoadPointer(&queue.tail))
}

func (queue *poolTaskQueue) storeTail(tail *poolTask) {
	atomic.StorePointer(&queue.tail, unsafe.Pointer(tail))
}

// Push implements Queue.
func (queue *poolTaskQueue) Push(task *poolTask) error {
	mutex := &queue.mutex
	mutex.Lock()

	// Disallow new element to be added to queue.
	cond := queue.pollCond
	if cond == nil {
		mutex.Unlock()
		return ErrQueueClosed
	}

	tail := queue.loadTail()
	empty := queue.Empty()

	if empty {
		// task is also the head.
		task.next = task
	} else {
		// Link head node to task.next.
		task.next = tail.next
		// Append task after tail.
		tail.next = task
	}
	// Update queue.tail.
	queue.storeTail(task)

	if empty {
		cond.Signal()
	}

	mutex.Unlock()

	return nil
}

// Poll implements Queue. A positive timeout bounds the wait; the wait is implemented with a timer
// that broadcasts pollCond on expiry. Woken pollers that find neither a task nor a closed queue
// before the deadline report ErrQueuePollTimeout.
func (queue *poolTaskQueue) Poll(timeout time.Duration) (*poolTask, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	mutex := &queue.mutex
	mutex.Lock()

	for queue.Empty() {
		cond := queue.pollCond
		if cond == nil {
			// The queue is closed and drained.
			mutex.Unlock()
			return nil, nil
		}

		if timeout <= 0 {
			// Block on cond to wait for Push.
			cond.Wait()
			continue
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			mutex.Unlock()
			return nil, ErrQueuePollTimeout
		}

		// sync.Cond has no timed wait; arm a timer that broadcasts the condition on expiry so
		// this poller can observe the deadline. The callback takes the mutex so the broadcast
		// cannot fire between this check and the Wait below and be lost. Other pollers woken
		// spuriously by the broadcast re-evaluate their own deadlines and go back to sleep.
		timer := time.AfterFunc(remaining, func() {
			mutex.Lock()
			cond.Broadcast()
			mutex.Unlock()
		})
		cond.Wait()
		timer.Stop()
	}

	tail := queue.loadTail()
	head := tail.next

	if tail == head {
		// Become an empty queue.
		queue.storeTail(nil)
	} else {
		// Update head.
		tail.next = head.next
	}

	// Unlock mutex for return.
	mutex.Unlock()

	return head, nil
}

// Remove implements Queue.
func (queue *poolTaskQueue) Remove(task *poolTask) error {
	mutex := &queue.mutex
	mutex.Lock()

	// Search the previous task of the element in the queue.
	var prevTask *poolTask

	if !queue.Empty() {
		tail := queue.loadTail()
		head := tail.next

		// Search from head.
		prevTask = head

		for {
			nextTask := prevTask.next
			if nextTask == task {
				// Re-link.
				prevTask.next = task.next

				if task == tail {
					// The removed task is tail. Update queue.tail as well.
					if tail == head {
						// Queue becomes empty.
						queue.storeTail(nil)
					} else {
						queue.storeTail(prevTask)
					}
				}
				// Help GC.
				task.next = nil

				mutex.Unlock()
				return nil
			}

			// Move to the next task
			prevTask = nextTask
			if prevTask == head {
				break
			}
		}
	}

	mutex.Unlock()

	return ErrElementNotFound
}

// Close implements Queue.
func (queue *poolTaskQueue) Close() {
	mutex := &queue.mutex
	mutex.Lock()
	cond := queue.pollCond
	if cond != nil {
		// Unblock current waiters.
		cond.Broadcast()
		queue.pollCond = nil
	}
	mutex.Unlock()
}

// Empty implements Queue.
func (queue *poolTaskQueue) Empty() bool {
	return queue.loadTail() == nil
}

//===----------------------------------------------------------------------------------------====//
// workerPoolWorker
//===----------------------------------------------------------------------------------------====//

type workerPoolWorker struct {
	// Pool that owns this worker
	pool *WorkerPool
}

// newWorkerPoolWorker creates a worker for WorkerPool.
func newWorkerPoolWorker(pool *WorkerPool) workerPoolWorker {
	return workerPoolWorker{
		pool: pool,
	}
}

// Start creates a goroutine to execute run loop.
func (w workerPoolWorker) Start(firstTask Task) {
	go w.run(firstTask)
}

// run implements run loop for worker to execute tasks in the queue.
func (w workerPoolWorker) run(firstTask Task) {
	task := firstTask

	// The run loop
	for {
		if task == nil {
			// Retrieve one task from the pool.
			task = w.pool.pollTask()
			if task == nil {
				// No task to be executed; Terminate the worker.
				break
			}
		}

		// Run task.
		task.Run()

		// Reset task.
		task = nil
	}

	w.pool.terminateWorker(w)
}

//===----------------------------------------------------------------------------------------====//
// WorkerPool
//===----------------------------------------------------------------------------------------====//

// WorkerPool runs submitted tasks with one of the pooled workers backed by a goroutine. The
// implementation is heavily influenced by Doug Lea's PooledExecutor [0] which was released into
// the public domain [1].
//
// We avoid using defer, channel and even lock in the critical path to make it perform
// efficiently.
//
// The pool does not by default preallocate worker goroutines. Instead, a worker is created if
// necessary when a task arrives.
//
// [0]: http://gee.cs.oswego.edu/dl/classes/EDU/oswego/cs/dl/util/concurrent/intro.html
// [1]: http://creativecommons.org/publicdomain/zero/1.0/
type WorkerPool struct {
	// A lock-free word that contains pool running state and worker count
	state workerPoolState

	// Configuration
	config *WorkerPoolConfig

	// Task queue contains task to be executed
	taskQueue Queue[*poolTask]

	// Mutex for guarding terminations
	mutex sync.Mutex

	// Channels that are used for waiting termination. This is guarded by mutex.
	terminations []chan<- bool
}

// WorkerPool implements Executor.
var _ Executor = (*WorkerPool)(nil)

// NewWorkerPool creates a WorkerPool from given config.
func NewWorkerPool(config WorkerPoolConfig) (*WorkerPool, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &WorkerPool{
		state:     makeWorkerPoolState(workerPoolRunStateRunning, 0),
		config:    &config,
		taskQueue: newPoolTaskQueue(),
	}, nil
}

// Shutdown implements Executor.
func (pool *WorkerPool) Shutdown() (terminated <-chan bool, err error) {
	mutex := &pool.mutex

	// Hold lock for potential modification on pool.terminations. This also avoids races with
	// signals in tryTerminate.
	mutex.Lock()

	// Create a channel for return which notifies the completion of termination.
	termination := make(chan bool, 1)

	// Transition the state to SHUTDOWN. After that, addWorker and addTask would refuse any
	// request.
	prevState := pool.state.SetRunState(workerPoolRunStateShutdown)

	if prevState.IsTerminated() {
		// Pool was already terminated. Fill the returning channel with termination signal.
		termination <- true
	} else {
		// Append a termination to pool.terminations.
		pool.terminations = append(pool.terminations, termination)

		// Transition from RUNNING.
		if prevState.IsRunning() {
			// Close queue. This will also unblock all workers that are waiting for tasks on
			// empty queue.
			pool.taskQueue.Close()
		}
	}

	// Unlock mutex to call tryTerminate.
	mutex.Unlock()

	// Try to advance to TERMINATED.
	pool.tryTerminate()

	// Setup return values.
	return termination, nil
}

// loadState loads current state. See comment for the Load method in workerPoolState.
func (pool *WorkerPool) loadState() workerPoolState {
	return pool.state.Load()
}

// tryTerminate tries to transition to TERMINATED if the pool is shut down, and there's no task in
// the queue and all workers are terminated.
func (pool *WorkerPool) tryTerminate() {
	// Load state.
	state := pool.loadState()

	// Quick return if we have not received shutdown request or is already terminated.
	if !state.IsShutdown() || state.IsTerminated() {
		return
	}

	// Quick return if task queue is not empty.
	if !pool.taskQueue.Empty() {
		return
	}

	// Quick return if there're some workers.
	if state.WorkerCount() > 0 {
		return
	}

	// No workers in the pool.

	// Lock mutex to send termination signal after transition to TERMINATED.
	mutex := &pool.mutex
	mutex.Lock()
	defer mutex.Unlock()

	if !state.IsTerminated() {
		// Transition to TERMINATED. No new worker can be added to the pool after the state was
		// transitioned to SHUTDOWN. We can update state word with trivial assignment.
		pool.state.SetRunState(workerPoolRunStateTerminated)

		// Send termination signals.
		terminations := pool.terminations
		pool.terminations = nil
		for _, termination := range terminations {
			termination <- true
		}
	}
}

// Submit implements Executor.
//
// On receiving task, and fewer than the number of config.MinPoolSize are running, a new worker is
// always created to process the task even if other workers are idly waiting for task. Otherwise,
// a new worker is created only if there are fewer than the number of config.MaxPoolSize and the
// request cannot immediately be queued.
func (pool *WorkerPool) Submit(task Task) error {
	// Wrap input task for queuing.
	queued := &poolTask{Task: task}

	// Load config into local stack.
	config := pool.config

	// Load state.
	state := pool.loadState()

	// Ensure minimum number of workers.
	if state.WorkerCount() < config.MinPoolSize {
		if err := pool.addWorker(queued, config.MinPoolSize); err == nil {
			return nil
		}
		// Ignore errors and reload state.
		state = pool.loadState()
	}

	if state.IsRunning() {
		// Try to give the task to existing worker by putting it to the queue. Note that this
		// assumes that there's always a worker in the pool to process it.
		return pool.addTask(queued)
	}

	// Final try by directly requesting a worker to perform the task.
	return pool.addWorker(queued, config.MaxPoolSize)
}

var (
	errRejectWorkerDueToShuttingDown = errors.New("unable to add new worker because executor is shutting down")
	errTooManyWorkers                = errors.New("unable to add new worker because worker pool is full")
	errRejectTaskDueToShuttingDown   = errors.New("unable to execute task because executor is shutting down")
)

// addWorker tries to create a worker to execute the task. limit specifies the bound of pool size.
// An error will be returned if the pool size exceeds the limit after adding the newly created
// worker.
func (pool *WorkerPool) addWorker(firstTask Task, limit uint32) error {
	for {
		// Load state.
		state := pool.loadState()
		if state.IsShutdown() {
			return errRejectWorkerDueToShuttingDown
		}

		// Check pool size limit.
		if (state.WorkerCount() + 1) > limit {
			return errTooManyWorkers
		}

		// Atomically increment pool size.
		if pool.state.CompareAndIncWorkerCount(state) {
			break
		}

		// CAS failed. Restart the loop to load new state.
	}

	// Create a new worker and start running with initial task.
	newWorkerPoolWorker(pool).Start(firstTask)

	return nil
}

// terminateWorker is called upon termination of worker w. It should be called from the goroutine
// that runs w.
func (pool *WorkerPool) terminateWorker(w workerPoolWorker) {
	// Note that worker count should have been decremented (by pollTask).
	state := pool.loadState()

	if state.IsShutdown() {
		// Try to advance to TERMINATED.
		pool.tryTerminate()
	} else {
		// Create a replacement as needed.
		minPoolSize := pool.config.MinPoolSize
		if minPoolSize == 0 && !pool.taskQueue.Empty() {
			minPoolSize = 1
		}
		if state.WorkerCount() < minPoolSize {
			pool.addWorker(nil, minPoolSize)
		}
	}
}

// addTask puts the task in the queue and ensures that there'll be a worker to run the task.
func (pool *WorkerPool) addTask(task *poolTask) error {
	taskQueue := pool.taskQueue

	// Put task to the queue.
	if err := taskQueue.Push(task); err != nil {
		return err
	}

	for {
		// The task was successfully enqueued. But during the enqueue, someone may shutdown the
		// pool or there's no worker to execute the task.
		state := pool.loadState()
		if !state.IsRunning() {
			// Try to remove the task from queue.
			if err := pool.taskQueue.Remove(task); err == nil {
				// Successfully remove the task.
				return errRejectTaskDueToShuttingDown
			}
			// Someone took the task from queue.
		} else if state.WorkerCount() == 0 {
			// Pool is running and there's no any worker in current pool. This may happen when
			// config.MinPoolSize is zero. Try to add a worker.
			if err := pool.addWorker(nil, 1); err != nil {
				// Retry.
				continue
			}
		}
		break
	}

	return nil
}

// pollTask blocks the calling worker to wait for a task. This could return nil in the following
// case to indicate that no further task could be run:
//
//  1. The pool received a shutdown request and the task queue is empty.
//  2. The worker doesn't get a task within config.KeepAliveTime and current size of worker pool
//     is greater than config.MinPoolSize.
//
// Note that upon returning nil, the worker count in state word is decremented.
func (pool *WorkerPool) pollTask() Task {
	isIdle := false
	// Cache the config and task queue locally.
	taskQueue := pool.taskQueue
	config := pool.config

	for {
		// Reload state.
		state := pool.state.Load()
		noTasks := taskQueue.Empty()

		if state.IsShutdown() && noTasks {
			pool.state.DecWorkerCount()
			return nil
		}

		redundantWorker := state.WorkerCount() > config.MinPoolSize

		if redundantWorker &&
			isIdle &&
			(state.WorkerCount() > 1 || noTasks) {
			// Cause idle worker to die. The check depends on state.WorkerCount. Other workers
			// may also be here. Perform CAS on decrementing worker count before return. This
			// would limit at most one idle worker to be removed at a time to keep number of
			// config.MinPoolSize workers in the pool.
			if pool.state.CompareAndDecWorkerCount(state) {
				return nil
			}
		}

		// Reset isIdle.
		isIdle = false

		// Determine timeout for polling.
		var timeout time.Duration
		if state.WorkerCount() > config.MinPoolSize {
			timeout = config.KeepAliveTime
		}

		// Poll queue.
		task, err := taskQueue.Poll(timeout)
		if err == ErrQueuePollTimeout {
			isIdle = true
			// Restart loop to reload state and check whether the worker can be killed.
		} else if err != nil {
			// Ignore error and continue polling.
		} else if task != nil {
			return task.Task
		}
	}
}
