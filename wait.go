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
	"time"
)

//===----------------------------------------------------------------------------------------====//
// WaitForAll
//===----------------------------------------------------------------------------------------====//

// WaitForAll blocks until every given future is ready. Unlike WhenAll it produces no new future;
// the inputs remain usable. Deferred inputs are launched by their wait, in order.
func WaitForAll[T any](fs ...*Future[T]) {
	for _, f := range fs {
		f.Wait()
	}
}

// WaitForAllFor is WaitForAll bounded by a duration covering all inputs together. It reports
// WaitReady when every input became ready before the deadline and WaitTimeout otherwise; the
// inputs are left untouched either way.
func WaitForAllFor[T any](d time.Duration, fs ...*Future[T]) WaitStatus {
	return WaitForAllUntil(time.Now().Add(d), fs...)
}

// WaitForAllUntil is WaitForAll bounded by a time instant.
func WaitForAllUntil[T any](t time.Time, fs ...*Future[T]) WaitStatus {
	for _, f := range fs {
		f.WaitUntil(t)
	}
	// A full scan over every input; some may have become ready after their timed wait returned.
	for _, f := range fs {
		if f.Valid() && !f.IsReady() {
			return WaitTimeout
		}
	}
	return WaitReady
}

//===----------------------------------------------------------------------------------------====//
// WaitForAny
//===----------------------------------------------------------------------------------------====//

// WaitForAny blocks until at least one of the given futures is ready and returns its index.
// Unlike WhenAny it produces no new future; the inputs remain usable and the reported one is
// ready.
//
// One shared condition variable is registered with every input (which launches deferred inputs),
// the caller blocks on it, and a scan on each wakeup finds a ready input. With no valid inputs
// WaitForAny returns -1 immediately.
func WaitForAny[T any](fs ...*Future[T]) int {
	index, _ := waitForAnyDeadline(time.Time{}, fs)
	return index
}

// WaitForAnyFor is WaitForAny bounded by a duration. On WaitTimeout the returned index is -1.
func WaitForAnyFor[T any](d time.Duration, fs ...*Future[T]) (int, WaitStatus) {
	return waitForAnyDeadline(time.Now().Add(d), fs)
}

// WaitForAnyUntil is WaitForAny bounded by a time instant.
func WaitForAnyUntil[T any](t time.Time, fs ...*Future[T]) (int, WaitStatus) {
	return waitForAnyDeadline(t, fs)
}

// waitForAnyDeadline implements the WaitForAny family. A zero deadline waits indefinitely.
func waitForAnyDeadline[T any](deadline time.Time, fs []*Future[T]) (int, WaitStatus) {
	// scan walks every input looking for a ready one.
	scan := func() int {
		for i, f := range fs {
			if f.IsReady() {
				return i
			}
		}
		return -1
	}

	if index := scan(); index >= 0 {
		return index, WaitReady
	}

	var mutex sync.Mutex
	cv := sync.NewCond(&mutex)

	// Register before taking the condition's lock: registration acquires each state's mutex,
	// which completion holds while broadcasting under the condition's lock.
	type registration struct {
		future *Future[T]
		handle notifyHandle
	}
	registrations := make([]registration, 0, len(fs))
	for _, f := range fs {
		if f.Valid() {
			registrations = append(registrations, registration{
				future: f,
				handle: f.state.notifyWhenReady(cv),
			})
		}
	}
	if len(registrations) == 0 {
		return -1, WaitReady
	}

	index := -1
	status := WaitReady

	mutex.Lock()
	for {
		if index = scan(); index >= 0 {
			break
		}
		if deadline.IsZero() {
			cv.Wait()
			continue
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			status = WaitTimeout
			break
		}
		// The timer callback takes the mutex so its broadcast cannot land between the scan above
		// and the Wait below and be lost.
		timer := time.AfterFunc(remaining, func() {
			mutex.Lock()
			cv.Broadcast()
			mutex.Unlock()
		})
		cv.Wait()
		timer.Stop()
	}
	mutex.Unlock()

	for _, r := range registrations {
		r.future.state.unnotifyWhenReady(r.handle)
	}

	return index, status
}
