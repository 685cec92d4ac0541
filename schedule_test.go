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

package futures_test

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/botobag/futures"
	"github.com/botobag/futures/executor"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Schedule", func() {
	It("does not run the task before the first wait", func() {
		var counter int32
		d := futures.Schedule(func() (int, error) {
			atomic.StoreInt32(&counter, 1)
			return 0, nil
		})

		// Give a would-be eager task every chance to run.
		time.Sleep(20 * time.Millisecond)
		Expect(atomic.LoadInt32(&counter)).Should(Equal(int32(0)))
		Expect(d.Status()).Should(Equal(futures.StatusDeferred))

		Expect(d.Get()).Should(Equal(0))
		Expect(atomic.LoadInt32(&counter)).Should(Equal(int32(1)))
	})

	It("runs the task inline on the waiting goroutine when no executor is given", func() {
		waiter := make(chan int, 1)
		d := futures.Schedule(func() (int, error) {
			return 5, nil
		})
		go func() {
			value, _ := d.Get()
			waiter <- value
		}()
		Eventually(waiter).Should(Receive(Equal(5)))
	})

	It("posts the task to the executor on first wait", func() {
		pool, err := executor.NewWorkerPool(executor.WorkerPoolConfig{
			MaxPoolSize: uint32(runtime.GOMAXPROCS(-1)),
		})
		Expect(err).ShouldNot(HaveOccurred())

		var counter int32
		d := futures.ScheduleOn(pool, func() (int, error) {
			atomic.AddInt32(&counter, 1)
			return 8, nil
		})
		time.Sleep(20 * time.Millisecond)
		Expect(atomic.LoadInt32(&counter)).Should(Equal(int32(0)))

		Expect(d.Get()).Should(Equal(8))
		Expect(atomic.LoadInt32(&counter)).Should(Equal(int32(1)))
		Expect(shutdownExecutor(pool)).Should(Succeed())
	})

	It("launches the task exactly once under concurrent waits", func() {
		var runs int32
		d := futures.Schedule(func() (int, error) {
			atomic.AddInt32(&runs, 1)
			return 3, nil
		})
		shared := d.Share()

		done := make(chan bool)
		for i := 0; i < 8; i++ {
			go func() {
				shared.Clone().Wait()
				done <- true
			}()
		}
		for i := 0; i < 8; i++ {
			Eventually(done).Should(Receive())
		}
		Expect(atomic.LoadInt32(&runs)).Should(Equal(int32(1)))
		Expect(shared.Get()).Should(Equal(3))
	})

	It("supports stop-observing deferred tasks", func() {
		d := futures.ScheduleStoppable(func(token futures.StopToken) (bool, error) {
			return token.StopRequested(), nil
		})
		Expect(d.RequestStop()).Should(BeTrue())
		// The task observes the request once launched.
		Expect(d.Get()).Should(BeTrue())
	})

	It("supports deferred tasks that produce no value", func() {
		var counter int32
		d := futures.ScheduleVoid(func() error {
			atomic.StoreInt32(&counter, 1)
			return nil
		})
		Expect(atomic.LoadInt32(&counter)).Should(Equal(int32(0)))
		d.Wait()
		Expect(atomic.LoadInt32(&counter)).Should(Equal(int32(1)))
	})
})
