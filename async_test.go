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
	"errors"
	"runtime"
	"sync/atomic"

	"github.com/botobag/futures"
	"github.com/botobag/futures/executor"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Async", func() {
	It("delivers the task value through the future", func() {
		f := futures.Async(func() (int, error) {
			return 42, nil
		})
		Expect(f.Get()).Should(Equal(42))
	})

	It("delivers the task error through the future", func() {
		testErr := errors.New("task failed")
		f := futures.Async(func() (int, error) {
			return 0, testErr
		})
		_, err := f.Get()
		Expect(err).Should(MatchError(testErr))
	})

	It("records a recovered panic as the outcome", func() {
		f := futures.Async(func() (int, error) {
			panic("boom")
		})
		_, err := f.Get()
		var panicErr *futures.PanicError
		Expect(errors.As(err, &panicErr)).Should(BeTrue())
		Expect(panicErr.Value).Should(Equal("boom"))
	})

	It("runs on a supplied executor", func() {
		pool, err := executor.NewWorkerPool(executor.WorkerPoolConfig{
			MaxPoolSize: uint32(runtime.GOMAXPROCS(-1)),
		})
		Expect(err).ShouldNot(HaveOccurred())

		f := futures.AsyncOn(pool, func() (string, error) {
			return "on pool", nil
		})
		Expect(f.Get()).Should(Equal("on pool"))
		Expect(shutdownExecutor(pool)).Should(Succeed())
	})

	It("completes the future with the submission error when the executor refuses the task", func() {
		pool, err := executor.NewWorkerPool(executor.WorkerPoolConfig{
			MaxPoolSize: 1,
		})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(shutdownExecutor(pool)).Should(Succeed())

		f := futures.AsyncOn(pool, func() (int, error) {
			return 1, nil
		})
		_, err = f.Get()
		Expect(err).Should(HaveOccurred())
	})

	It("supports tasks that produce no value", func() {
		ran := make(chan bool, 1)
		f := futures.AsyncVoid(func() error {
			ran <- true
			return nil
		})
		Expect(f.Get()).Should(Equal(futures.Void{}))
		Expect(ran).Should(Receive())
	})

	It("consumes the unique handle on Get", func() {
		f := futures.Async(func() (int, error) {
			return 1, nil
		})
		Expect(f.Get()).Should(Equal(1))
		Expect(f.Valid()).Should(BeFalse())
		_, err := f.Get()
		Expect(err).Should(MatchError(futures.ErrPromiseUninitialized))
	})

	It("reports readiness without blocking", func() {
		release := make(chan bool)
		f := futures.Async(func() (int, error) {
			<-release
			return 1, nil
		})
		Expect(f.IsReady()).Should(BeFalse())
		close(release)
		Eventually(f.IsReady).Should(BeTrue())
		Expect(f.Status()).Should(Equal(futures.StatusReady))
	})
})

var _ = Describe("AsyncStoppable", func() {
	It("passes a token connected to the future's stop source", func() {
		entered := make(chan bool, 1)
		var observed int32
		f := futures.AsyncStoppable(func(token futures.StopToken) (int, error) {
			entered <- true
			<-token.Done()
			atomic.StoreInt32(&observed, 1)
			return 7, nil
		})

		<-entered
		Expect(f.Stoppable()).Should(BeTrue())
		Expect(f.RequestStop()).Should(BeTrue())
		// Only the first request performs the transition.
		Expect(f.RequestStop()).Should(BeFalse())

		Expect(f.Get()).Should(Equal(7))
		Expect(atomic.LoadInt32(&observed)).Should(Equal(int32(1)))
	})

	It("never stops a task by itself", func() {
		f := futures.AsyncStoppable(func(token futures.StopToken) (bool, error) {
			return token.StopRequested(), nil
		})
		Expect(f.Get()).Should(BeFalse())
	})
})
