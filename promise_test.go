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
	"time"

	"github.com/botobag/futures"
	"github.com/botobag/futures/executor"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Promise", func() {
	It("delivers a value set from another goroutine", func() {
		p := futures.NewPromise[int]()
		f, err := p.Future()
		Expect(err).ShouldNot(HaveOccurred())

		go func() {
			time.Sleep(10 * time.Millisecond)
			p.SetValue(7)
		}()

		Expect(f.Get()).Should(Equal(7))
	})

	It("delivers an error", func() {
		testErr := errors.New("production failed")
		p := futures.NewPromise[int]()
		f, err := p.Future()
		Expect(err).ShouldNot(HaveOccurred())

		Expect(p.SetError(testErr)).Should(Succeed())
		_, err = f.Get()
		Expect(err).Should(MatchError(testErr))
	})

	It("rejects a second completion", func() {
		p := futures.NewPromise[int]()
		Expect(p.SetValue(1)).Should(Succeed())
		Expect(p.SetValue(2)).Should(MatchError(futures.ErrPromiseAlreadySatisfied))
		Expect(p.SetError(errors.New("nope"))).Should(MatchError(futures.ErrPromiseAlreadySatisfied))
		Expect(p.IsSatisfied()).Should(BeTrue())

		// The first outcome sticks.
		f, err := p.Future()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(f.Get()).Should(Equal(1))
	})

	It("mints the consumer handle exactly once", func() {
		p := futures.NewPromise[int]()
		_, err := p.Future()
		Expect(err).ShouldNot(HaveOccurred())
		_, err = p.Future()
		Expect(err).Should(MatchError(futures.ErrFutureAlreadyRetrieved))
	})

	It("breaks the promise when closed without an outcome", func() {
		p := futures.NewPromise[int]()
		f, err := p.Future()
		Expect(err).ShouldNot(HaveOccurred())

		p.Close()
		_, err = f.Get()
		Expect(err).Should(MatchError(futures.ErrBrokenPromise))
	})

	It("keeps the outcome when closed after completion", func() {
		p := futures.NewPromise[int]()
		f, err := p.Future()
		Expect(err).ShouldNot(HaveOccurred())

		Expect(p.SetValue(3)).Should(Succeed())
		p.Close()
		Expect(f.Get()).Should(Equal(3))
	})

	It("reports timeout on a bounded wait and leaves the state usable", func() {
		p := futures.NewPromise[int]()
		f, err := p.Future()
		Expect(err).ShouldNot(HaveOccurred())

		Expect(f.WaitFor(10 * time.Millisecond)).Should(Equal(futures.WaitTimeout))
		Expect(f.Status()).Should(Equal(futures.StatusLaunched))

		Expect(p.SetValue(9)).Should(Succeed())
		Expect(f.WaitFor(time.Second)).Should(Equal(futures.WaitReady))
		Expect(f.Get()).Should(Equal(9))
	})
})

var _ = Describe("PackagedTask", func() {
	It("completes its future when called", func() {
		task := futures.NewPackagedTask(func() (int, error) {
			return 11, nil
		})
		f, err := task.Future()
		Expect(err).ShouldNot(HaveOccurred())

		Expect(task.Call()).Should(Succeed())
		Expect(f.Get()).Should(Equal(11))
	})

	It("runs at most once", func() {
		calls := 0
		task := futures.NewPackagedTask(func() (int, error) {
			calls++
			return calls, nil
		})
		Expect(task.Call()).Should(Succeed())
		Expect(task.Call()).Should(MatchError(futures.ErrPromiseAlreadySatisfied))
		Expect(calls).Should(Equal(1))
	})

	It("can be submitted to an executor directly", func() {
		pool, err := executor.NewWorkerPool(executor.WorkerPoolConfig{
			MaxPoolSize: uint32(runtime.GOMAXPROCS(-1)),
		})
		Expect(err).ShouldNot(HaveOccurred())

		task := futures.NewPackagedTask(func() (string, error) {
			return "pooled", nil
		})
		f, err := task.Future()
		Expect(err).ShouldNot(HaveOccurred())

		Expect(pool.Submit(task)).Should(Succeed())
		Expect(f.Get()).Should(Equal("pooled"))
		Expect(shutdownExecutor(pool)).Should(Succeed())
	})

	It("records a panic in the wrapped function", func() {
		task := futures.NewPackagedTask(func() (int, error) {
			panic("wrapped panic")
		})
		f, err := task.Future()
		Expect(err).ShouldNot(HaveOccurred())

		Expect(task.Call()).Should(Succeed())
		_, err = f.Get()
		var panicErr *futures.PanicError
		Expect(errors.As(err, &panicErr)).Should(BeTrue())
	})

	It("breaks the promise when closed without running", func() {
		task := futures.NewPackagedTask(func() (int, error) {
			return 0, nil
		})
		f, err := task.Future()
		Expect(err).ShouldNot(HaveOccurred())

		task.Close()
		_, err = f.Get()
		Expect(err).Should(MatchError(futures.ErrBrokenPromise))
	})
})
