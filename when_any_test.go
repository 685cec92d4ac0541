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

var _ = Describe("WhenAny", func() {
	It("reports the input that completes first", func() {
		f1 := futures.Async(func() (string, error) {
			time.Sleep(100 * time.Millisecond)
			return "a", nil
		})
		f2 := futures.Async(func() (string, error) {
			time.Sleep(10 * time.Millisecond)
			return "b", nil
		})

		result, err := futures.WhenAny(f1, f2).Get()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(result.Index).Should(Equal(1))
		Expect(result.Futures).Should(HaveLen(2))
		Expect(result.Futures[1].IsReady()).Should(BeTrue())
		Expect(result.Futures[1].Get()).Should(Equal("b"))

		// The loser keeps running and remains waitable.
		Expect(result.Futures[0].Get()).Should(Equal("a"))
	})

	It("treats an error completion as the winner", func() {
		testErr := errors.New("fast failure")
		f1 := futures.Async(func() (int, error) {
			time.Sleep(100 * time.Millisecond)
			return 1, nil
		})
		f2 := futures.Async(func() (int, error) {
			return 0, testErr
		})

		result, err := futures.WhenAny(f1, f2).Get()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(result.Index).Should(Equal(1))
		_, err = result.Futures[1].Get()
		Expect(err).Should(MatchError(testErr))
	})

	It("waits on inputs without continuation support through condition variables", func() {
		p1 := futures.NewPromise[int]()
		f1, err := p1.Future()
		Expect(err).ShouldNot(HaveOccurred())
		p2 := futures.NewPromise[int]()
		f2, err := p2.Future()
		Expect(err).ShouldNot(HaveOccurred())

		go func() {
			time.Sleep(10 * time.Millisecond)
			p2.SetValue(22)
		}()

		result, err := futures.WhenAny(f1, f2).Get()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(result.Index).Should(Equal(1))
		Expect(result.Futures[1].Get()).Should(Equal(22))

		// Settle the loser so nothing is left blocked.
		p1.SetValue(11)
		Expect(result.Futures[0].Get()).Should(Equal(11))
	})

	It("combines continuation and condition-variable inputs", func() {
		pool, err := executor.NewWorkerPool(executor.WorkerPoolConfig{
			MaxPoolSize: uint32(runtime.GOMAXPROCS(-1)),
		})
		Expect(err).ShouldNot(HaveOccurred())

		p := futures.NewPromise[int]()
		pf, err := p.Future()
		Expect(err).ShouldNot(HaveOccurred())
		af := futures.Async(func() (int, error) {
			time.Sleep(10 * time.Millisecond)
			return 1, nil
		})

		result, err := futures.WhenAnyOn(pool, pf, af).Get()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(result.Index).Should(Equal(1))
		Expect(result.Futures[1].Get()).Should(Equal(1))

		p.SetValue(0)
		Expect(shutdownExecutor(pool)).Should(Succeed())
	})

	It("launches deferred inputs when the disjunction is waited on", func() {
		d := futures.Schedule(func() (int, error) {
			return 9, nil
		})

		result, err := futures.WhenAny(d).Get()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(result.Index).Should(Equal(0))
		Expect(result.Futures[0].Get()).Should(Equal(9))
	})

	It("is immediately ready with no inputs", func() {
		any := futures.WhenAny[int]()
		Expect(any.IsReady()).Should(BeTrue())
		result, err := any.Get()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(result.Index).Should(Equal(-1))
		Expect(result.Futures).Should(BeEmpty())
	})

	It("is available as the Or sugar", func() {
		fast := futures.Async(func() (int, error) { return 1, nil })
		slow := futures.Async(func() (int, error) {
			time.Sleep(100 * time.Millisecond)
			return 2, nil
		})

		result, err := fast.Or(slow).Get()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(result.Index).Should(Equal(0))
		Expect(result.Futures[0].Get()).Should(Equal(1))
	})
})
