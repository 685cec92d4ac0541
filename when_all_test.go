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
	"time"

	"github.com/botobag/futures"
	"github.com/botobag/futures/executor"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("WhenAll", func() {
	It("collects every input's value in input order", func() {
		f := futures.Async(func() (int, error) { return 6, nil })
		g := futures.Async(func() (int, error) { return 7, nil })
		h := futures.Async(func() (int, error) { return 8, nil })

		all := futures.WhenAll(f, g, h)
		results, err := all.Get()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(results).Should(HaveLen(3))
		Expect(results[0].Get()).Should(Equal(6))
		Expect(results[1].Get()).Should(Equal(7))
		Expect(results[2].Get()).Should(Equal(8))
	})

	It("feeds the collected results into a continuation", func() {
		f := futures.Async(func() (int, error) { return 6, nil })
		g := futures.Async(func() (int, error) { return 7, nil })
		h := futures.Async(func() (int, error) { return 8, nil })

		product := futures.Then(futures.WhenAll(f, g, h),
			func(results []futures.Result[int]) (int, error) {
				product := 1
				for _, r := range results {
					value, err := r.Get()
					if err != nil {
						return 0, err
					}
					product *= value
				}
				return product, nil
			})
		Expect(product.Get()).Should(Equal(336))
	})

	It("completes successfully even when inputs fail", func() {
		testErr := errors.New("first input failed")
		f := futures.Async(func() (int, error) { return 0, testErr })
		g := futures.Async(func() (int, error) { return 1, nil })

		results, err := futures.WhenAll(f, g).Get()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(results).Should(HaveLen(2))

		_, err = results[0].Get()
		Expect(err).Should(MatchError(testErr))
		Expect(results[1].Get()).Should(Equal(1))
	})

	It("is immediately ready with no inputs", func() {
		all := futures.WhenAll[int]()
		Expect(all.IsReady()).Should(BeTrue())
		results, err := all.Get()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(results).Should(BeEmpty())
	})

	It("watches inputs without continuation support by polling", func() {
		pool, err := executor.NewWorkerPool(executor.WorkerPoolConfig{
			MaxPoolSize: uint32(runtime.GOMAXPROCS(-1)),
		})
		Expect(err).ShouldNot(HaveOccurred())

		p := futures.NewPromise[int]()
		pf, err := p.Future()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(pf.Continuable()).Should(BeFalse())

		af := futures.Async(func() (int, error) { return 2, nil })

		go func() {
			time.Sleep(20 * time.Millisecond)
			p.SetValue(1)
		}()

		results, err := futures.WhenAllOn(pool, pf, af).Get()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(results[0].Get()).Should(Equal(1))
		Expect(results[1].Get()).Should(Equal(2))
		Expect(shutdownExecutor(pool)).Should(Succeed())
	})

	It("blocks inline on continuation-less inputs when it has no executor", func() {
		p := futures.NewPromise[int]()
		pf, err := p.Future()
		Expect(err).ShouldNot(HaveOccurred())

		go func() {
			time.Sleep(10 * time.Millisecond)
			p.SetValue(5)
		}()

		results, err := futures.WhenAll(pf).Get()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(results[0].Get()).Should(Equal(5))
	})

	It("leaves deferred inputs cold until the conjunction is waited on", func() {
		var counter int32
		d := futures.Schedule(func() (int, error) {
			atomic.AddInt32(&counter, 1)
			return 3, nil
		})
		af := futures.Async(func() (int, error) { return 4, nil })

		all := futures.WhenAll(d, af)
		time.Sleep(20 * time.Millisecond)
		Expect(atomic.LoadInt32(&counter)).Should(Equal(int32(0)))

		results, err := all.Get()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(atomic.LoadInt32(&counter)).Should(Equal(int32(1)))
		Expect(results[0].Get()).Should(Equal(3))
		Expect(results[1].Get()).Should(Equal(4))
	})

	It("embeds ErrPromiseUninitialized for invalid inputs", func() {
		f := futures.Async(func() (int, error) { return 1, nil })
		Expect(f.Get()).Should(Equal(1)) // consume the handle

		g := futures.Async(func() (int, error) { return 2, nil })
		results, err := futures.WhenAll(f, g).Get()
		Expect(err).ShouldNot(HaveOccurred())
		_, err = results[0].Get()
		Expect(err).Should(MatchError(futures.ErrPromiseUninitialized))
		Expect(results[1].Get()).Should(Equal(2))
	})

	It("is available as the And sugar", func() {
		f := futures.Async(func() (int, error) { return 6, nil })
		g := futures.Async(func() (int, error) { return 7, nil })

		results, err := f.And(g).Get()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(results[0].Get()).Should(Equal(6))
		Expect(results[1].Get()).Should(Equal(7))
	})
})
