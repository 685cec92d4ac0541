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

// inlineExecutor runs every submitted task synchronously on the goroutine that calls Submit. It
// is the last-resort executor used by combinators in the futures package and the fallback for
// deferred operations created without an executor.
type inlineExecutor int

// inlineExecutor implements Executor.
var _ Executor = inlineExecutor(0)

// Submit implements Executor. The task has completed by the time Submit returns.
func (inlineExecutor) Submit(task Task) error {
	task.Run()
	return nil
}

// Shutdown implements Executor. An inline executor holds no resources; the returned channel is
// immediately ready.
func (inlineExecutor) Shutdown() (<-chan bool, error) {
	terminated := make(chan bool, 1)
	terminated <- true
	return terminated, nil
}

// Inline returns the executor which runs tasks synchronously on the submitting goroutine. All
// calls return the same (stateless) executor, so values compare equal.
func Inline() Executor {
	return inlineExecutor(0)
}
