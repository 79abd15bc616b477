// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package luasync

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// runWaker wakes one future of RunAll and the loop that drives it.
type runWaker struct {
	epoch atomix.Uint32
	hub   *parker
}

// Wake implements Waker.
func (w *runWaker) Wake() {
	w.epoch.Add(1)
	w.hub.Wake()
}

// RunAll drives fs to completion, interleaving them on the calling
// goroutine, and returns their outcomes in order: Left on failure, Right
// on success. A pending future is polled again only after its own waker
// fired. Waits with adaptive backoff (iox.Backoff) when no future can
// make progress. Does not spawn goroutines or create channels.
//
// Futures sharing a Bridge are safe to run together: RunAll never polls
// two of them at the same time.
func RunAll[T any](fs ...Future[T]) []kont.Either[error, T] {
	results := make([]kont.Either[error, T], len(fs))
	var hub parker
	wakers := make([]runWaker, len(fs))
	contexts := make([]*Context, len(fs))
	marks := make([]uint32, len(fs))
	pending := make([]bool, len(fs))
	for i := range fs {
		wakers[i].hub = &hub
		contexts[i] = NewContext(&wakers[i])
		pending[i] = true
	}

	remaining := len(fs)
	first := true
	var bo iox.Backoff
	for remaining > 0 {
		mark := hub.mark()
		progress := false
		for i, f := range fs {
			if !pending[i] {
				continue
			}
			epoch := wakers[i].epoch.Add(0)
			if !first && epoch == marks[i] {
				continue
			}
			marks[i] = epoch
			progress = true
			v, err := f.Poll(contexts[i])
			if iox.IsWouldBlock(err) {
				continue
			}
			results[i] = Settle(v, err)
			pending[i] = false
			remaining--
		}
		first = false
		if remaining == 0 {
			break
		}
		if progress {
			bo.Reset()
			continue
		}
		for hub.mark() == mark {
			bo.Wait()
		}
	}
	return results
}
