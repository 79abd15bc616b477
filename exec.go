// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package luasync

import (
	"context"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
)

// parker is a Waker counting wakeups.
// A poll loop records the epoch before polling and re-polls only once it
// has moved, so a wake that races with the poll is never lost.
type parker struct {
	epoch atomix.Uint32
}

// Wake implements Waker.
func (p *parker) Wake() {
	p.epoch.Add(1)
}

// mark returns the current epoch.
func (p *parker) mark() uint32 {
	return p.epoch.Add(0)
}

// Block drives f to completion on the calling goroutine.
// Between polls it waits for f's waker with adaptive backoff
// (iox.Backoff), without spawning goroutines or creating channels.
func Block[T any](f Future[T]) (T, error) {
	return BlockContext(context.Background(), f)
}

// BlockContext is Block with cancellation. When ctx is done while f is
// pending, f is dropped and ctx's error is returned.
func BlockContext[T any](ctx context.Context, f Future[T]) (T, error) {
	var p parker
	cx := NewContext(&p)
	var bo iox.Backoff
	for {
		mark := p.mark()
		v, err := f.Poll(cx)
		if !iox.IsWouldBlock(err) {
			return v, err
		}
		bo.Reset()
		for p.mark() == mark {
			if err := ctx.Err(); err != nil {
				var zero T
				return zero, err
			}
			bo.Wait()
		}
	}
}
