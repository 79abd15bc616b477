// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package luasync

import (
	"code.hybscloud.com/iox"
)

// Future is a poll-driven computation producing a value of type T.
//
// Poll is non-blocking: it returns iox.ErrWouldBlock while the value is
// not available yet. Any other error, or a nil error, settles the future.
// A pending future must arrange for cx.Waker().Wake() to be called once
// it can make progress, and only the waker of the most recent poll is
// expected to be woken. A settled future must not be polled again.
type Future[T any] interface {
	Poll(cx *Context) (T, error)
}

// Waker is notified when a pending future can make progress.
type Waker interface {
	Wake()
}

// WakerFunc adapts a function to a Waker.
type WakerFunc func()

// Wake calls f.
func (f WakerFunc) Wake() { f() }

type noopWaker struct{}

func (noopWaker) Wake() {}

// Context is the suspension context handed to Future.Poll.
// It is valid only for the duration of one Poll call.
type Context struct {
	waker Waker
}

// NewContext returns a Context that wakes w. A nil w never wakes.
func NewContext(w Waker) *Context {
	if w == nil {
		w = noopWaker{}
	}
	return &Context{waker: w}
}

// Waker returns the waker of the current poll.
func (cx *Context) Waker() Waker {
	return cx.waker
}

// Wake wakes the current poll's waker.
func (cx *Context) Wake() {
	cx.waker.Wake()
}

// PollFunc adapts a function to a Future.
type PollFunc[T any] func(cx *Context) (T, error)

// Poll calls f.
func (f PollFunc[T]) Poll(cx *Context) (T, error) {
	return f(cx)
}

// Ready returns a future that is immediately ready with v.
func Ready[T any](v T) Future[T] {
	return settled[T]{value: v}
}

// Fail returns a future that immediately fails with err.
func Fail[T any](err error) Future[T] {
	return settled[T]{err: err}
}

type settled[T any] struct {
	value T
	err   error
}

func (s settled[T]) Poll(*Context) (T, error) {
	return s.value, s.err
}

// IsPending reports whether err is the pending signal returned by Poll.
func IsPending(err error) bool {
	return iox.IsWouldBlock(err)
}
