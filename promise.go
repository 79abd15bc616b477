// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package luasync

import (
	"sync/atomic"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/lfq"
)

// promiseCapacity is the ring size of the outcome queue.
// A promise carries a single outcome.
const promiseCapacity = 2

type outcome[T any] struct {
	value T
	err   error
}

type wakerRef struct {
	w Waker
}

// Promise is a one-shot future settled from another goroutine.
//
// The outcome travels from the settling goroutine to the polling one
// over a bounded lock-free SPSC queue. Only the first Resolve or Reject
// takes effect. Polls must be serialized, as for any future; once
// settled, Poll keeps returning the outcome.
type Promise[T any] struct {
	q       lfq.SPSC[outcome[T]]
	slot    outcome[T]
	claimed atomix.Uint32
	waker   atomic.Pointer[wakerRef]

	out     outcome[T]
	settled bool
}

// NewPromise returns an unsettled promise.
func NewPromise[T any]() *Promise[T] {
	p := &Promise[T]{}
	p.q.Init(promiseCapacity)
	return p
}

// Resolve settles p with v.
func (p *Promise[T]) Resolve(v T) {
	p.settle(outcome[T]{value: v})
}

// Reject settles p with err.
func (p *Promise[T]) Reject(err error) {
	p.settle(outcome[T]{err: err})
}

func (p *Promise[T]) settle(o outcome[T]) {
	if p.claimed.Add(1) != 1 {
		return
	}
	p.slot = o
	if err := p.q.Enqueue(&p.slot); err != nil {
		panic("luasync: promise queue full")
	}
	if ref := p.waker.Load(); ref != nil {
		ref.w.Wake()
	}
}

// Poll implements Future.
// Non-blocking: returns iox.ErrWouldBlock until p is settled.
func (p *Promise[T]) Poll(cx *Context) (T, error) {
	if p.settled {
		return p.out.value, p.out.err
	}
	p.waker.Store(&wakerRef{w: cx.Waker()})
	o, err := p.q.Dequeue()
	if err != nil {
		var zero T
		return zero, err
	}
	p.out, p.settled = o, true
	p.waker.Store(nil)
	return o.value, o.err
}

// Go runs fn on a new goroutine and returns the promise of its outcome.
func Go[T any](fn func() (T, error)) *Promise[T] {
	p := NewPromise[T]()
	go func() {
		v, err := fn()
		p.settle(outcome[T]{value: v, err: err})
	}()
	return p
}

// After runs fn once d has elapsed and returns the promise of its outcome.
// A nil fn resolves to the zero value.
func After[T any](d time.Duration, fn func() (T, error)) *Promise[T] {
	p := NewPromise[T]()
	time.AfterFunc(d, func() {
		var o outcome[T]
		if fn != nil {
			o.value, o.err = fn()
		}
		p.settle(o)
	})
	return p
}
