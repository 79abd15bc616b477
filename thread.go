// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package luasync

import (
	"context"

	"code.hybscloud.com/iox"
	lua "github.com/yuin/gopher-lua"
)

// threadFuture drives one Lua coroutine as a host future.
// Each poll resumes the coroutine exactly once; a yield reports pending,
// a return settles the future with the decoded results.
type threadFuture[R any] struct {
	b      *Bridge
	th     *lua.LState
	fn     *lua.LFunction
	serial uint32
	cancel context.CancelFunc

	// args is delivered on the first resume only; armed tracks it.
	args  []lua.LValue
	armed bool

	polls int
	done  bool
}

// Poll implements Future.
func (f *threadFuture[R]) Poll(cx *Context) (R, error) {
	var zero R
	if f.done {
		return zero, ErrCompleted
	}

	var (
		state  lua.ResumeState
		values []lua.LValue
		err    error
	)
	if rerr := f.b.relay.scope(cx, func() {
		var args []lua.LValue
		if f.armed {
			args, f.armed = f.args, false
			f.args = nil
		}
		f.polls++
		state, err, values = f.b.L.Resume(f.th, f.fn, args...)
	}); rerr != nil {
		f.settle(rerr)
		return zero, rerr
	}

	switch state {
	case lua.ResumeYield:
		return zero, iox.ErrWouldBlock
	case lua.ResumeError:
		err = resumeError(err)
		f.settle(err)
		return zero, err
	}
	r, err := Decode[R](values)
	f.settle(err)
	return r, err
}

// settle marks the call as finished and releases the coroutine.
func (f *threadFuture[R]) settle(err error) {
	f.done = true
	f.th = nil
	f.fn = nil
	if f.cancel != nil {
		f.cancel()
	}
	if err != nil {
		f.b.logger.Debug("luasync: call failed", "serial", f.serial, "polls", f.polls, "error", err)
		return
	}
	f.b.logger.Debug("luasync: call returned", "serial", f.serial, "polls", f.polls)
}
