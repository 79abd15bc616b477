// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package luasync

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// Producer is a host asynchronous function callable from Lua.
// It is invoked once per Lua call with the call arguments and returns the
// future of the call's results. L is the Lua thread making the call.
type Producer func(L *lua.LState, args []lua.LValue) Future[[]lua.LValue]

// invocation owns the future of one Lua call to an async function.
// The future is polled only from the poll-step function, which runs
// inside a resume that has installed the host's poll context.
type invocation struct {
	b   *Bridge
	fut Future[[]lua.LValue]
}

// step polls the owned future once.
// Returns false while pending, or true followed by the results.
// A failure is raised as a Lua error so that it aborts the control loop.
func (inv *invocation) step(L *lua.LState) int {
	cx, ok := inv.b.relay.current()
	if !ok {
		L.RaiseError("luasync: async function called outside of an async call")
		return 0
	}
	if inv.fut == nil {
		L.RaiseError("luasync: poll after completion")
		return 0
	}
	values, err := inv.fut.Poll(cx)
	if IsPending(err) {
		if underGoFrame(L) {
			L.RaiseError("luasync: async function pending inside a protected call")
			return 0
		}
		L.Push(lua.LFalse)
		return 1
	}
	inv.fut = nil
	if err != nil {
		inv.b.raise(L, err)
		return 0
	}
	L.Push(lua.LTrue)
	for _, v := range values {
		L.Push(v)
	}
	return 1 + len(values)
}

// underGoFrame reports whether a Go function frame sits below the caller
// of step, such as pcall. A coroutine cannot yield across such a frame:
// the nested call would return early and the script would continue
// with no results.
func underGoFrame(L *lua.LState) bool {
	for level := 1; ; level++ {
		dbg, ok := L.GetStack(level)
		if !ok {
			return false
		}
		fn, err := L.GetInfo("f", dbg, lua.LNil)
		if err != nil {
			return false
		}
		if f, ok := fn.(*lua.LFunction); ok && f.IsG {
			return true
		}
	}
}

// CreateAsyncFunction wraps p into a Lua function.
//
// Calling the function from Lua looks like any other call. When p's
// future is pending, the calling coroutine yields back to the host poll
// that resumed it; the call returns p's results once the future is ready.
// The function must only be called from code running under CallAsync.
func (b *Bridge) CreateAsyncFunction(p Producer) (*lua.LFunction, error) {
	start := b.L.NewFunction(func(L *lua.LState) int {
		args := make([]lua.LValue, L.GetTop())
		for i := range args {
			args[i] = L.Get(i + 1)
		}
		fut := p(L, args)
		if fut == nil {
			L.RaiseError("luasync: producer returned a nil future")
			return 0
		}
		inv := &invocation{b: b, fut: fut}
		L.Push(L.NewFunction(inv.step))
		return 1
	})
	if err := b.L.CallByParam(lua.P{Fn: b.wrap, NRet: 1, Protect: true}, start); err != nil {
		return nil, fmt.Errorf("luasync: wrap async function: %w", err)
	}
	ret := b.L.Get(-1)
	b.L.Pop(1)
	fn, ok := ret.(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("luasync: control loop wrapped into %s", ret.Type())
	}
	return fn, nil
}

// Register creates an async function from p and sets it as global name.
func (b *Bridge) Register(name string, p Producer) error {
	fn, err := b.CreateAsyncFunction(p)
	if err != nil {
		return err
	}
	b.L.SetGlobal(name, fn)
	return nil
}

// AsyncFunction wraps a typed host function into a Lua function.
// The Lua arguments are decoded into A and the result R is encoded as the
// call's results; a []lua.LValue result returns several values.
func AsyncFunction[A, R any](b *Bridge, fn func(A) Future[R]) (*lua.LFunction, error) {
	return b.CreateAsyncFunction(func(L *lua.LState, args []lua.LValue) Future[[]lua.LValue] {
		a, err := Decode[A](args)
		if err != nil {
			return Fail[[]lua.LValue](err)
		}
		fut := fn(a)
		if fut == nil {
			return nil
		}
		return encodeFuture(L, fut)
	})
}

// RegisterAsync creates a typed async function and sets it as global name.
func RegisterAsync[A, R any](b *Bridge, name string, fn func(A) Future[R]) error {
	f, err := AsyncFunction(b, fn)
	if err != nil {
		return err
	}
	b.L.SetGlobal(name, f)
	return nil
}

// encodeFuture converts the results of inner into Lua values when it
// settles. The conversion runs on the Lua thread that polls it.
func encodeFuture[R any](L *lua.LState, inner Future[R]) Future[[]lua.LValue] {
	return PollFunc[[]lua.LValue](func(cx *Context) ([]lua.LValue, error) {
		r, err := inner.Poll(cx)
		if err != nil {
			return nil, err
		}
		return encodeResults(L, r)
	})
}
