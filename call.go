// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package luasync

import (
	"context"
	"fmt"
	"runtime"

	"code.hybscloud.com/atomix"
	lua "github.com/yuin/gopher-lua"
)

// calls numbers the calls of all bridges, for tracing.
var calls atomix.Uint32

// CallAsync calls the Lua function fn with args in a new coroutine and
// returns the future of its results decoded into R.
//
// Nothing runs until the first poll, which starts the call with args;
// later polls resume it without arguments. If fn is not a Lua function or
// an argument cannot be encoded, the returned future has already failed
// and no coroutine is created.
//
// Dropping a pending future abandons the coroutine; it is reclaimed by
// the garbage collector together with the futures it owns.
func CallAsync[R any](b *Bridge, fn lua.LValue, args ...any) Future[R] {
	lfn, ok := fn.(*lua.LFunction)
	if !ok || lfn == nil {
		return Fail[R](fmt.Errorf("%w: %s", ErrNotFunction, typeName(fn)))
	}
	values, err := encodeArgs(b.L, args)
	if err != nil {
		return Fail[R](err)
	}

	th, cancel := b.L.NewThread()
	f := &threadFuture[R]{
		b:      b,
		th:     th,
		fn:     lfn,
		serial: calls.Add(1),
		cancel: cancel,
		args:   values,
		armed:  true,
	}
	if cancel != nil {
		runtime.AddCleanup(f, func(cancel context.CancelFunc) { cancel() }, cancel)
	}
	b.logger.Debug("luasync: call created", "serial", f.serial, "args", len(values))
	return f
}

// CallGlobal is CallAsync on the global function name.
func CallGlobal[R any](b *Bridge, name string, args ...any) Future[R] {
	return CallAsync[R](b, b.L.GetGlobal(name), args...)
}

func typeName(v lua.LValue) string {
	if v == nil {
		return "nil"
	}
	return v.Type().String()
}
