// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package luasync bridges poll-driven host futures and Lua coroutines
// running on [github.com/yuin/gopher-lua].
//
// Host asynchronous functions are exposed to Lua as ordinary functions.
// Lua functions are called from the host as futures. Scripts never see
// the suspension: a call to an async function returns its results once
// the host future is ready, and the coroutine running the script yields
// back to the host poll in the meantime.
//
// # Architecture
//
//   - Futures: [Future] polls return [code.hybscloud.com/iox.ErrWouldBlock] while pending. The [Context] of a poll carries the [Waker] to notify.
//   - Relay: each resume of a call installs the poll's [Context] on the [Bridge], scoped to that resume. Async functions read it to poll their future.
//   - Control loop: a small Lua chunk shared by all async functions alternates between polling the host future and yielding.
//   - Errors: producer failures reach the host unchanged. Script errors wrap [ErrRuntime].
//
// # API Topologies
//
//   - Lua to host: [Bridge.CreateAsyncFunction], [Bridge.Register], [AsyncFunction], [RegisterAsync].
//   - Host to Lua: [CallAsync], [CallGlobal].
//   - Host futures: [Ready], [Fail], [PollFunc], [Promise], [Go], [After].
//   - Values: [Encode], [Decode], [GoValue].
//
// # Integration
//
//   - Stepping: [Step] polls a future once, for use inside an external poll loop.
//   - Blocking: [Block], [BlockContext] and [RunAll] wait past pending polls using adaptive backoff.
//
// # Example
//
//	L := lua.NewState()
//	b, _ := luasync.New(L)
//	_ = luasync.RegisterAsync(b, "double", func(n int) luasync.Future[int] {
//		return luasync.After(10*time.Millisecond, func() (int, error) { return 2 * n, nil })
//	})
//	_ = L.DoString(`function quadruple(n) return double(double(n)) end`)
//	n, err := luasync.Block(luasync.CallGlobal[int](b, "quadruple", 3))
package luasync
