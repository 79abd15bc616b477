// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package luasync_test

import (
	"testing"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/luasync"
	lua "github.com/yuin/gopher-lua"
)

// newBridge returns a bridge over a fresh Lua state closed at test end.
func newBridge(tb testing.TB) (*lua.LState, *luasync.Bridge) {
	tb.Helper()
	L := lua.NewState()
	tb.Cleanup(L.Close)
	b, err := luasync.New(L)
	if err != nil {
		tb.Fatalf("New: %v", err)
	}
	return L, b
}

// doString runs src on L or fails the test.
func doString(tb testing.TB, L *lua.LState, src string) {
	tb.Helper()
	if err := L.DoString(src); err != nil {
		tb.Fatalf("DoString: %v", err)
	}
}

// countdown is pending for n polls, waking its waker each time, then
// ready with v.
type countdown[T any] struct {
	n int
	v T
}

func (c *countdown[T]) Poll(cx *luasync.Context) (T, error) {
	if c.n > 0 {
		c.n--
		cx.Wake()
		var zero T
		return zero, iox.ErrWouldBlock
	}
	return c.v, nil
}

// never is pending forever and never wakes.
type never[T any] struct{}

func (never[T]) Poll(*luasync.Context) (T, error) {
	var zero T
	return zero, iox.ErrWouldBlock
}

// drive polls f with a no-op waker until it settles and returns the
// value, the number of pending polls seen and the error.
func drive[T any](f luasync.Future[T]) (T, int, error) {
	cx := luasync.NewContext(nil)
	pending := 0
	for {
		v, err := f.Poll(cx)
		if !luasync.IsPending(err) {
			return v, pending, err
		}
		pending++
	}
}
