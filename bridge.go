// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package luasync

import (
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

//go:embed driver.lua
var driverSource string

// driverChunk is the chunk name of the control loop in Lua tracebacks.
const driverChunk = "luasync.driver"

// Bridge connects one Lua state to a poll-driven host.
//
// All futures created through a Bridge share its Lua state: the host must
// serialize their polls, and a call must not be polled from inside the
// resume of another call on the same Bridge.
type Bridge struct {
	L       *lua.LState
	relay   relay
	wrap    *lua.LFunction
	errMeta *lua.LTable
	logger  *slog.Logger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger for call tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// New creates a Bridge over L and installs the control loop shared by
// all async functions created from it.
func New(L *lua.LState, opts ...Option) (*Bridge, error) {
	b := &Bridge{
		L:      L,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}

	chunk, err := L.Load(strings.NewReader(driverSource), driverChunk)
	if err != nil {
		return nil, fmt.Errorf("luasync: load control loop: %w", err)
	}
	yield := L.NewFunction(func(L *lua.LState) int {
		return L.Yield()
	})
	expectEmpty := L.NewFunction(func(L *lua.LState) int {
		if L.GetTop() != 0 {
			L.RaiseError("luasync: resumed with a payload")
		}
		return 0
	})
	if err := L.CallByParam(lua.P{Fn: chunk, NRet: 1, Protect: true}, yield, expectEmpty); err != nil {
		return nil, fmt.Errorf("luasync: run control loop: %w", err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	wrap, ok := ret.(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("luasync: control loop returned %s", ret.Type())
	}
	b.wrap = wrap

	b.errMeta = L.NewTable()
	b.errMeta.RawSetString("__tostring", L.NewFunction(hostErrorString))
	return b, nil
}
