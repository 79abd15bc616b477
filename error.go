// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package luasync

import (
	"errors"
	"fmt"

	"code.hybscloud.com/kont"
	lua "github.com/yuin/gopher-lua"
)

// Errors returned by bridged calls.
// Failures of host producers are not wrapped: they reach the caller of
// the enclosing future unchanged.
var (
	// ErrRuntime reports a Lua runtime error raised while resuming a call.
	ErrRuntime = errors.New("luasync: runtime error")
	// ErrDecode reports returned Lua values that do not fit the result type.
	ErrDecode = errors.New("luasync: decode error")
	// ErrEncode reports a Go argument that cannot be converted to Lua.
	ErrEncode = errors.New("luasync: encode error")
	// ErrNotFunction reports a call target that is not a Lua function.
	ErrNotFunction = errors.New("luasync: not a function")
	// ErrReentrant reports a resume attempted while another resume on the
	// same bridge is in progress.
	ErrReentrant = errors.New("luasync: reentrant resume")
	// ErrCompleted reports a poll of a call that has already settled.
	ErrCompleted = errors.New("luasync: call already completed")
)

// hostError boxes a producer failure while it unwinds through Lua frames.
type hostError struct {
	err error
}

// raise aborts the running Lua function with err as the error value.
func (b *Bridge) raise(L *lua.LState, err error) {
	ud := L.NewUserData()
	ud.Value = hostError{err: err}
	ud.Metatable = b.errMeta
	L.Error(ud, 0)
}

// hostErrorString is the __tostring metamethod of boxed producer failures.
func hostErrorString(L *lua.LState) int {
	ud := L.CheckUserData(1)
	if he, ok := ud.Value.(hostError); ok {
		L.Push(lua.LString(he.err.Error()))
		return 1
	}
	L.Push(lua.LString("luasync: host error"))
	return 1
}

// resumeError converts the error of a failed resume. A boxed producer
// failure is returned as is; anything else is a script error.
func resumeError(err error) error {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) {
		if ud, ok := apiErr.Object.(*lua.LUserData); ok {
			if he, ok := ud.Value.(hostError); ok {
				return he.err
			}
		}
	}
	return fmt.Errorf("%w: %w", ErrRuntime, err)
}

// Settle folds a (value, error) pair into an Either.
// Left carries the failure, Right the value.
func Settle[T any](v T, err error) kont.Either[error, T] {
	if err != nil {
		return kont.Left[error, T](err)
	}
	return kont.Right[error, T](v)
}
