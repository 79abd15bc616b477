// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package luasync

// relay carries the host's poll context into Lua code running inside a
// resume, where it cannot be passed as a parameter.
// At most one context is installed at a time; it is readable only while
// the scope that installed it is on the call stack.
type relay struct {
	cx *Context
}

// scope installs cx for the dynamic extent of fn. The slot is emptied on
// every exit path, including a panic out of fn.
// Returns ErrReentrant, without running fn, if a context is installed.
func (r *relay) scope(cx *Context, fn func()) error {
	if r.cx != nil {
		return ErrReentrant
	}
	r.cx = cx
	defer func() { r.cx = nil }()
	fn()
	return nil
}

// current returns the installed context.
func (r *relay) current() (*Context, bool) {
	return r.cx, r.cx != nil
}
