// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package luasync

import (
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// Step polls f once with cx, for integration with an external poll loop.
// Returns (outcome, true) once f has settled, where Left carries the
// failure and Right the value, or (zero, false) while f is pending.
func Step[T any](f Future[T], cx *Context) (kont.Either[error, T], bool) {
	v, err := f.Poll(cx)
	if iox.IsWouldBlock(err) {
		var zero kont.Either[error, T]
		return zero, false
	}
	return Settle(v, err), true
}
