// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package asynclib_test

import "testing"

// skipRace skips tests whose promises are settled from other goroutines.
// The race detector cannot see the SPSC transport's cross-variable
// memory ordering and reports false positives.
func skipRace(tb testing.TB) {
	tb.Helper()
	tb.Skip("skip: SPSC uses cross-variable memory ordering")
}
