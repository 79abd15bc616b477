// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command luasync runs Lua scripts whose async builtins are driven by a
// host poll loop.
//
// Usage:
//
//	luasync [flags] <command> [args]
//
// Commands:
//
//	run      - Run a script and print its results
//	version  - Show version information
package main

import (
	"fmt"
	"os"

	"code.hybscloud.com/luasync/cmd/luasync/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
