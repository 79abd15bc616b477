// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package commands implements the luasync command tree.
package commands

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

type rootOptions struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "luasync",
		Short: "Run Lua scripts over a poll-driven host",
		Long: `luasync - run Lua scripts whose async builtins suspend the script
until the host operation completes.

Scripts see the async table:
  async.sleep(seconds)
  async.readfile(path)
  async.readfiles({paths})
  async.http_get(url)
  async.now()

Examples:
  luasync run script.lua arg1 arg2
  luasync run --timeout 5s --output yaml script.lua
  luasync run --config luasync.toml script.lua`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newRunCmd(opts))
	cmd.AddCommand(newVersionCmd(opts))
	return cmd
}

// logger returns the diagnostic logger writing to w.
// Call tracing is shown at debug level with --verbose.
func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
