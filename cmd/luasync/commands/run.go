// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"
	lua "github.com/yuin/gopher-lua"

	"code.hybscloud.com/luasync"
	"code.hybscloud.com/luasync/asynclib"
)

type runOptions struct {
	root       *rootOptions
	configPath string
	timeout    time.Duration
	output     string
	jobs       int
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{root: root}
	cmd := &cobra.Command{
		Use:   "run <script.lua> [args...]",
		Short: "Run a Lua script",
		Long: `Run a Lua script as an async call and print its results.

The script receives the remaining arguments as strings through '...'.
Its return values are printed as a single value, or as a list when there
are several.

Output formats:
  json     - indented JSON (default)
  yaml     - YAML
  msgpack  - raw MessagePack bytes`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.configPath != "" {
				cfg, err := LoadConfig(opts.configPath)
				if err != nil {
					return err
				}
				opts.apply(cmd, cfg)
				return opts.run(cmd, args[0], args[1:], cfg.Globals)
			}
			return opts.run(cmd, args[0], args[1:], nil)
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "", "config file path (.yaml, .yml or .toml)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "abort the run after this duration (0 means no limit)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "json", "output format: json, yaml, msgpack")
	cmd.Flags().IntVar(&opts.jobs, "jobs", 0, "concurrent reads of async.readfiles (0 means GOMAXPROCS)")
	return cmd
}

// apply fills the options not set on the command line from cfg.
func (o *runOptions) apply(cmd *cobra.Command, cfg *Config) {
	flags := cmd.Flags()
	if !flags.Changed("timeout") {
		// validated by LoadConfig
		o.timeout, _ = cfg.timeout()
	}
	if !flags.Changed("output") && cfg.Output != "" {
		o.output = cfg.Output
	}
	if !flags.Changed("jobs") && cfg.Jobs != 0 {
		o.jobs = cfg.Jobs
	}
}

func (o *runOptions) run(cmd *cobra.Command, script string, scriptArgs []string, globals map[string]any) error {
	write, err := outputWriter(o.output)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	logger := o.root.logger(cmd.ErrOrStderr())
	L := lua.NewState()
	defer L.Close()
	b, err := luasync.New(L, luasync.WithLogger(logger))
	if err != nil {
		return err
	}
	err = asynclib.Open(b,
		asynclib.WithContext(ctx),
		asynclib.WithJobs(o.jobs),
		asynclib.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	for name, v := range globals {
		lv, err := luasync.Encode(L, v)
		if err != nil {
			return fmt.Errorf("global %s: %w", name, err)
		}
		L.SetGlobal(name, lv)
	}

	fn, err := L.LoadFile(script)
	if err != nil {
		return fmt.Errorf("load %s: %w", script, err)
	}
	args := make([]any, len(scriptArgs))
	for i, a := range scriptArgs {
		args[i] = a
	}

	start := time.Now()
	values, err := luasync.BlockContext(ctx, luasync.CallAsync[[]lua.LValue](b, fn, args...))
	if err != nil {
		return fmt.Errorf("run %s: %w", script, err)
	}
	logger.Debug("luasync: script finished", "script", script, "results", len(values), "elapsed", time.Since(start))
	return write(cmd.OutOrStdout(), results(values))
}

// results converts script return values for output.
func results(values []lua.LValue) any {
	if len(values) == 1 {
		return plain(luasync.GoValue(values[0]))
	}
	list := make([]any, len(values))
	for i, v := range values {
		list[i] = plain(luasync.GoValue(v))
	}
	return list
}

// plain replaces values without a data representation, such as
// functions, by their Lua string form.
func plain(v any) any {
	switch v := v.(type) {
	case []any:
		for i := range v {
			v[i] = plain(v[i])
		}
		return v
	case map[string]any:
		for k := range v {
			v[k] = plain(v[k])
		}
		return v
	case lua.LValue:
		return v.String()
	}
	return v
}

type writeFunc func(w io.Writer, v any) error

func outputWriter(format string) (writeFunc, error) {
	switch format {
	case "json":
		return func(w io.Writer, v any) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		}, nil
	case "yaml":
		return func(w io.Writer, v any) error {
			data, err := yaml.Marshal(v)
			if err != nil {
				return err
			}
			_, err = w.Write(data)
			return err
		}, nil
	case "msgpack":
		return func(w io.Writer, v any) error {
			return msgpack.NewEncoder(w).Encode(v)
		}, nil
	}
	return nil, fmt.Errorf("unsupported output format %q (must be json, yaml or msgpack)", format)
}
