// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package asynclib installs the async builtin table into a Lua state.
//
// Scripts running under [luasync.CallAsync] call these functions like
// ordinary ones; the calling coroutine yields to the host until the
// operation completes.
//
//	async.sleep(seconds)
//	async.readfile(path)       -> contents
//	async.readfiles({paths})   -> {contents}, in input order
//	async.http_get(url)        -> status, body
//	async.now()                -> seconds since the Unix epoch
package asynclib

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"runtime"
	"time"

	"code.hybscloud.com/luasync"
	lua "github.com/yuin/gopher-lua"
	"golang.org/x/sync/errgroup"
)

// TableName is the global name of the installed table.
const TableName = "async"

// maxSleepSeconds is the longest sleep a time.Duration can hold.
const maxSleepSeconds = float64(math.MaxInt64 / int64(time.Second))

type config struct {
	ctx    context.Context
	client *http.Client
	jobs   int
	logger *slog.Logger
}

// Option configures Open.
type Option func(*config)

// WithContext bounds file reads and HTTP requests by ctx.
func WithContext(ctx context.Context) Option {
	return func(c *config) { c.ctx = ctx }
}

// WithHTTPClient sets the client used by http_get.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) { c.client = client }
}

// WithJobs limits the concurrent reads of readfiles. Zero or less means
// GOMAXPROCS.
func WithJobs(n int) Option {
	return func(c *config) { c.jobs = n }
}

// WithLogger sets the logger for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

type lib struct {
	config
}

// Open installs the async table as a global of b's Lua state.
func Open(b *luasync.Bridge, opts ...Option) error {
	l := &lib{config{
		ctx:    context.Background(),
		client: http.DefaultClient,
		logger: slog.Default(),
	}}
	for _, opt := range opts {
		opt(&l.config)
	}
	if l.jobs <= 0 {
		l.jobs = runtime.GOMAXPROCS(0)
	}

	tb := b.L.NewTable()
	sleep, err := b.CreateAsyncFunction(l.sleep)
	if err != nil {
		return err
	}
	tb.RawSetString("sleep", sleep)

	readfile, err := luasync.AsyncFunction(b, l.readFile)
	if err != nil {
		return err
	}
	tb.RawSetString("readfile", readfile)

	readfiles, err := luasync.AsyncFunction(b, l.readFiles)
	if err != nil {
		return err
	}
	tb.RawSetString("readfiles", readfiles)

	httpGet, err := luasync.AsyncFunction(b, l.httpGet)
	if err != nil {
		return err
	}
	tb.RawSetString("http_get", httpGet)

	tb.RawSetString("now", b.L.NewFunction(now))
	b.L.SetGlobal(TableName, tb)
	return nil
}

// sleep returns no values once the given number of seconds has elapsed.
func (l *lib) sleep(L *lua.LState, args []lua.LValue) luasync.Future[[]lua.LValue] {
	secs := float64(L.CheckNumber(1))
	if secs < 0 {
		L.ArgError(1, "negative duration")
	}
	if !(secs <= maxSleepSeconds) {
		L.ArgError(1, "duration out of range")
	}
	d := time.Duration(secs * float64(time.Second))
	return luasync.After[[]lua.LValue](d, nil)
}

func (l *lib) readFile(path string) luasync.Future[string] {
	return luasync.Go(func() (string, error) {
		if err := l.ctx.Err(); err != nil {
			return "", err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	})
}

func (l *lib) readFiles(paths []string) luasync.Future[[]string] {
	return luasync.Go(func() ([]string, error) {
		results := make([]string, len(paths))
		g, gctx := errgroup.WithContext(l.ctx)
		g.SetLimit(max(1, min(l.jobs, len(paths))))
		for i, path := range paths {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				results[i] = string(data)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return results, nil
	})
}

// httpGet returns the status code and body of a GET of url.
func (l *lib) httpGet(url string) luasync.Future[[]lua.LValue] {
	return luasync.Go(func() ([]lua.LValue, error) {
		req, err := http.NewRequestWithContext(l.ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		start := time.Now()
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read body of %s: %w", url, err)
		}
		l.logger.Debug("asynclib: http_get", "url", url, "status", resp.StatusCode, "elapsed", time.Since(start))
		return []lua.LValue{lua.LNumber(resp.StatusCode), lua.LString(body)}, nil
	})
}

func now(L *lua.LState) int {
	L.Push(lua.LNumber(float64(time.Now().UnixNano()) / float64(time.Second)))
	return 1
}
