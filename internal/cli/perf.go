// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// perf.go — a small load tool: concurrent put/get rounds on a worker pool,
// reporting throughput and, optionally, the client's metrics.

package cli

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/spf13/cobra"
)

const perfKeyPrefix = "__perf"

// perfResult is the outcome of one round.
type perfResult struct {
	Name    string
	Ops     int
	Failed  int64
	Elapsed time.Duration
}

func (r perfResult) String() string {
	rate := 0.0
	if r.Elapsed > 0 {
		rate = float64(r.Ops) / r.Elapsed.Seconds()
	}
	return fmt.Sprintf("%-6s %8d ops %12s %12.0f ops/s %6d failed",
		r.Name, r.Ops, r.Elapsed.Round(time.Microsecond), rate, r.Failed)
}

func (a *app) perfCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "perf",
		Short: "Performance testing tool for the configured store",
		RunE:  a.runPerf,
	}
	key := "requests"
	cmd.Flags().Int(key, 10000, WrapString("Operations per round"))
	key = "workers"
	cmd.Flags().Int(key, 10, WrapString("Number of concurrent workers"))
	key = "keys"
	cmd.Flags().Int(key, 100, WrapString("How many different keys to use"))
	key = "value-size"
	cmd.Flags().Int(key, 64, WrapString("Size of each stored value in bytes"))
	key = "metrics"
	cmd.Flags().Bool(key, false, WrapString("Print the collected metrics in Prometheus text format"))
	return cmd
}

func (a *app) runPerf(cmd *cobra.Command, _ []string) error {
	requests := a.v.GetInt("requests")
	workers := a.v.GetInt("workers")
	keys := a.v.GetInt("keys")
	if requests <= 0 || workers <= 0 || keys <= 0 {
		return fmt.Errorf("requests, workers and keys must be positive")
	}
	value := strings.Repeat("x", a.v.GetInt("value-size"))
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	wp, err := ants.NewPool(workers, ants.WithPanicHandler(func(p any) {
		a.log.Sugar().Errorw("perf: worker panic", "panic", p)
	}))
	if err != nil {
		return err
	}
	defer wp.Release()

	keyOf := func(i int) string { return fmt.Sprintf("%s:%d", perfKeyPrefix, i%keys) }
	rounds := []struct {
		name string
		fn   func(context.Context, int) error
	}{
		{"put", func(ctx context.Context, i int) error { return a.client.Put(ctx, keyOf(i), value) }},
		{"get", func(ctx context.Context, i int) error {
			_, err := a.client.Get(ctx, keyOf(i))
			return err
		}},
	}

	fmt.Fprintf(out, "perf: %d requests per round, %d workers, %d keys\n", requests, workers, keys)
	for _, r := range rounds {
		res := runRound(ctx, wp, r.name, requests, r.fn)
		fmt.Fprintln(out, res)
	}

	for i := 0; i < keys && i < requests; i++ {
		if err := a.client.Delete(ctx, keyOf(i)); err != nil {
			a.log.Sugar().Warnw("perf: cleanup failed", "key", keyOf(i), "err", err)
		}
	}

	if a.v.GetBool("metrics") {
		fmt.Fprintln(out)
		a.metrics.WritePrometheus(out)
	}
	return nil
}

func runRound(ctx context.Context, wp *ants.Pool, name string, n int, fn func(context.Context, int) error) perfResult {
	var wg sync.WaitGroup
	var failed atomic.Int64
	start := time.Now()
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		err := wp.Submit(func() {
			defer wg.Done()
			if err := fn(ctx, i); err != nil {
				failed.Add(1)
			}
		})
		if err != nil {
			wg.Done()
			failed.Add(1)
		}
	}
	wg.Wait()
	return perfResult{Name: name, Ops: n, Failed: failed.Load(), Elapsed: time.Since(start)}
}
