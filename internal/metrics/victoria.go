// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// victoria.go — Recorder backed by a private VictoriaMetrics set.

package metrics

import (
	"fmt"
	"io"
	"time"

	vm "github.com/VictoriaMetrics/metrics"
)

// Victoria records metrics into a private VictoriaMetrics set so several
// clients in one process never share counters.
type Victoria struct {
	set      *vm.Set
	prefix   string
	inUse    *vm.Counter
	acquired *vm.Counter
	released *vm.Counter
}

// NewVictoria creates a recorder whose metric names start with prefix
// (e.g. "kvpool").
func NewVictoria(prefix string) *Victoria {
	if prefix == "" {
		prefix = "kvpool"
	}
	set := vm.NewSet()
	return &Victoria{
		set:      set,
		prefix:   prefix,
		inUse:    set.NewCounter(prefix + "_leases_in_use"),
		acquired: set.NewCounter(prefix + "_leases_acquired_total"),
		released: set.NewCounter(prefix + "_leases_released_total"),
	}
}

func (v *Victoria) RecordLatency(op string, db int, d time.Duration) {
	v.set.GetOrCreateCounter(fmt.Sprintf(`%s_ops_total{op=%q,db="%d"}`, v.prefix, op, db)).Inc()
	v.set.GetOrCreateHistogram(fmt.Sprintf(`%s_op_duration_seconds{op=%q}`, v.prefix, op)).Update(d.Seconds())
}

func (v *Victoria) RecordMiss(op string) {
	v.set.GetOrCreateCounter(fmt.Sprintf(`%s_misses_total{op=%q}`, v.prefix, op)).Inc()
}

func (v *Victoria) RecordError(op, kind string) {
	v.set.GetOrCreateCounter(fmt.Sprintf(`%s_errors_total{op=%q,kind=%q}`, v.prefix, op, kind)).Inc()
}

func (v *Victoria) RecordLease(acquired bool) {
	if acquired {
		v.acquired.Inc()
		v.inUse.Inc()
		return
	}
	v.released.Inc()
	v.inUse.Dec()
}

// InUse returns the number of leases currently held.
func (v *Victoria) InUse() uint64 { return v.inUse.Get() }

// WritePrometheus writes all recorded metrics in Prometheus text format.
func (v *Victoria) WritePrometheus(w io.Writer) {
	v.set.WritePrometheus(w)
}
