// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package workload drives a simulated device with a synthetic host
// workload: a set of pollers submit reads, writes, and trims through
// the submission rings, drain the completion rings, and aggregate the
// completion latencies.
package workload

import (
	"fmt"

	"git.lukeshu.com/nandsim/lib/nand"
)

// Config describes a synthetic workload.
type Config struct {
	NumOps  int // total requests, across all pollers
	Pollers int
	Depth   int // per-poller ring size and in-flight cap

	ReadPct int  // percent of requests that are reads
	DSMPct  int  // percent of requests that are trims; the rest are writes
	Seq     bool // sequential rather than uniformly random addressing
	SpanPgs int  // logical pages addressed; 0 means the whole device
	ReqSecs int  // sectors per request

	Seed int64

	HostCachePgs int // host page cache capacity; 0 disables it
}

// DefaultConfig returns the workload that `nandsim run` uses when no
// flags are given.
func DefaultConfig() Config {
	return Config{
		NumOps:  100000,
		Pollers: 2,
		Depth:   1024,

		ReadPct: 50,
		DSMPct:  0,
		Seq:     false,
		SpanPgs: 0,
		ReqSecs: 8,

		Seed: 1,

		HostCachePgs: 0,
	}
}

func (cfg *Config) check(p *nand.Params) error {
	switch {
	case cfg.NumOps <= 0:
		return fmt.Errorf("workload: NumOps=%v must be positive", cfg.NumOps)
	case cfg.Pollers <= 0:
		return fmt.Errorf("workload: Pollers=%v must be positive", cfg.Pollers)
	case cfg.Depth <= 0:
		return fmt.Errorf("workload: Depth=%v must be positive", cfg.Depth)
	case cfg.ReadPct < 0 || cfg.DSMPct < 0 || cfg.ReadPct+cfg.DSMPct > 100:
		return fmt.Errorf("workload: ReadPct=%v and DSMPct=%v must be non-negative and sum to at most 100",
			cfg.ReadPct, cfg.DSMPct)
	case cfg.ReqSecs <= 0:
		return fmt.Errorf("workload: ReqSecs=%v must be positive", cfg.ReqSecs)
	case cfg.HostCachePgs < 0:
		return fmt.Errorf("workload: HostCachePgs=%v must be non-negative", cfg.HostCachePgs)
	}
	if cfg.SpanPgs == 0 {
		cfg.SpanPgs = p.TotalPgs
	}
	if cfg.SpanPgs < 0 || cfg.SpanPgs > p.TotalPgs {
		return fmt.Errorf("workload: SpanPgs=%v must be in [1,%v]", cfg.SpanPgs, p.TotalPgs)
	}
	if cfg.ReqSecs > cfg.SpanPgs*p.SecsPerPg {
		return fmt.Errorf("workload: ReqSecs=%v does not fit in a span of %v pages", cfg.ReqSecs, cfg.SpanPgs)
	}
	return nil
}
