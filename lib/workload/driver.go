// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package workload

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/datawire/dlib/dgroup"
	"github.com/datawire/dlib/dlog"

	"git.lukeshu.com/nandsim/lib/containers"
	"git.lukeshu.com/nandsim/lib/ftl"
	"git.lukeshu.com/nandsim/lib/nand"
	"git.lukeshu.com/nandsim/lib/textui"
)

type runStats struct {
	portion textui.Portion[int]
}

// String implements fmt.Stringer.
func (s runStats) String() string {
	return textui.Sprintf("completed %v", s.portion)
}

var reqPool = containers.SyncPool[*ftl.Request]{
	New: func() *ftl.Request {
		return new(ftl.Request)
	},
}

// Run drives the device with the configured workload, and blocks
// until every request has completed or ctx is canceled.  It owns the
// device for the duration: it builds the rings, attaches them, and
// runs the worker loop itself.
func Run(ctx context.Context, ssd *ftl.SSD, cfg Config) (Results, error) {
	if err := cfg.check(ssd.Params()); err != nil {
		return Results{}, err
	}

	toFTL := make([]*ftl.Ring, cfg.Pollers)
	toPoller := make([]*ftl.Ring, cfg.Pollers)
	for i := range toFTL {
		toFTL[i] = ftl.NewRing(cfg.Depth)
		toPoller[i] = ftl.NewRing(cfg.Depth)
	}
	ssd.AttachRings(toFTL, toPoller)

	var cache *LRUCache[ftl.LPN, struct{}]
	if cfg.HostCachePgs > 0 {
		cache = &LRUCache[ftl.LPN, struct{}]{MaxLen: cfg.HostCachePgs}
	}

	var (
		retMu     sync.Mutex
		ret       Results
		completed atomic.Int64
	)

	grp := dgroup.NewGroup(ctx, dgroup.GroupConfig{
		ShutdownOnNonError: true,
	})
	grp.Go("ftl", func(ctx context.Context) error {
		err := ssd.Run(ctx)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		return err
	})
	grp.Go("pollers", func(ctx context.Context) error {
		grp := dgroup.NewGroup(ctx, dgroup.GroupConfig{})
		grp.Go("progress", func(ctx context.Context) error {
			progressWriter := textui.NewProgress[runStats](ctx, dlog.LogLevelInfo, textui.Tunable(1*time.Second))
			ticker := time.NewTicker(textui.Tunable(100 * time.Millisecond))
			defer ticker.Stop()
			var stats runStats
			stats.portion.D = cfg.NumOps
			for {
				stats.portion.N = int(completed.Load())
				progressWriter.Set(stats)
				if stats.portion.N >= cfg.NumOps {
					break
				}
				select {
				case <-ctx.Done():
					progressWriter.Done()
					return nil
				case <-ticker.C:
				}
			}
			progressWriter.Done()
			return nil
		})
		perPoller := cfg.NumOps / cfg.Pollers
		for i := 0; i < cfg.Pollers; i++ {
			i := i
			numOps := perPoller
			if i == 0 {
				numOps += cfg.NumOps % cfg.Pollers
			}
			grp.Go(fmt.Sprintf("poller-%d", i), func(ctx context.Context) error {
				res, err := runPoller(ctx, pollerArgs{
					params:    ssd.Params(),
					cfg:       cfg,
					cache:     cache,
					sq:        toFTL[i],
					cq:        toPoller[i],
					idx:       i,
					numOps:    numOps,
					completed: &completed,
				})
				retMu.Lock()
				ret.absorb(res)
				retMu.Unlock()
				return err
			})
		}
		return grp.Wait()
	})
	if err := grp.Wait(); err != nil {
		return ret, err
	}
	return ret, nil
}

type pollerArgs struct {
	params    *nand.Params
	cfg       Config
	cache     *LRUCache[ftl.LPN, struct{}]
	sq, cq    *ftl.Ring
	idx       int
	numOps    int
	completed *atomic.Int64
}

func runPoller(ctx context.Context, args pollerArgs) (Results, error) {
	ctx = dlog.WithField(ctx, "nandsim.workload.poller", args.idx)

	p := args.params
	cfg := args.cfg
	rng := rand.New(rand.NewSource(cfg.Seed + int64(args.idx)))

	spanSecs := uint64(cfg.SpanPgs) * uint64(p.SecsPerPg)
	reqSecs := uint64(cfg.ReqSecs)
	var cursor uint64

	var res Results
	submitted, done, inflight := 0, 0, 0

	idle := time.NewTicker(50 * time.Microsecond)
	defer idle.Stop()

	for done < args.numOps {
		progressed := false

		for {
			req, ok := args.cq.Dequeue()
			if !ok {
				break
			}
			progressed = true
			done++
			inflight--
			args.completed.Add(1)
			switch req.Opcode {
			case ftl.OpRead:
				res.Reads++
				res.ReadLat.Observe(req.ReqLat)
				if args.cache != nil {
					addToCache(args.cache, p, req.SLBA, req.NLB)
				}
			case ftl.OpWrite:
				res.Writes++
				res.WriteLat.Observe(req.ReqLat)
				if args.cache != nil {
					addToCache(args.cache, p, req.SLBA, req.NLB)
				}
			case ftl.OpDSM:
				res.Trims++
			}
			*req = ftl.Request{}
			reqPool.Put(req)
		}

		for submitted < args.numOps && inflight < cfg.Depth {
			var slba uint64
			if cfg.Seq {
				if cursor+reqSecs > spanSecs {
					cursor = 0
				}
				slba = cursor
				cursor += reqSecs
			} else {
				slba = uint64(rng.Int63n(int64(spanSecs-reqSecs) + 1))
			}

			var opcode ftl.Opcode
			switch pct := rng.Intn(100); {
			case pct < cfg.ReadPct:
				opcode = ftl.OpRead
			case pct < cfg.ReadPct+cfg.DSMPct:
				opcode = ftl.OpDSM
			default:
				opcode = ftl.OpWrite
			}

			if opcode == ftl.OpRead && args.cache != nil && inCache(args.cache, p, slba, int(reqSecs)) {
				res.Reads++
				res.HostHits++
				submitted++
				done++
				args.completed.Add(1)
				progressed = true
				continue
			}

			req, _ := reqPool.Get()
			req.Opcode = opcode
			req.SLBA = slba
			req.NLB = int(reqSecs)
			req.STime = 0
			if !args.sq.Enqueue(req) {
				*req = ftl.Request{}
				reqPool.Put(req)
				break
			}
			submitted++
			inflight++
			progressed = true
		}

		if !progressed {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-idle.C:
			}
		} else if err := ctx.Err(); err != nil {
			return res, err
		}
	}

	dlog.Debugf(ctx, "workload: poller finished %d request(s)", done)
	return res, nil
}

func reqLPNs(p *nand.Params, slba uint64, nlb int) (startLPN, endLPN ftl.LPN) {
	startLPN = ftl.LPN(slba / uint64(p.SecsPerPg))
	endLPN = ftl.LPN((slba + uint64(nlb) - 1) / uint64(p.SecsPerPg))
	return startLPN, endLPN
}

func inCache(cache *LRUCache[ftl.LPN, struct{}], p *nand.Params, slba uint64, nlb int) bool {
	startLPN, endLPN := reqLPNs(p, slba, nlb)
	for lpn := startLPN; lpn <= endLPN; lpn++ {
		if !cache.Contains(lpn) {
			return false
		}
	}
	return true
}

func addToCache(cache *LRUCache[ftl.LPN, struct{}], p *nand.Params, slba uint64, nlb int) {
	startLPN, endLPN := reqLPNs(p, slba, nlb)
	for lpn := startLPN; lpn <= endLPN; lpn++ {
		cache.Add(lpn, struct{}{})
	}
}
