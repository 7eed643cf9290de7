// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package ftl

import (
	"context"
	"time"

	"github.com/datawire/dlib/dlog"
)

// ringPair exists so that AttachRings can publish both slices with
// one atomic store, with Run started before the front end has built
// its rings.
type ringPair struct {
	toFTL    []*Ring
	toPoller []*Ring
}

// AttachRings hands the worker loop its submission rings (one per
// poller) and the matching completion rings.  It must be called
// exactly once; Run waits for it.
func (s *SSD) AttachRings(toFTL, toPoller []*Ring) {
	if len(toFTL) != len(toPoller) {
		panic("ftl: AttachRings: submission and completion ring counts differ")
	}
	s.rings.Store(&ringPair{toFTL: toFTL, toPoller: toPoller})
}

// Run is the worker loop: a single goroutine that owns all FTL state.
// It drains the submission rings round-robin, services each request,
// pushes it to the matching completion ring, and squeezes in
// background GC between requests.  It returns when ctx is canceled.
func (s *SSD) Run(ctx context.Context) error {
	var rings *ringPair
	for {
		if rings, _ = s.rings.Load().(*ringPair); rings != nil {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	s.toFTL = rings.toFTL
	s.toPoller = rings.toPoller

	dlog.Infof(ctx, "ftl: worker running with %d ring pair(s)", len(s.toFTL))

	idle := time.NewTicker(50 * time.Microsecond)
	defer idle.Stop()

	for {
		busy := false
		for i := range s.toFTL {
			req, ok := s.toFTL[i].Dequeue()
			if !ok {
				continue
			}
			busy = true

			var lat int64
			switch req.Opcode {
			case OpWrite:
				lat = s.Write(ctx, req)
			case OpRead:
				lat = s.Read(ctx, req)
			case OpDSM:
				lat = 0
			default:
				// Drop it: nothing to do, and no
				// completion either.
				dlog.Errorf(ctx, "ftl: dropping request with unknown opcode %v", req.Opcode)
				continue
			}

			req.ReqLat = lat
			req.ExpireTime += lat

			if !s.toPoller[i].Enqueue(req) {
				dlog.Errorf(ctx, "ftl: completion ring %d is full; dropping completion", i)
			}

			// clean one line if needed (in the background)
			if s.shouldGC() {
				s.doGC(ctx, false)
			}
		}
		if !busy {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-idle.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
	}
}
