// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package ftl_test

import (
	"testing"

	"github.com/datawire/dlib/dlog"
	"github.com/stretchr/testify/assert"

	"git.lukeshu.com/nandsim/lib/ftl"
	"git.lukeshu.com/nandsim/lib/nand"
)

func testParams() nand.Params {
	p := nand.Params{
		SecSize:   512,
		SecsPerPg: 2,
		PgsPerBlk: 8,
		BlksPerPl: 8,
		PlsPerLUN: 1,
		LUNsPerCh: 2,
		Chs:       2,

		PgRdLat:   40000,
		PgWrLat:   200000,
		BlkErLat:  2000000,
		ChXferLat: 0,

		GCThresPcent:     0.5,
		GCThresPcentHigh: 0.75,
		EnableGCDelay:    true,

		EntsPerPg: 16,
	}
	p.Derive()
	return p
}

func testSSD(params nand.Params) *ftl.SSD {
	ssd := ftl.New(params)
	ssd.Array.Now = func() int64 { return 0 }
	return ssd
}

// writePage submits a single-page host write for lpn.
func writePage(t *testing.T, ssd *ftl.SSD, lpn ftl.LPN) int64 {
	t.Helper()
	ctx := dlog.NewTestContext(t, false)
	p := ssd.Params()
	return ssd.Write(ctx, &ftl.Request{
		Opcode: ftl.OpWrite,
		SLBA:   uint64(lpn) * uint64(p.SecsPerPg),
		NLB:    p.SecsPerPg,
	})
}

func readPage(t *testing.T, ssd *ftl.SSD, lpn ftl.LPN) int64 {
	t.Helper()
	ctx := dlog.NewTestContext(t, false)
	p := ssd.Params()
	return ssd.Read(ctx, &ftl.Request{
		Opcode: ftl.OpRead,
		SLBA:   uint64(lpn) * uint64(p.SecsPerPg),
		NLB:    p.SecsPerPg,
	})
}

func TestWriteThenRead(t *testing.T) {
	t.Parallel()
	p := testParams()
	ssd := testSSD(p)

	// The first write of lpn=0 misses the cache, but there is no
	// translation page to read yet, so the only charged command is
	// the program itself.
	lat := writePage(t, ssd, 0)
	assert.Equal(t, p.PgWrLat, lat)

	// Reading it back hits the cache; the read queues behind the
	// program on the same LUN.
	lat = readPage(t, ssd, 0)
	assert.Equal(t, p.PgWrLat+p.PgRdLat, lat)

	assert.Equal(t, uint64(2), ssd.Statistics.AccessCnt)
	assert.Equal(t, uint64(1), ssd.Statistics.CMTHitCnt)
	assert.Equal(t, uint64(1), ssd.Statistics.CMTMissCnt)
	assert.InDelta(t, 0.5, ssd.Statistics.HitRatio(), 1e-9)
}

func TestReadUnwritten(t *testing.T) {
	t.Parallel()
	ssd := testSSD(testParams())

	// A read of a page that was never written charges no command.
	lat := readPage(t, ssd, 3)
	assert.Equal(t, int64(0), lat)
	assert.Equal(t, uint64(1), ssd.Statistics.CMTMissCnt)
}

func TestRequestPastEnd(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, false)
	p := testParams()
	ssd := testSSD(p)

	assert.Panics(t, func() {
		ssd.Read(ctx, &ftl.Request{
			Opcode: ftl.OpRead,
			SLBA:   uint64(p.TotalSecs - 1),
			NLB:    2,
		})
	})
	assert.Panics(t, func() {
		ssd.Write(ctx, &ftl.Request{
			Opcode: ftl.OpWrite,
			SLBA:   uint64(p.TotalSecs),
			NLB:    1,
		})
	})
}

func TestCMTEviction(t *testing.T) {
	t.Parallel()
	p := testParams()
	ssd := testSSD(p)

	// One more distinct page than the cache holds.
	for lpn := ftl.LPN(0); lpn <= ftl.LPN(p.CMTSize); lpn++ {
		writePage(t, ssd, lpn)
	}

	assert.Equal(t, p.CMTSize, ssd.CMTUsedCount())
	assert.Equal(t, uint64(p.CMTSize+1), ssd.Statistics.CMTMissCnt)
	assert.Equal(t, uint64(0), ssd.Statistics.CMTHitCnt)

	// The evicted mapping is still correct, just no longer cached:
	// reading it back misses and re-fetches it.
	lat := readPage(t, ssd, 0)
	assert.Positive(t, lat)
	assert.Equal(t, uint64(p.CMTSize+2), ssd.Statistics.CMTMissCnt)
	assert.Equal(t, uint64(0), ssd.Statistics.CMTHitCnt)
}

func TestLineLifecycle(t *testing.T) {
	t.Parallel()
	p := testParams()
	ssd := testSSD(p)

	// Both write pointers hold a line from the start.
	spare := p.TotalLines - 2
	assert.Equal(t, spare, ssd.FreeLineCount())
	assert.Equal(t, 0, ssd.FullLineCount())
	assert.Equal(t, 0, ssd.VictimLineCount())

	// Fill exactly one data line with distinct pages.
	for lpn := ftl.LPN(0); lpn < ftl.LPN(p.PgsPerLine); lpn++ {
		writePage(t, ssd, lpn)
	}
	assert.Equal(t, 1, ssd.FullLineCount())
	assert.Equal(t, 0, ssd.VictimLineCount())
	assert.Equal(t, spare,
		ssd.FreeLineCount()+ssd.FullLineCount()+ssd.VictimLineCount())

	// Over-writing a page invalidates its old copy, demoting the
	// full line to a victim.
	writePage(t, ssd, 0)
	assert.Equal(t, 0, ssd.FullLineCount())
	assert.Equal(t, 1, ssd.VictimLineCount())
	assert.Equal(t, spare,
		ssd.FreeLineCount()+ssd.FullLineCount()+ssd.VictimLineCount())
}

func TestGCReclaims(t *testing.T) {
	t.Parallel()
	p := testParams()
	ssd := testSSD(p)

	// Repeatedly over-write a 2-line span.  The live data never
	// exceeds 2 lines, so garbage collection must keep the device
	// from running out of free lines no matter how long this runs.
	span := ftl.LPN(2 * p.PgsPerLine)
	for round := 0; round < 30; round++ {
		for lpn := ftl.LPN(0); lpn < span; lpn++ {
			writePage(t, ssd, lpn)
		}
		assert.Equal(t, p.TotalLines-2,
			ssd.FreeLineCount()+ssd.FullLineCount()+ssd.VictimLineCount())
	}

	assert.GreaterOrEqual(t, ssd.FreeLineCount(), 1)
	wear := ssd.Array.Wear()
	assert.Positive(t, wear.TotalEraseCnt)
	assert.LessOrEqual(t, wear.MinEraseCnt, wear.MaxEraseCnt)

	// Every page of the span still maps somewhere readable.
	for lpn := ftl.LPN(0); lpn < span; lpn++ {
		assert.Positive(t, readPage(t, ssd, lpn))
	}
}
