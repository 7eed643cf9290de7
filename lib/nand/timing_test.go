// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package nand_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"git.lukeshu.com/nandsim/lib/nand"
)

func testArray(p nand.Params) *nand.Array {
	a := nand.NewArray(p)
	a.Now = func() int64 { return 0 }
	return a
}

func TestAdvanceStatusRead(t *testing.T) {
	t.Parallel()
	a := testArray(testParams())
	ppa := nand.NewPPA(0, 0, 0, 0, 0)

	lat := a.AdvanceStatus(ppa, nand.Cmd{Op: nand.CmdRead, Type: nand.UserIO})
	assert.Equal(t, a.Params.PgRdLat, lat)

	// A second command on the same LUN waits for the first.
	lat = a.AdvanceStatus(ppa, nand.Cmd{Op: nand.CmdRead, Type: nand.UserIO})
	assert.Equal(t, 2*a.Params.PgRdLat, lat)

	// A command on another LUN does not.
	other := nand.NewPPA(0, 1, 0, 0, 0)
	lat = a.AdvanceStatus(other, nand.Cmd{Op: nand.CmdRead, Type: nand.UserIO})
	assert.Equal(t, a.Params.PgRdLat, lat)
}

func TestAdvanceStatusWriteErase(t *testing.T) {
	t.Parallel()
	a := testArray(testParams())
	ppa := nand.NewPPA(1, 0, 0, 3, 0)

	lat := a.AdvanceStatus(ppa, nand.Cmd{Op: nand.CmdWrite, Type: nand.UserIO})
	assert.Equal(t, a.Params.PgWrLat, lat)

	lat = a.AdvanceStatus(ppa, nand.Cmd{Op: nand.CmdErase, Type: nand.GCIO})
	assert.Equal(t, a.Params.PgWrLat+a.Params.BlkErLat, lat)
}

func TestAdvanceStatusSTime(t *testing.T) {
	t.Parallel()
	a := testArray(testParams())
	ppa := nand.NewPPA(0, 0, 0, 0, 0)

	// The latency is measured from the submission time, so a
	// command submitted while the LUN is busy pays the queueing
	// delay too.
	lat := a.AdvanceStatus(ppa, nand.Cmd{Op: nand.CmdRead, STime: 1000})
	assert.Equal(t, a.Params.PgRdLat, lat)
	lat = a.AdvanceStatus(ppa, nand.Cmd{Op: nand.CmdRead, STime: 2000})
	assert.Equal(t, (1000+a.Params.PgRdLat+a.Params.PgRdLat)-2000, lat)
}

func TestAdvanceStatusChXfer(t *testing.T) {
	t.Parallel()
	p := testParams()
	p.ChXferLat = 1000
	a := testArray(p)

	// Read data crosses the channel after the cell read.
	lat := a.AdvanceStatus(nand.NewPPA(0, 0, 0, 0, 0), nand.Cmd{Op: nand.CmdRead})
	assert.Equal(t, p.PgRdLat+p.ChXferLat, lat)

	// Write data crosses the channel before the program starts.
	lat = a.AdvanceStatus(nand.NewPPA(1, 0, 0, 0, 0), nand.Cmd{Op: nand.CmdWrite})
	assert.Equal(t, p.ChXferLat+p.PgWrLat, lat)

	// Two reads on distinct LUNs of one channel serialize on the
	// channel transfer but not on the cell read.
	a = testArray(p)
	lat = a.AdvanceStatus(nand.NewPPA(0, 0, 0, 0, 0), nand.Cmd{Op: nand.CmdRead})
	assert.Equal(t, p.PgRdLat+p.ChXferLat, lat)
	lat = a.AdvanceStatus(nand.NewPPA(0, 1, 0, 0, 0), nand.Cmd{Op: nand.CmdRead})
	assert.Equal(t, p.PgRdLat+2*p.ChXferLat, lat)
}

func TestAdvanceStatusUnknownOp(t *testing.T) {
	t.Parallel()
	a := testArray(testParams())
	assert.Panics(t, func() {
		a.AdvanceStatus(nand.NewPPA(0, 0, 0, 0, 0), nand.Cmd{Op: nand.CmdOp(99)})
	})
}

func TestWear(t *testing.T) {
	t.Parallel()
	p := testParams()
	a := testArray(p)

	w := a.Wear()
	assert.Equal(t, nand.WearStats{}, w)

	a.BlockAt(nand.NewPPA(0, 0, 0, 0, 0)).EraseCnt = 3
	a.BlockAt(nand.NewPPA(1, 1, 0, 7, 0)).EraseCnt = 1
	w = a.Wear()
	assert.Equal(t, 0, w.MinEraseCnt)
	assert.Equal(t, 3, w.MaxEraseCnt)
	assert.Equal(t, int64(4), w.TotalEraseCnt)
	assert.InDelta(t, 4.0/float64(p.TotalBlks), w.MeanEraseCnt(&p), 1e-9)
}
