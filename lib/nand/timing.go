// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package nand

import (
	"fmt"
	"time"
)

// CmdOp is a NAND operation.
type CmdOp uint8

const (
	CmdRead CmdOp = iota
	CmdWrite
	CmdErase
)

// IOType distinguishes host traffic from GC traffic; it exists so
// that timing policy could treat them differently.
type IOType uint8

const (
	UserIO IOType = iota
	GCIO
)

// Cmd is a command submitted to the array for timing purposes.
//
// STime is the submission time in nanoseconds; an STime of zero means
// "now" and is substituted with the array's monotonic clock.
type Cmd struct {
	Op    CmdOp
	Type  IOType
	STime int64
}

var monotonicBase = time.Now()

func monotonicNow() int64 {
	return int64(time.Since(monotonicBase))
}

// AdvanceStatus advances the per-LUN availability clock for the given
// command against the LUN addressed by ppa, and returns the command's
// simulated latency: the delay from the command's submission time to
// the LUN becoming available again.
//
// Commands on one LUN serialize against each other.  Commands on
// distinct LUNs do not, except that when ChXferLat > 0 their data
// transfers also serialize on the channel they share.
func (a *Array) AdvanceStatus(ppa PPA, cmd Cmd) int64 {
	p := &a.Params
	lun := a.LUNAt(ppa)

	cmdSTime := cmd.STime
	if cmdSTime == 0 {
		cmdSTime = a.Now()
	}

	nandSTime := max64(lun.NextAvailTime, cmdSTime)

	var lat int64
	switch cmd.Op {
	case CmdRead:
		lun.NextAvailTime = nandSTime + p.PgRdLat
		lat = lun.NextAvailTime - cmdSTime
		if p.ChXferLat > 0 {
			// Read data crosses the channel after the
			// cell read completes.
			ch := a.ChannelAt(ppa)
			chSTime := max64(ch.NextAvailTime, lun.NextAvailTime)
			ch.NextAvailTime = chSTime + p.ChXferLat
			lat = ch.NextAvailTime - cmdSTime
		}
	case CmdWrite:
		if p.ChXferLat > 0 {
			// Write data crosses the channel before the
			// program starts.
			ch := a.ChannelAt(ppa)
			chSTime := max64(ch.NextAvailTime, cmdSTime)
			ch.NextAvailTime = chSTime + p.ChXferLat
			nandSTime = max64(lun.NextAvailTime, ch.NextAvailTime)
		}
		lun.NextAvailTime = nandSTime + p.PgWrLat
		lat = lun.NextAvailTime - cmdSTime
	case CmdErase:
		lun.NextAvailTime = nandSTime + p.BlkErLat
		lat = lun.NextAvailTime - cmdSTime
	default:
		panic(fmt.Errorf("nand: unknown command op %d", cmd.Op))
	}

	return lat
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
