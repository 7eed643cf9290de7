// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package ftl

import (
	"fmt"

	"git.lukeshu.com/nandsim/lib/nand"
)

// writePointer tracks where the next page of a write stream lands.
// Pages stripe across channels first, then LUNs, then advance to the
// next page of the line, so that consecutive writes land on distinct
// LUNs.
//
// The data stream and the translation stream each have their own
// writePointer; both advance by the same algorithm.
type writePointer struct {
	curline *Line

	ch, lun, pl, blk, pg int
}

func (s *SSD) initWritePointer(wp *writePointer, typ LineType) {
	curline := s.lm.takeFreeLine()
	if curline == nil {
		panic(fmt.Errorf("ftl: no free line to initialize the %v write pointer", typ))
	}
	curline.Type = typ

	// curline is always our next-to-write super-block
	*wp = writePointer{
		curline: curline,
		blk:     curline.ID,
	}
}

// currentPage returns the page the write pointer points at, without
// advancing.
func (wp *writePointer) currentPage() nand.PPA {
	return nand.NewPPA(wp.ch, wp.lun, wp.pl, wp.blk, wp.pg)
}

// advanceWritePointer moves the write pointer past the page that was
// just allocated.  When the current line fills up, the line retires
// to the full list (no invalid pages yet) or straight to the victim
// queue (already partially over-written), and a fresh free line is
// claimed.
//
// Running out of free lines entirely is fatal: GC must always be able
// to keep ahead of the write streams.
func (s *SSD) advanceWritePointer(wp *writePointer, typ LineType) {
	p := s.Params()
	lm := &s.lm

	checkAddr(wp.ch, p.Chs)
	wp.ch++
	if wp.ch != p.Chs {
		return
	}
	wp.ch = 0
	checkAddr(wp.lun, p.LUNsPerCh)
	wp.lun++
	if wp.lun != p.LUNsPerCh {
		return
	}
	wp.lun = 0
	// go to next page in the block
	checkAddr(wp.pg, p.PgsPerBlk)
	wp.pg++
	if wp.pg != p.PgsPerBlk {
		return
	}
	wp.pg = 0

	// move current line to the full list or the victim queue
	switch {
	case wp.curline.VPC == p.PgsPerLine:
		if wp.curline.IPC != 0 {
			panic(fmt.Errorf("ftl: line %d is full but has ipc=%d", wp.curline.ID, wp.curline.IPC))
		}
		wp.curline.listEnt = lm.full.Store(wp.curline)
	default:
		if wp.curline.VPC < 0 || wp.curline.VPC >= p.PgsPerLine {
			panic(fmt.Errorf("ftl: line %d has vpc=%d out of range", wp.curline.ID, wp.curline.VPC))
		}
		// there must be some invalid pages in this line
		if wp.curline.IPC == 0 {
			panic(fmt.Errorf("ftl: line %d is not full but has ipc=0", wp.curline.ID))
		}
		lm.victims.Insert(wp.curline)
	}

	// current line is used up, pick another empty line
	wp.curline = lm.takeFreeLine()
	if wp.curline == nil {
		panic(fmt.Errorf("ftl: out of free lines advancing the %v write pointer", typ))
	}
	wp.curline.Type = typ
	wp.blk = wp.curline.ID
	checkAddr(wp.blk, p.BlksPerPl)
}

func checkAddr(a, max int) {
	if a < 0 || a >= max {
		panic(fmt.Errorf("ftl: address component %d out of range [0,%d)", a, max))
	}
}
