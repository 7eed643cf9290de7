// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package ftl

import (
	"fmt"

	"git.lukeshu.com/nandsim/lib/containers"
	"git.lukeshu.com/nandsim/lib/nand"
)

// LineType says which write stream a line belongs to.
type LineType uint8

const (
	LineNone LineType = iota
	LineData
	LineTrans
)

// String implements fmt.Stringer.
func (t LineType) String() string {
	switch t {
	case LineNone:
		return "none"
	case LineData:
		return "data"
	case LineTrans:
		return "trans"
	default:
		return "unknown"
	}
}

// Line is a super-block: block `ID` of every plane in the device.  A
// line is always in exactly one place: the free list, a write
// pointer, the victim queue, or the full list.
type Line struct {
	ID   int
	IPC  int // invalid page count, across the whole line
	VPC  int // valid page count, across the whole line
	Type LineType

	// pos is the line's 1-based position in the victim queue; 0
	// means "not in the victim queue".
	pos int

	// listEnt is the line's entry in the free or full list, while
	// it is on one.
	listEnt *containers.LinkedListEntry[*Line]
}

type lineMgmt struct {
	lines []Line

	free    containers.LinkedList[*Line]
	full    containers.LinkedList[*Line]
	victims containers.IndexedHeap[*Line]
}

func (lm *lineMgmt) init(totalLines int) {
	lm.lines = make([]Line, totalLines)
	lm.victims = containers.IndexedHeap[*Line]{
		Less:   func(a, b *Line) bool { return a.VPC < b.VPC },
		SetPos: func(line *Line, pos int) { line.pos = pos },
		GetPos: func(line *Line) int { return line.pos },
	}
	for i := range lm.lines {
		line := &lm.lines[i]
		line.ID = i
		line.listEnt = lm.free.Store(line)
	}
}

// takeFreeLine removes and returns the oldest free line, or nil if
// there are none left.
func (lm *lineMgmt) takeFreeLine() *Line {
	if lm.free.IsEmpty() {
		return nil
	}
	line := lm.free.Oldest().Value
	lm.free.Delete(line.listEnt)
	line.listEnt = nil
	return line
}

func (s *SSD) lineAt(ppa nand.PPA) *Line {
	return &s.lm.lines[ppa.Blk()]
}

// markPageValid transitions a free page to valid and updates the
// owning block's and line's counters.
func (s *SSD) markPageValid(ppa nand.PPA) {
	p := s.Params()

	pg := s.Array.PageAt(ppa)
	if pg.Status != nand.PageFree {
		panic(fmt.Errorf("ftl: markPageValid(%v): page is %v, not free", ppa, pg.Status))
	}
	pg.Status = nand.PageValid

	blk := s.Array.BlockAt(ppa)
	if blk.VPC < 0 || blk.VPC >= p.PgsPerBlk {
		panic(fmt.Errorf("ftl: markPageValid(%v): block vpc=%d out of range", ppa, blk.VPC))
	}
	blk.VPC++
	blk.WP++

	line := s.lineAt(ppa)
	if line.VPC < 0 || line.VPC >= p.PgsPerLine {
		panic(fmt.Errorf("ftl: markPageValid(%v): line vpc=%d out of range", ppa, line.VPC))
	}
	line.VPC++
}

// markPageInvalid transitions a valid page to invalid, updates the
// counters, and moves the owning line between the full list and the
// victim queue as needed.
func (s *SSD) markPageInvalid(ppa nand.PPA) {
	p := s.Params()
	lm := &s.lm

	pg := s.Array.PageAt(ppa)
	if pg.Status != nand.PageValid {
		panic(fmt.Errorf("ftl: markPageInvalid(%v): page is %v, not valid", ppa, pg.Status))
	}
	pg.Status = nand.PageInvalid

	blk := s.Array.BlockAt(ppa)
	if blk.IPC < 0 || blk.IPC >= p.PgsPerBlk {
		panic(fmt.Errorf("ftl: markPageInvalid(%v): block ipc=%d out of range", ppa, blk.IPC))
	}
	blk.IPC++
	if blk.VPC <= 0 || blk.VPC > p.PgsPerBlk {
		panic(fmt.Errorf("ftl: markPageInvalid(%v): block vpc=%d out of range", ppa, blk.VPC))
	}
	blk.VPC--

	line := s.lineAt(ppa)
	if line.IPC < 0 || line.IPC >= p.PgsPerLine {
		panic(fmt.Errorf("ftl: markPageInvalid(%v): line ipc=%d out of range", ppa, line.IPC))
	}
	wasFullLine := line.VPC == p.PgsPerLine
	line.IPC++
	if line.VPC <= 0 || line.VPC > p.PgsPerLine {
		panic(fmt.Errorf("ftl: markPageInvalid(%v): line vpc=%d out of range", ppa, line.VPC))
	}
	line.VPC--
	if line.pos != 0 {
		// Keep the victim queue ordered under over-writes.
		lm.victims.Fix(line)
	}

	if wasFullLine {
		// move line: "full" -> "victim"
		lm.full.Delete(line.listEnt)
		line.listEnt = nil
		lm.victims.Insert(line)
	}
}

// markBlockFree resets a block after erase.
func (s *SSD) markBlockFree(ppa nand.PPA) {
	blk := s.Array.BlockAt(ppa)
	for i := range blk.Pages {
		blk.Pages[i].Status = nand.PageFree
	}
	blk.IPC = 0
	blk.VPC = 0
	blk.WP = 0
	blk.EraseCnt++
}

// markLineFree returns a (just-erased) line to the free list.
func (s *SSD) markLineFree(line *Line) {
	line.IPC = 0
	line.VPC = 0
	line.Type = LineNone
	line.listEnt = s.lm.free.Store(line)
}
