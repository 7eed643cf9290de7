// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package ftl

import (
	"context"
	"fmt"

	"git.lukeshu.com/nandsim/lib/nand"
)

// Opcode is a host command.
type Opcode uint8

const (
	OpRead Opcode = iota + 1
	OpWrite
	OpDSM
)

// String implements fmt.Stringer.
func (op Opcode) String() string {
	switch op {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpDSM:
		return "dsm"
	default:
		return fmt.Sprintf("opcode(%d)", uint8(op))
	}
}

// Request is one host command, submitted to the worker loop through a
// submission Ring and handed back through a completion Ring.
//
// SLBA/NLB address whole sectors; STime is the submission timestamp
// in nanoseconds.  The worker fills in ReqLat and adds it to
// ExpireTime.
type Request struct {
	Opcode Opcode
	SLBA   uint64
	NLB    int
	STime  int64

	ReqLat     int64
	ExpireTime int64
}

func (s *SSD) lpnRange(req *Request) (startLPN, endLPN LPN) {
	p := s.Params()
	startLPN = LPN(req.SLBA / uint64(p.SecsPerPg))
	endLPN = LPN((req.SLBA + uint64(req.NLB) - 1) / uint64(p.SecsPerPg))
	if endLPN >= LPN(p.TotalPgs) {
		panic(fmt.Errorf("ftl: %v request [slba=%d,nlb=%d] reaches lpn=%d, past the last page %d",
			req.Opcode, req.SLBA, req.NLB, endLPN, p.TotalPgs-1))
	}
	return startLPN, endLPN
}

// Read services a host read and returns its simulated latency: the
// maximum over the per-page reads, each of which may be preceded by a
// translation page read on a CMT miss.
func (s *SSD) Read(ctx context.Context, req *Request) int64 {
	startLPN, endLPN := s.lpnRange(req)

	var maxLat int64
	for lpn := startLPN; lpn <= endLPN; lpn++ {
		s.Statistics.AccessCnt++
		var ppa nand.PPA
		if s.cmt.hit(lpn) != nil {
			s.Statistics.CMTHitCnt++
			ppa = s.getMaptblEnt(lpn)
			if !ppa.Mapped() || !ppa.Valid(s.Params()) {
				continue
			}
		} else {
			s.Statistics.CMTMissCnt++
			transLUN := s.processTranslationPageRead(lpn, req.STime)
			ppa = s.getMaptblEnt(lpn)
			if !ppa.Mapped() || !ppa.Valid(s.Params()) {
				continue
			}
			if transLUN != nil {
				// The data read cannot start until the
				// translation read has finished.
				dataLUN := s.Array.LUNAt(ppa)
				if transLUN.NextAvailTime > dataLUN.NextAvailTime {
					dataLUN.NextAvailTime = transLUN.NextAvailTime
				}
			}
		}

		subLat := s.Array.AdvanceStatus(ppa, nand.Cmd{
			Op:    nand.CmdRead,
			Type:  nand.UserIO,
			STime: req.STime,
		})
		if subLat > maxLat {
			maxLat = subLat
		}
	}

	return maxLat
}

// Write services a host write and returns its simulated latency.  If
// free lines have run low it first runs forced GC until the pressure
// is off or no victim line is left to clean; in the latter case the
// write proceeds anyway, and running out of free lines panics in
// advanceWritePointer.
func (s *SSD) Write(ctx context.Context, req *Request) int64 {
	startLPN, endLPN := s.lpnRange(req)

	for s.shouldGCHigh() {
		if !s.doGC(ctx, true) {
			break
		}
	}

	var maxLat int64
	for lpn := startLPN; lpn <= endLPN; lpn++ {
		s.Statistics.AccessCnt++
		if s.cmt.hit(lpn) != nil {
			s.Statistics.CMTHitCnt++
		} else {
			s.Statistics.CMTMissCnt++
			s.processTranslationPageWrite(lpn, req.STime)
		}

		entry := s.cmt.find(lpn)
		if entry == nil {
			panic(fmt.Errorf("ftl: write: lpn=%d has no cmt entry after the miss was processed", lpn))
		}

		if oldPPA := s.getMaptblEnt(lpn); oldPPA.Mapped() {
			// update old page information first
			s.markPageInvalid(oldPPA)
			s.setRmapEnt(InvalidLPN, oldPPA)
		}

		// new write
		ppa := s.wp.currentPage()
		s.setMaptblEnt(lpn, ppa)
		entry.ppn = PPN(ppa.PageIndex(s.Params()))
		entry.dirty = true
		s.setRmapEnt(lpn, ppa)

		s.markPageValid(ppa)
		s.advanceWritePointer(&s.wp, LineData)

		curLat := s.Array.AdvanceStatus(ppa, nand.Cmd{
			Op:    nand.CmdWrite,
			Type:  nand.UserIO,
			STime: req.STime,
		})
		if curLat > maxLat {
			maxLat = curLat
		}
	}

	return maxLat
}
