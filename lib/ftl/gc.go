// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package ftl

import (
	"context"

	"github.com/datawire/dlib/dlog"

	"git.lukeshu.com/nandsim/lib/containers"
	"git.lukeshu.com/nandsim/lib/nand"
)

func (s *SSD) gcReadPage(ppa nand.PPA) {
	// advance ssd status; the latency lands on the LUN clock, not
	// on any host request
	if s.Params().EnableGCDelay {
		s.Array.AdvanceStatus(ppa, nand.Cmd{
			Op:    nand.CmdRead,
			Type:  nand.GCIO,
			STime: 0,
		})
	}
}

// gcWritePage moves the valid data page at oldPPA to a fresh page of
// the data stream.
func (s *SSD) gcWritePage(oldPPA nand.PPA) {
	lpn := s.getRmapEnt(oldPPA)
	if uint64(lpn) >= uint64(s.Params().TotalPgs) {
		panic("ftl: gcWritePage: reverse map has no LPN for a valid data page")
	}
	newPPA := s.wp.currentPage()
	s.setMaptblEnt(lpn, newPPA)
	s.setRmapEnt(lpn, newPPA)

	s.markPageValid(newPPA)
	s.advanceWritePointer(&s.wp, LineData)

	if s.Params().EnableGCDelay {
		s.Array.AdvanceStatus(newPPA, nand.Cmd{
			Op:    nand.CmdWrite,
			Type:  nand.GCIO,
			STime: 0,
		})
	}

	newLUN := s.Array.LUNAt(newPPA)
	newLUN.GCEndTime = newLUN.NextAvailTime
}

// gcTranslationPageWrite moves the valid translation page at oldPPA
// to a fresh page of the translation stream.  The old page is not
// marked invalid: it is part of the victim line and its whole block
// is about to be erased.
func (s *SSD) gcTranslationPageWrite(oldPPA nand.PPA) {
	tvpn := TVPN(s.getRmapEnt(oldPPA))
	if uint64(tvpn) >= uint64(s.Params().GTDSize) {
		panic("ftl: gcTranslationPageWrite: reverse map has no TVPN for a valid translation page")
	}
	newPPA := s.twp.currentPage()
	s.setGTDEnt(tvpn, newPPA)
	s.setRmapEnt(LPN(tvpn), newPPA)

	s.markPageValid(newPPA)
	s.advanceWritePointer(&s.twp, LineTrans)

	if s.Params().EnableGCDelay {
		s.Array.AdvanceStatus(newPPA, nand.Cmd{
			Op:    nand.CmdWrite,
			Type:  nand.GCIO,
			STime: 0,
		})
	}

	newLUN := s.Array.LUNAt(newPPA)
	newLUN.GCEndTime = newLUN.NextAvailTime
}

// selectVictimLine pops the line with the fewest valid pages from the
// victim queue.  Unless forced, it refuses a victim with too few
// invalid pages to be worth cleaning.
func (s *SSD) selectVictimLine(force bool) *Line {
	victim, ok := s.lm.victims.Peek()
	if !ok {
		return nil
	}
	if !force && victim.IPC < s.Params().PgsPerLine/8 {
		return nil
	}
	victim, _ = s.lm.victims.Pop()
	return victim
}

// cleanOneDataBlock copies every valid page out of the data block
// that ppa names, and pushes the resulting map updates either into
// the CMT (for cached LPNs) or straight to the translation pages (one
// rewrite per distinct TVPN, for uncached LPNs).
func (s *SSD) cleanOneDataBlock(ctx context.Context, ppa nand.PPA) {
	p := s.Params()
	cnt := 0
	batchUpdated := make(containers.Set[TVPN])

	for pg := 0; pg < p.PgsPerBlk; pg++ {
		pgPPA := ppa.WithPg(pg)
		pgStatus := s.Array.PageAt(pgPPA).Status
		// there shouldn't be any free page in victim blocks
		if pgStatus == nand.PageFree {
			panic("ftl: cleanOneDataBlock: free page in a victim block")
		}
		if pgStatus != nand.PageValid {
			continue
		}
		cnt++
		s.gcReadPage(pgPPA)
		lpn := s.getRmapEnt(pgPPA)
		if s.getMaptblEnt(lpn) != pgPPA {
			dlog.Errorf(ctx, "gc: data block %d holds a page the forward map does not own (lpn=%d)", ppa.Blk(), lpn)
			continue
		}
		s.gcWritePage(pgPPA)
		if entry := s.cmt.find(lpn); entry != nil {
			entry.ppn = PPN(s.getMaptblEnt(lpn).PageIndex(p))
			entry.dirty = true
		} else {
			tvpn := TVPN(lpn) / TVPN(p.EntsPerPg)
			if batchUpdated.Has(tvpn) {
				continue
			}
			batchUpdated.Insert(tvpn)
			tPPA := s.getGTDEnt(tvpn)
			s.translationPageRead(tPPA, 0)
			s.translationPageWrite(tPPA)
		}
	}

	if s.Array.BlockAt(ppa).VPC != cnt {
		panic("ftl: cleanOneDataBlock: block vpc does not match the valid pages found")
	}
}

// cleanOneTransBlock copies every valid translation page out of the
// trans block that ppa names.
func (s *SSD) cleanOneTransBlock(ctx context.Context, ppa nand.PPA) {
	p := s.Params()
	cnt := 0

	for pg := 0; pg < p.PgsPerBlk; pg++ {
		pgPPA := ppa.WithPg(pg)
		pgStatus := s.Array.PageAt(pgPPA).Status
		// there shouldn't be any free page in victim blocks
		if pgStatus == nand.PageFree {
			panic("ftl: cleanOneTransBlock: free page in a victim block")
		}
		if pgStatus != nand.PageValid {
			continue
		}
		cnt++
		s.gcReadPage(pgPPA)
		lpn := s.getRmapEnt(pgPPA)
		if s.getMaptblEnt(lpn) == pgPPA {
			dlog.Errorf(ctx, "gc: trans block %d holds a data page (lpn=%d)", ppa.Blk(), lpn)
			continue
		}
		s.gcTranslationPageWrite(pgPPA)
	}

	if s.Array.BlockAt(ppa).VPC != cnt {
		panic("ftl: cleanOneTransBlock: block vpc does not match the valid pages found")
	}
}

// doGC cleans one victim line: copy out the valid pages of every
// block in the line, erase the blocks, and return the line to the
// free list.  It reports whether a victim was actually cleaned.
func (s *SSD) doGC(ctx context.Context, force bool) bool {
	p := s.Params()

	victim := s.selectVictimLine(force)
	if victim == nil {
		return false
	}

	dlog.Debugf(ctx, "gc: line=%d type=%v ipc=%d victim=%d full=%d free=%d",
		victim.ID, victim.Type, victim.IPC,
		s.lm.victims.Len(), s.lm.full.Len(), s.lm.free.Len())

	// copy back valid data
	for ch := 0; ch < p.Chs; ch++ {
		for lun := 0; lun < p.LUNsPerCh; lun++ {
			blkPPA := nand.NewPPA(ch, lun, 0, victim.ID, 0)
			switch victim.Type {
			case LineData:
				s.cleanOneDataBlock(ctx, blkPPA)
			case LineTrans:
				s.cleanOneTransBlock(ctx, blkPPA)
			default:
				dlog.Errorf(ctx, "gc: victim line %d has type %v", victim.ID, victim.Type)
			}
			s.markBlockFree(blkPPA)

			if p.EnableGCDelay {
				s.Array.AdvanceStatus(blkPPA, nand.Cmd{
					Op:    nand.CmdErase,
					Type:  nand.GCIO,
					STime: 0,
				})
			}

			lunp := s.Array.LUNAt(blkPPA)
			lunp.GCEndTime = lunp.NextAvailTime
		}
	}

	s.markLineFree(victim)

	return true
}
