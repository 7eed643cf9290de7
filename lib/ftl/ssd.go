// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package ftl implements a demand-based flash translation layer on
// top of the nand package: only a bounded cache of the logical-to-
// physical map lives in "DRAM", and the full map lives in translation
// pages on the flash itself, paged in and out on demand.
package ftl

import (
	"math"
	"sync/atomic"

	"git.lukeshu.com/nandsim/lib/nand"
)

// LPN is a logical page number, the host-visible page address.
type LPN uint64

// InvalidLPN is the sentinel "no logical page" value, used in the
// reverse map for pages that hold no live data.
const InvalidLPN LPN = math.MaxUint64

// TVPN is a translation virtual page number; translation page number
// `tvpn` holds the map entries for LPNs
// [tvpn*EntsPerPg, (tvpn+1)*EntsPerPg).
type TVPN uint64

// PPN is a dense physical page index in [0, Params.TotalPgs), as
// produced by nand.PPA.PageIndex.
type PPN uint64

// UnmappedPPN is the sentinel "no physical page" PPN value.
const UnmappedPPN PPN = math.MaxUint64

// SSD is a simulated device: the flash array plus all FTL state.
//
// An SSD is confined to a single goroutine (the worker loop); none of
// its methods may be called concurrently.
type SSD struct {
	Array *nand.Array

	// Statistics is updated on every host read and write.
	Statistics Statistics

	maptbl []nand.PPA // LPN -> PPA; authoritative forward map
	rmap   []LPN      // page index -> LPN (data) or LPN(TVPN) (translation)
	gtd    []nand.PPA // TVPN -> PPA of the translation page

	cmt cmtMgmt
	lm  lineMgmt

	wp  writePointer // data stream
	twp writePointer // translation stream

	rings    atomic.Value // *ringPair, set by AttachRings
	toFTL    []*Ring
	toPoller []*Ring
}

// New builds a fully-erased SSD with the given (already derived)
// parameters.
func New(p nand.Params) *SSD {
	s := &SSD{
		Array: nand.NewArray(p),
	}

	s.maptbl = make([]nand.PPA, p.TotalPgs)
	for i := range s.maptbl {
		s.maptbl[i] = nand.UnmappedPPA
	}

	s.rmap = make([]LPN, p.TotalPgs)
	for i := range s.rmap {
		s.rmap[i] = InvalidLPN
	}

	s.gtd = make([]nand.PPA, p.GTDSize)
	for i := range s.gtd {
		s.gtd[i] = nand.UnmappedPPA
	}

	s.cmt.init(p.CMTSize)
	s.lm.init(p.TotalLines)

	s.initWritePointer(&s.wp, LineData)
	s.initWritePointer(&s.twp, LineTrans)

	return s
}

// Params returns the device's derived parameters.
func (s *SSD) Params() *nand.Params {
	return &s.Array.Params
}

func (s *SSD) shouldGC() bool {
	return s.lm.free.Len() <= s.Params().GCThresLines
}

func (s *SSD) shouldGCHigh() bool {
	return s.lm.free.Len() <= s.Params().GCThresLinesHigh
}

// FreeLineCount returns how many lines are on the free list.
func (s *SSD) FreeLineCount() int { return s.lm.free.Len() }

// FullLineCount returns how many lines are on the full list.
func (s *SSD) FullLineCount() int { return s.lm.full.Len() }

// VictimLineCount returns how many lines are in the victim queue.
func (s *SSD) VictimLineCount() int { return s.lm.victims.Len() }

// CMTUsedCount returns how many cached mapping entries are in use.
func (s *SSD) CMTUsedCount() int { return s.cmt.lru.Len() }

func (s *SSD) getMaptblEnt(lpn LPN) nand.PPA {
	return s.maptbl[lpn]
}

func (s *SSD) setMaptblEnt(lpn LPN, ppa nand.PPA) {
	s.maptbl[lpn] = ppa
}

func (s *SSD) getGTDEnt(tvpn TVPN) nand.PPA {
	return s.gtd[tvpn]
}

func (s *SSD) setGTDEnt(tvpn TVPN, ppa nand.PPA) {
	s.gtd[tvpn] = ppa
}

func (s *SSD) getRmapEnt(ppa nand.PPA) LPN {
	return s.rmap[ppa.PageIndex(s.Params())]
}

func (s *SSD) setRmapEnt(lpn LPN, ppa nand.PPA) {
	s.rmap[ppa.PageIndex(s.Params())] = lpn
}
