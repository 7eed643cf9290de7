// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package ftl

import (
	"git.lukeshu.com/nandsim/lib/nand"
)

// translationPageRead charges the latency of reading a translation
// page, against the submission time stime (0 means "now").
func (s *SSD) translationPageRead(ppa nand.PPA, stime int64) int64 {
	return s.Array.AdvanceStatus(ppa, nand.Cmd{
		Op:    nand.CmdRead,
		Type:  nand.UserIO,
		STime: stime,
	})
}

// translationPageWrite rewrites the translation page at oldPPA to a
// fresh page of the translation stream: the old page becomes invalid
// and the GTD points at the new page.
func (s *SSD) translationPageWrite(oldPPA nand.PPA) int64 {
	tvpn := TVPN(s.getRmapEnt(oldPPA))

	if oldPPA.Mapped() {
		// update old page information first
		s.markPageInvalid(oldPPA)
		s.setRmapEnt(InvalidLPN, oldPPA)
	}
	newPPA := s.twp.currentPage()
	s.setGTDEnt(tvpn, newPPA)
	s.setRmapEnt(LPN(tvpn), newPPA)

	s.markPageValid(newPPA)
	s.advanceWritePointer(&s.twp, LineTrans)

	return s.Array.AdvanceStatus(newPPA, nand.Cmd{
		Op:    nand.CmdWrite,
		Type:  nand.UserIO,
		STime: 0,
	})
}

// translationPageNewWrite writes the first-ever translation page for
// tvpn; there is no old page to read or invalidate.
func (s *SSD) translationPageNewWrite(tvpn TVPN) int64 {
	newPPA := s.twp.currentPage()
	s.setGTDEnt(tvpn, newPPA)
	s.setRmapEnt(LPN(tvpn), newPPA)

	s.markPageValid(newPPA)
	s.advanceWritePointer(&s.twp, LineTrans)

	return s.Array.AdvanceStatus(newPPA, nand.Cmd{
		Op:    nand.CmdWrite,
		Type:  nand.UserIO,
		STime: 0,
	})
}

// processTranslationPageRead handles a read-path CMT miss for lpn:
// fetch the mapping from its translation page and, if lpn is mapped,
// cache it.  It returns the LUN that served the translation read, so
// the caller can serialize the data read behind it; nil if there was
// no translation page to read or lpn is unmapped (nothing is cached
// then).
func (s *SSD) processTranslationPageRead(lpn LPN, stime int64) *nand.LUN {
	tvpn := TVPN(lpn) / TVPN(s.Params().EntsPerPg)
	ppa := s.getGTDEnt(tvpn)
	if !ppa.Mapped() || !ppa.Valid(s.Params()) {
		return nil
	}
	s.translationPageRead(ppa, stime)
	lun := s.Array.LUNAt(ppa)

	dataPPA := s.getMaptblEnt(lpn)
	if !dataPPA.Mapped() || !dataPPA.Valid(s.Params()) {
		return nil
	}
	s.cacheMapping(lpn, dataPPA)

	return lun
}

// processTranslationPageWrite handles a write-path CMT miss for lpn:
// make sure lpn has a cached mapping entry to dirty, reading its
// translation page first when one exists.
func (s *SSD) processTranslationPageWrite(lpn LPN, stime int64) *nand.LUN {
	tvpn := TVPN(lpn) / TVPN(s.Params().EntsPerPg)
	ppa := s.getGTDEnt(tvpn)

	// A new write, not an update: there is no translation page to
	// read yet.
	if !ppa.Mapped() || !ppa.Valid(s.Params()) {
		s.cacheMapping(lpn, nand.UnmappedPPA)
		return nil
	}

	s.translationPageRead(ppa, stime)
	lun := s.Array.LUNAt(ppa)

	s.cacheMapping(lpn, s.getMaptblEnt(lpn))

	return lun
}
