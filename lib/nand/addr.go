// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package nand

import (
	"fmt"
)

// PPA is a physical page address, packed in to a uint64 so that a
// full forward-map table is 8 bytes per entry.
//
// The bit layout is
//
//	bits  0- 7: sector within the page
//	bits  8-23: page within the block
//	bits 24-39: block within the plane
//	bits 40-47: plane within the LUN
//	bits 48-55: LUN within the channel
//	bits 56-62: channel
//	bit  63   : always 0 for a valid address
//
// so that UnmappedPPA (all bits set) can never collide with a valid
// address.
type PPA uint64

// UnmappedPPA is the sentinel "no physical page" value.
const UnmappedPPA PPA = ^PPA(0)

const (
	ppaSecBits = 8
	ppaPgBits  = 16
	ppaBlkBits = 16
	ppaPlBits  = 8
	ppaLUNBits = 8
	ppaChBits  = 7

	ppaSecShift = 0
	ppaPgShift  = ppaSecShift + ppaSecBits
	ppaBlkShift = ppaPgShift + ppaPgBits
	ppaPlShift  = ppaBlkShift + ppaBlkBits
	ppaLUNShift = ppaPlShift + ppaPlBits
	ppaChShift  = ppaLUNShift + ppaLUNBits
)

// NewPPA builds the address of page `pg` of block `blk` of plane `pl`
// of LUN `lun` of channel `ch`, with the sector field zero.
func NewPPA(ch, lun, pl, blk, pg int) PPA {
	return PPA(ch)<<ppaChShift |
		PPA(lun)<<ppaLUNShift |
		PPA(pl)<<ppaPlShift |
		PPA(blk)<<ppaBlkShift |
		PPA(pg)<<ppaPgShift
}

func (ppa PPA) Sec() int { return int(ppa>>ppaSecShift) & (1<<ppaSecBits - 1) }
func (ppa PPA) Pg() int  { return int(ppa>>ppaPgShift) & (1<<ppaPgBits - 1) }
func (ppa PPA) Blk() int { return int(ppa>>ppaBlkShift) & (1<<ppaBlkBits - 1) }
func (ppa PPA) Pl() int  { return int(ppa>>ppaPlShift) & (1<<ppaPlBits - 1) }
func (ppa PPA) LUN() int { return int(ppa>>ppaLUNShift) & (1<<ppaLUNBits - 1) }
func (ppa PPA) Ch() int  { return int(ppa>>ppaChShift) & (1<<ppaChBits - 1) }

// WithPg returns a copy of the address with the page field replaced.
func (ppa PPA) WithPg(pg int) PPA {
	const mask = PPA(1<<ppaPgBits-1) << ppaPgShift
	return (ppa &^ mask) | PPA(pg)<<ppaPgShift
}

// Mapped returns whether the address is a real address, rather than
// the UnmappedPPA sentinel.
func (ppa PPA) Mapped() bool {
	return ppa != UnmappedPPA
}

// Valid returns whether every field of the address is within the
// bounds of the given geometry.
func (ppa PPA) Valid(p *Params) bool {
	return ppa.Mapped() &&
		ppa.Ch() < p.Chs &&
		ppa.LUN() < p.LUNsPerCh &&
		ppa.Pl() < p.PlsPerLUN &&
		ppa.Blk() < p.BlksPerPl &&
		ppa.Pg() < p.PgsPerBlk &&
		ppa.Sec() < p.SecsPerPg
}

// PageIndex flattens the address in to a dense page index in
// [0,p.TotalPgs), suitable for indexing the reverse map.
func (ppa PPA) PageIndex(p *Params) int {
	idx := ppa.Ch()*p.PgsPerCh +
		ppa.LUN()*p.PgsPerLUN +
		ppa.Pl()*p.PgsPerPl +
		ppa.Blk()*p.PgsPerBlk +
		ppa.Pg()
	if idx >= p.TotalPgs {
		panic(fmt.Errorf("nand: page index %d out of range for %v", idx, ppa))
	}
	return idx
}

// PPAFromPageIndex is the inverse of PPA.PageIndex.
func PPAFromPageIndex(p *Params, idx int) PPA {
	if idx < 0 || idx >= p.TotalPgs {
		panic(fmt.Errorf("nand: page index %d out of range [0,%d)", idx, p.TotalPgs))
	}
	ch := idx / p.PgsPerCh
	idx %= p.PgsPerCh
	lun := idx / p.PgsPerLUN
	idx %= p.PgsPerLUN
	pl := idx / p.PgsPerPl
	idx %= p.PgsPerPl
	blk := idx / p.PgsPerBlk
	pg := idx % p.PgsPerBlk
	return NewPPA(ch, lun, pl, blk, pg)
}

// String implements fmt.Stringer.
func (ppa PPA) String() string {
	if !ppa.Mapped() {
		return "PPA(unmapped)"
	}
	return fmt.Sprintf("PPA(ch=%d lun=%d pl=%d blk=%d pg=%d)",
		ppa.Ch(), ppa.LUN(), ppa.Pl(), ppa.Blk(), ppa.Pg())
}
