// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package nand models the geometry, state, and timing of a raw NAND
// flash array.  It knows nothing about address translation; that is
// the job of the ftl package.
package nand

import (
	"fmt"
)

// Params describes the geometry, latency, and tuning of a simulated
// flash device.  The exported fields up through EntsPerPg are inputs;
// the remaining fields are derived from them by Derive.
type Params struct {
	// Geometry.
	SecSize   int // bytes per sector
	SecsPerPg int
	PgsPerBlk int
	BlksPerPl int
	PlsPerLUN int
	LUNsPerCh int
	Chs       int

	// Latencies, in nanoseconds.
	PgRdLat   int64
	PgWrLat   int64
	BlkErLat  int64
	ChXferLat int64 // 0 disables channel-transfer serialization

	// Garbage-collection tuning.
	GCThresPcent     float64
	GCThresPcentHigh float64
	EnableGCDelay    bool

	// Mapping entries that fit in one translation page.
	EntsPerPg int

	// Derived geometry.
	SecsPerBlk int
	SecsPerPl  int
	SecsPerLUN int
	SecsPerCh  int
	TotalSecs  int

	PgsPerPl  int
	PgsPerLUN int
	PgsPerCh  int
	TotalPgs  int

	BlksPerLUN int
	BlksPerCh  int
	TotalBlks  int

	PlsPerCh  int
	TotalPls  int
	TotalLUNs int

	// A line is a super-block: one block from every plane in the
	// device, all at the same in-plane offset.
	BlksPerLine int
	PgsPerLine  int
	SecsPerLine int
	TotalLines  int

	// Derived GC thresholds, in free-line counts.
	GCThresLines     int
	GCThresLinesHigh int

	// Derived mapping sizes.
	GTDSize int // translation virtual pages
	CMTSize int // max cached mapping entries
}

// DefaultParams returns the parameters of the default 16 GiB device,
// fully derived.
func DefaultParams() Params {
	p := Params{
		SecSize:   512,
		SecsPerPg: 8,
		PgsPerBlk: 256,
		BlksPerPl: 256,
		PlsPerLUN: 1,
		LUNsPerCh: 8,
		Chs:       8,

		PgRdLat:   40000,
		PgWrLat:   200000,
		BlkErLat:  2000000,
		ChXferLat: 0,

		GCThresPcent:     0.75,
		GCThresPcentHigh: 0.95,
		EnableGCDelay:    true,

		EntsPerPg: 512,
	}
	p.Derive()
	return p
}

// Derive fills in the derived fields from the input fields, after
// sanity-checking the inputs.
func (p *Params) Derive() {
	p.check()

	p.SecsPerBlk = p.SecsPerPg * p.PgsPerBlk
	p.SecsPerPl = p.SecsPerBlk * p.BlksPerPl
	p.SecsPerLUN = p.SecsPerPl * p.PlsPerLUN
	p.SecsPerCh = p.SecsPerLUN * p.LUNsPerCh
	p.TotalSecs = p.SecsPerCh * p.Chs

	p.PgsPerPl = p.PgsPerBlk * p.BlksPerPl
	p.PgsPerLUN = p.PgsPerPl * p.PlsPerLUN
	p.PgsPerCh = p.PgsPerLUN * p.LUNsPerCh
	p.TotalPgs = p.PgsPerCh * p.Chs

	p.BlksPerLUN = p.BlksPerPl * p.PlsPerLUN
	p.BlksPerCh = p.BlksPerLUN * p.LUNsPerCh
	p.TotalBlks = p.BlksPerCh * p.Chs

	p.PlsPerCh = p.PlsPerLUN * p.LUNsPerCh
	p.TotalPls = p.PlsPerCh * p.Chs
	p.TotalLUNs = p.LUNsPerCh * p.Chs

	p.BlksPerLine = p.TotalPls
	p.PgsPerLine = p.BlksPerLine * p.PgsPerBlk
	p.SecsPerLine = p.PgsPerLine * p.SecsPerPg
	p.TotalLines = p.BlksPerPl

	p.GCThresLines = int((1 - p.GCThresPcent) * float64(p.TotalLines))
	p.GCThresLinesHigh = int((1 - p.GCThresPcentHigh) * float64(p.TotalLines))

	p.GTDSize = p.TotalPgs / p.EntsPerPg
	p.CMTSize = p.TotalBlks / 2
}

func (p *Params) check() {
	for _, field := range []struct {
		name string
		val  int
	}{
		{"SecSize", p.SecSize},
		{"SecsPerPg", p.SecsPerPg},
		{"PgsPerBlk", p.PgsPerBlk},
		{"BlksPerPl", p.BlksPerPl},
		{"PlsPerLUN", p.PlsPerLUN},
		{"LUNsPerCh", p.LUNsPerCh},
		{"Chs", p.Chs},
		{"EntsPerPg", p.EntsPerPg},
	} {
		if field.val <= 0 {
			panic(fmt.Errorf("nand: Params.%s must be positive, not %d", field.name, field.val))
		}
	}
	if p.GCThresPcent <= 0 || p.GCThresPcent >= 1 {
		panic(fmt.Errorf("nand: Params.GCThresPcent must be in (0,1), not %v", p.GCThresPcent))
	}
	if p.GCThresPcentHigh <= p.GCThresPcent || p.GCThresPcentHigh >= 1 {
		panic(fmt.Errorf("nand: Params.GCThresPcentHigh must be in (GCThresPcent,1), not %v", p.GCThresPcentHigh))
	}
	if p.PgsPerBlk*p.BlksPerPl*p.PlsPerLUN*p.LUNsPerCh*p.Chs%p.EntsPerPg != 0 {
		panic(fmt.Errorf("nand: total pages must be a multiple of Params.EntsPerPg=%d", p.EntsPerPg))
	}
}
