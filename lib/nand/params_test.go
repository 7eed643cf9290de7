// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package nand_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"git.lukeshu.com/nandsim/lib/nand"
)

func TestDefaultParams(t *testing.T) {
	t.Parallel()
	p := nand.DefaultParams()

	assert.Equal(t, 4194304, p.TotalPgs)
	assert.Equal(t, 33554432, p.TotalSecs)
	assert.Equal(t, 16384, p.TotalBlks)
	assert.Equal(t, 64, p.TotalLUNs)

	assert.Equal(t, 256, p.TotalLines)
	assert.Equal(t, 64, p.BlksPerLine)
	assert.Equal(t, 16384, p.PgsPerLine)

	assert.Equal(t, 64, p.GCThresLines)
	assert.Equal(t, 12, p.GCThresLinesHigh)

	assert.Equal(t, 8192, p.GTDSize)
	assert.Equal(t, 8192, p.CMTSize)
}

func TestDeriveSmall(t *testing.T) {
	t.Parallel()
	p := testParams()

	assert.Equal(t, 256, p.TotalPgs)
	assert.Equal(t, 512, p.TotalSecs)
	assert.Equal(t, 32, p.TotalBlks)
	assert.Equal(t, 4, p.TotalLUNs)
	assert.Equal(t, 4, p.TotalPls)

	assert.Equal(t, 8, p.TotalLines)
	assert.Equal(t, 4, p.BlksPerLine)
	assert.Equal(t, 32, p.PgsPerLine)
	assert.Equal(t, 64, p.SecsPerLine)

	assert.Equal(t, 4, p.GCThresLines)
	assert.Equal(t, 2, p.GCThresLinesHigh)

	assert.Equal(t, 16, p.GTDSize)
	assert.Equal(t, 16, p.CMTSize)
}

func TestDeriveChecks(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() {
		p := testParams()
		p.Chs = 0
		p.Derive()
	})
	assert.Panics(t, func() {
		p := testParams()
		p.GCThresPcent = 1.5
		p.Derive()
	})
	assert.Panics(t, func() {
		p := testParams()
		p.GCThresPcentHigh = p.GCThresPcent
		p.Derive()
	})
	assert.Panics(t, func() {
		p := testParams()
		p.EntsPerPg = 7
		p.Derive()
	})
}
