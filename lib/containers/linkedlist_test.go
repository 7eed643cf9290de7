// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package containers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"git.lukeshu.com/nandsim/lib/containers"
)

func TestLinkedListFIFO(t *testing.T) {
	t.Parallel()
	var l containers.LinkedList[int]
	assert.True(t, l.IsEmpty())
	assert.Equal(t, 0, l.Len())

	l.Store(1)
	l.Store(2)
	l.Store(3)
	assert.Equal(t, 3, l.Len())

	assert.Equal(t, 1, l.TakeOldest())
	assert.Equal(t, 2, l.Oldest().Value)
	assert.Equal(t, 2, l.Len())
}

func TestLinkedListMoveToNewest(t *testing.T) {
	t.Parallel()
	var l containers.LinkedList[int]
	l.Store(1)
	l.Store(2)
	l.Store(3)

	l.MoveToNewest(l.Oldest())
	assert.Equal(t, 2, l.TakeOldest())
	assert.Equal(t, 3, l.TakeOldest())
	assert.Equal(t, 1, l.TakeOldest())
	assert.True(t, l.IsEmpty())
}

func TestLinkedListDelete(t *testing.T) {
	t.Parallel()
	var l containers.LinkedList[int]
	l.Store(1)
	mid := l.Store(2)
	l.Store(3)

	l.Delete(mid)
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, 1, l.TakeOldest())
	assert.Equal(t, 3, l.TakeOldest())
}
