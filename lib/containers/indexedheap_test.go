// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package containers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"git.lukeshu.com/nandsim/lib/containers"
)

type heapItem struct {
	val int
	pos int
}

func newHeap() *containers.IndexedHeap[*heapItem] {
	return &containers.IndexedHeap[*heapItem]{
		Less:   func(a, b *heapItem) bool { return a.val < b.val },
		SetPos: func(item *heapItem, pos int) { item.pos = pos },
		GetPos: func(item *heapItem) int { return item.pos },
	}
}

func TestIndexedHeapOrdering(t *testing.T) {
	t.Parallel()
	h := newHeap()
	for _, val := range []int{5, 1, 4, 1, 3, 9, 2} {
		h.Insert(&heapItem{val: val})
	}
	assert.Equal(t, 7, h.Len())

	prev := -1
	for h.Len() > 0 {
		item, ok := h.Pop()
		assert.True(t, ok)
		assert.GreaterOrEqual(t, item.val, prev)
		assert.Equal(t, 0, item.pos)
		prev = item.val
	}
	_, ok := h.Pop()
	assert.False(t, ok)
}

func TestIndexedHeapFix(t *testing.T) {
	t.Parallel()
	h := newHeap()
	a := &heapItem{val: 10}
	b := &heapItem{val: 20}
	c := &heapItem{val: 30}
	h.Insert(a)
	h.Insert(b)
	h.Insert(c)

	c.val = 5
	h.Fix(c)
	min, ok := h.Peek()
	assert.True(t, ok)
	assert.Same(t, c, min)

	c.val = 40
	h.Fix(c)
	min, ok = h.Peek()
	assert.True(t, ok)
	assert.Same(t, a, min)
}

func TestIndexedHeapDelete(t *testing.T) {
	t.Parallel()
	h := newHeap()
	items := make([]*heapItem, 6)
	for i := range items {
		items[i] = &heapItem{val: i}
		h.Insert(items[i])
	}

	h.Delete(items[3])
	assert.Equal(t, 0, items[3].pos)
	assert.Equal(t, 5, h.Len())

	var got []int
	for h.Len() > 0 {
		item, _ := h.Pop()
		got = append(got, item.val)
	}
	assert.Equal(t, []int{0, 1, 2, 4, 5}, got)

	assert.Panics(t, func() { h.Delete(items[3]) })
}
