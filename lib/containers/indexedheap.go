// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package containers

// IndexedHeap is a binary min-heap that tracks the position of each
// item within the heap, so that an item's priority may be adjusted
// while the item is in the heap, without having to search for it.
//
// Positions are 1-based; the position 0 means "not in the heap".  The
// item itself stores its position, via the SetPos/GetPos callbacks;
// this means that a given item may only be in one IndexedHeap at a
// time.
type IndexedHeap[T any] struct {
	Less   func(a, b T) bool
	SetPos func(item T, pos int)
	GetPos func(item T) int

	// 1-based; the 0 slot is unused so that GetPos can use 0 as
	// the "not in the heap" sentinel.
	items []T
}

// Len returns the number of items in the heap.
func (h *IndexedHeap[T]) Len() int {
	if len(h.items) == 0 {
		return 0
	}
	return len(h.items) - 1
}

// Insert adds an item to the heap.
func (h *IndexedHeap[T]) Insert(item T) {
	if len(h.items) == 0 {
		var zero T
		h.items = append(h.items, zero)
	}
	h.items = append(h.items, item)
	h.SetPos(item, len(h.items)-1)
	h.up(len(h.items) - 1)
}

// Peek returns the minimum item without removing it from the heap.
// The second return value is false if the heap is empty.
func (h *IndexedHeap[T]) Peek() (T, bool) {
	if h.Len() == 0 {
		var zero T
		return zero, false
	}
	return h.items[1], true
}

// Pop removes and returns the minimum item.  The second return value
// is false if the heap is empty.
func (h *IndexedHeap[T]) Pop() (T, bool) {
	if h.Len() == 0 {
		var zero T
		return zero, false
	}
	ret := h.items[1]
	h.remove(1)
	return ret, true
}

// Delete removes an item from any position in the heap.
//
// It is invalid (runtime-panic) to call Delete on an item that isn't
// in the heap.
func (h *IndexedHeap[T]) Delete(item T) {
	pos := h.GetPos(item)
	if pos <= 0 || pos >= len(h.items) {
		panic("containers: IndexedHeap.Delete of an item that is not in the heap")
	}
	h.remove(pos)
}

// Fix re-establishes the heap ordering after the given item has had
// its priority changed.  It is cheaper than Delete
// followed by Insert.
func (h *IndexedHeap[T]) Fix(item T) {
	pos := h.GetPos(item)
	if pos <= 0 || pos >= len(h.items) {
		panic("containers: IndexedHeap.Fix of an item that is not in the heap")
	}
	if !h.down(pos) {
		h.up(pos)
	}
}

func (h *IndexedHeap[T]) remove(pos int) {
	last := len(h.items) - 1
	h.SetPos(h.items[pos], 0)
	if pos != last {
		h.items[pos] = h.items[last]
		h.SetPos(h.items[pos], pos)
	}
	h.items = h.items[:last]
	if pos != last && pos < len(h.items) {
		if !h.down(pos) {
			h.up(pos)
		}
	}
}

func (h *IndexedHeap[T]) up(pos int) {
	for pos > 1 {
		parent := pos / 2
		if !h.Less(h.items[pos], h.items[parent]) {
			break
		}
		h.swap(pos, parent)
		pos = parent
	}
}

func (h *IndexedHeap[T]) down(pos int) bool {
	moved := false
	for {
		child := 2 * pos
		if child >= len(h.items) {
			break
		}
		if right := child + 1; right < len(h.items) && h.Less(h.items[right], h.items[child]) {
			child = right
		}
		if !h.Less(h.items[child], h.items[pos]) {
			break
		}
		h.swap(pos, child)
		pos = child
		moved = true
	}
	return moved
}

func (h *IndexedHeap[T]) swap(a, b int) {
	h.items[a], h.items[b] = h.items[b], h.items[a]
	h.SetPos(h.items[a], a)
	h.SetPos(h.items[b], b)
}
