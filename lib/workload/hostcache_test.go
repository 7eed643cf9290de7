// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package workload_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"git.lukeshu.com/nandsim/lib/workload"
)

func TestLRUCache(t *testing.T) {
	t.Parallel()
	cache := workload.LRUCache[int, string]{MaxLen: 4}

	cache.Add(1, "one")
	cache.Add(2, "two")
	assert.Equal(t, 2, cache.Len())
	assert.True(t, cache.Contains(1))
	assert.False(t, cache.Contains(3))

	val, ok := cache.Get(2)
	assert.True(t, ok)
	assert.Equal(t, "two", val)
	_, ok = cache.Get(3)
	assert.False(t, ok)

	val, ok = cache.Peek(1)
	assert.True(t, ok)
	assert.Equal(t, "one", val)

	cache.Remove(1)
	assert.False(t, cache.Contains(1))

	calls := 0
	val = cache.GetOrElse(9, func() string {
		calls++
		return "nine"
	})
	assert.Equal(t, "nine", val)
	val = cache.GetOrElse(9, func() string {
		calls++
		return "nine"
	})
	assert.Equal(t, "nine", val)
	assert.Equal(t, 1, calls)

	assert.ElementsMatch(t, []int{2, 9}, cache.Keys())

	cache.Purge()
	assert.Equal(t, 0, cache.Len())
}

func TestLRUCacheEviction(t *testing.T) {
	t.Parallel()
	cache := workload.LRUCache[int, int]{MaxLen: 8}
	for i := 0; i < 100; i++ {
		cache.Add(i, i)
	}
	assert.LessOrEqual(t, cache.Len(), 8)
	assert.True(t, cache.Contains(99))
}
