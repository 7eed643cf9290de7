// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package containers_test

import (
	"strings"
	"testing"

	"git.lukeshu.com/go/lowmemjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.lukeshu.com/nandsim/lib/containers"
)

func TestSet(t *testing.T) {
	t.Parallel()
	s := make(containers.Set[int])
	s.Insert(3)
	s.Insert(1)
	s.Insert(3)
	assert.Len(t, s, 2)
	assert.True(t, s.Has(3))
	assert.False(t, s.Has(2))

	s.Delete(3)
	assert.False(t, s.Has(3))

	var nilSet containers.Set[int]
	nilSet.Delete(1)
	assert.Zero(t, nilSet.TakeOne())
}

func TestSetJSON(t *testing.T) {
	t.Parallel()
	s := make(containers.Set[int])
	s.Insert(9)
	s.Insert(2)
	s.Insert(5)

	var buf strings.Builder
	require.NoError(t, lowmemjson.NewEncoder(&buf).Encode(s))
	assert.Equal(t, "[2,5,9]", buf.String())

	var got containers.Set[int]
	require.NoError(t, lowmemjson.NewDecoder(strings.NewReader(buf.String())).Decode(&got))
	assert.Equal(t, s, got)

	got = containers.Set[int]{}
	require.NoError(t, lowmemjson.NewDecoder(strings.NewReader("null")).Decode(&got))
	assert.Nil(t, got)
}

func TestSyncPool(t *testing.T) {
	t.Parallel()
	var bare containers.SyncPool[*int]
	_, ok := bare.Get()
	assert.False(t, ok)

	calls := 0
	pool := containers.SyncPool[*int]{
		New: func() *int {
			calls++
			return new(int)
		},
	}
	val, ok := pool.Get()
	require.True(t, ok)
	require.NotNil(t, val)
	assert.Equal(t, 1, calls)

	*val = 42
	pool.Put(val)
	got, ok := pool.Get()
	require.True(t, ok)
	require.NotNil(t, got)
}
