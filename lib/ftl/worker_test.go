// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package ftl_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/datawire/dlib/dlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.lukeshu.com/nandsim/lib/ftl"
)

func awaitCompletion(t *testing.T, cq *ftl.Ring) *ftl.Request {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if req, ok := cq.Dequeue(); ok {
			return req
		}
		time.Sleep(1 * time.Millisecond)
	}
	t.Fatal("timed out waiting for a completion")
	return nil
}

func TestWorkerRoundTrip(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(dlog.NewTestContext(t, false))
	defer cancel()

	p := testParams()
	ssd := testSSD(p)
	sq := ftl.NewRing(8)
	cq := ftl.NewRing(8)
	ssd.AttachRings([]*ftl.Ring{sq}, []*ftl.Ring{cq})

	errCh := make(chan error, 1)
	go func() { errCh <- ssd.Run(ctx) }()

	require.True(t, sq.Enqueue(&ftl.Request{
		Opcode: ftl.OpWrite,
		SLBA:   0,
		NLB:    p.SecsPerPg,
	}))
	req := awaitCompletion(t, cq)
	assert.Equal(t, ftl.OpWrite, req.Opcode)
	assert.Equal(t, p.PgWrLat, req.ReqLat)

	require.True(t, sq.Enqueue(&ftl.Request{
		Opcode: ftl.OpRead,
		SLBA:   0,
		NLB:    p.SecsPerPg,
	}))
	req = awaitCompletion(t, cq)
	assert.Equal(t, ftl.OpRead, req.Opcode)
	assert.Equal(t, p.PgWrLat+p.PgRdLat, req.ReqLat)

	cancel()
	assert.True(t, errors.Is(<-errCh, context.Canceled))
}

func TestWorkerDSM(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(dlog.NewTestContext(t, false))
	defer cancel()

	p := testParams()
	ssd := testSSD(p)
	sq := ftl.NewRing(8)
	cq := ftl.NewRing(8)
	ssd.AttachRings([]*ftl.Ring{sq}, []*ftl.Ring{cq})

	errCh := make(chan error, 1)
	go func() { errCh <- ssd.Run(ctx) }()

	// A trim completes instantly; an unknown opcode is dropped with
	// no completion at all.
	require.True(t, sq.Enqueue(&ftl.Request{Opcode: ftl.Opcode(77), SLBA: 0, NLB: 1}))
	require.True(t, sq.Enqueue(&ftl.Request{Opcode: ftl.OpDSM, SLBA: 0, NLB: p.SecsPerPg}))

	req := awaitCompletion(t, cq)
	assert.Equal(t, ftl.OpDSM, req.Opcode)
	assert.Equal(t, int64(0), req.ReqLat)

	cancel()
	assert.True(t, errors.Is(<-errCh, context.Canceled))
}

func TestRing(t *testing.T) {
	t.Parallel()
	r := ftl.NewRing(2)
	a := &ftl.Request{Opcode: ftl.OpRead}
	b := &ftl.Request{Opcode: ftl.OpWrite}
	c := &ftl.Request{Opcode: ftl.OpDSM}

	assert.True(t, r.Enqueue(a))
	assert.True(t, r.Enqueue(b))
	assert.False(t, r.Enqueue(c))
	assert.Equal(t, 2, r.Len())

	got, ok := r.Dequeue()
	assert.True(t, ok)
	assert.Same(t, a, got)
	got, ok = r.Dequeue()
	assert.True(t, ok)
	assert.Same(t, b, got)
	_, ok = r.Dequeue()
	assert.False(t, ok)
}
