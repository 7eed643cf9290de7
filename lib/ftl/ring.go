// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package ftl

// Ring is a bounded single-producer single-consumer request queue
// between a submitter and the worker loop.  Enqueue and Dequeue never
// block.
type Ring struct {
	ch chan *Request
}

// NewRing returns a Ring that holds up to size requests.
func NewRing(size int) *Ring {
	return &Ring{
		ch: make(chan *Request, size),
	}
}

// Enqueue adds a request, reporting false if the ring is full.
func (r *Ring) Enqueue(req *Request) bool {
	select {
	case r.ch <- req:
		return true
	default:
		return false
	}
}

// Dequeue removes the oldest request, reporting false if the ring is
// empty.
func (r *Ring) Dequeue() (*Request, bool) {
	select {
	case req := <-r.ch:
		return req, true
	default:
		return nil, false
	}
}

// Len returns how many requests are waiting in the ring.
func (r *Ring) Len() int {
	return len(r.ch)
}
