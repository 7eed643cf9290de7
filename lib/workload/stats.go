// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package workload

import (
	"fmt"
	"math/bits"

	"git.lukeshu.com/nandsim/lib/textui"
)

// LatSummary aggregates a stream of latencies, in nanoseconds.
type LatSummary struct {
	Cnt int64
	Sum int64
	Min int64
	Max int64

	// Buckets[0] counts zero latencies; Buckets[i] for i>0 counts
	// latencies in [2^(i-1),2^i) ns; the last bucket also catches
	// everything larger.
	Buckets [32]uint64
}

var _ fmt.Stringer = LatSummary{}

// Observe records one latency.
func (l *LatSummary) Observe(lat int64) {
	if l.Cnt == 0 || lat < l.Min {
		l.Min = lat
	}
	if lat > l.Max {
		l.Max = lat
	}
	l.Cnt++
	l.Sum += lat

	idx := bits.Len64(uint64(lat))
	if idx >= len(l.Buckets) {
		idx = len(l.Buckets) - 1
	}
	l.Buckets[idx]++
}

// Mean returns the mean observed latency, or 0 if there have been no
// observations.
func (l LatSummary) Mean() float64 {
	if l.Cnt == 0 {
		return 0
	}
	return float64(l.Sum) / float64(l.Cnt)
}

func (l *LatSummary) absorb(other LatSummary) {
	if other.Cnt == 0 {
		return
	}
	if l.Cnt == 0 || other.Min < l.Min {
		l.Min = other.Min
	}
	if other.Max > l.Max {
		l.Max = other.Max
	}
	l.Cnt += other.Cnt
	l.Sum += other.Sum
	for i := range l.Buckets {
		l.Buckets[i] += other.Buckets[i]
	}
}

// String implements fmt.Stringer.
func (l LatSummary) String() string {
	if l.Cnt == 0 {
		return "n=0"
	}
	return textui.Sprintf("n=%v avg=%v max=%v",
		l.Cnt,
		textui.Metric(l.Mean()/1e9, "s"),
		textui.Metric(float64(l.Max)/1e9, "s"))
}

// Results aggregates what every poller saw over a run.
type Results struct {
	Reads  uint64
	Writes uint64
	Trims  uint64

	// HostHits counts reads that were served from the host page
	// cache without ever reaching the device; they are included
	// in Reads but not in ReadLat.
	HostHits uint64

	ReadLat  LatSummary
	WriteLat LatSummary
}

var _ fmt.Stringer = Results{}

func (r *Results) absorb(other Results) {
	r.Reads += other.Reads
	r.Writes += other.Writes
	r.Trims += other.Trims
	r.HostHits += other.HostHits
	r.ReadLat.absorb(other.ReadLat)
	r.WriteLat.absorb(other.WriteLat)
}

// String implements fmt.Stringer.
func (r Results) String() string {
	return textui.Sprintf("reads=%v (%v from host cache) writes=%v trims=%v ; read[%v] write[%v]",
		r.Reads, r.HostHits, r.Writes, r.Trims, r.ReadLat, r.WriteLat)
}
