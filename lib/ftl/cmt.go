// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package ftl

import (
	"fmt"

	"git.lukeshu.com/nandsim/lib/containers"
	"git.lukeshu.com/nandsim/lib/nand"
)

// cmtEntry is one cached mapping: the cache's view of maptbl[lpn].
// A dirty entry's mapping has not yet been written to its translation
// page.
type cmtEntry struct {
	lpn   LPN
	ppn   PPN
	dirty bool

	lruEnt *containers.LinkedListEntry[*cmtEntry]
	next   *cmtEntry // hash chain
}

// cmtMgmt is the cached mapping table: a bounded pool of entries,
// indexed by a chained hash table, with LRU eviction.
type cmtMgmt struct {
	entries []cmtEntry

	free containers.LinkedList[*cmtEntry]
	lru  containers.LinkedList[*cmtEntry] // oldest = next to evict

	buckets []*cmtEntry
	mask    uint64
}

func (cm *cmtMgmt) init(totalEntries int) {
	cm.entries = make([]cmtEntry, totalEntries)
	for i := range cm.entries {
		entry := &cm.entries[i]
		entry.lpn = InvalidLPN
		entry.ppn = UnmappedPPN
		cm.free.Store(entry)
	}

	// Power-of-two bucket count so the hash is a mask, not a mod.
	nBuckets := 1
	for nBuckets < totalEntries {
		nBuckets <<= 1
	}
	cm.buckets = make([]*cmtEntry, nBuckets)
	cm.mask = uint64(nBuckets - 1)
}

func (cm *cmtMgmt) hash(lpn LPN) uint64 {
	return uint64(lpn) & cm.mask
}

func (cm *cmtMgmt) find(lpn LPN) *cmtEntry {
	entry := cm.buckets[cm.hash(lpn)]
	for entry != nil && entry.lpn != lpn {
		entry = entry.next
	}
	return entry
}

func (cm *cmtMgmt) hashInsert(entry *cmtEntry) {
	pos := cm.hash(entry.lpn)
	entry.next = cm.buckets[pos]
	cm.buckets[pos] = entry
}

func (cm *cmtMgmt) hashDelete(entry *cmtEntry) bool {
	pos := cm.hash(entry.lpn)
	cur := cm.buckets[pos]
	if cur == entry {
		cm.buckets[pos] = cur.next
		cur.next = nil
		return true
	}
	for cur != nil && cur.next != entry {
		cur = cur.next
	}
	if cur == nil {
		return false
	}
	cur.next = entry.next
	entry.next = nil
	return true
}

// hit looks up a cached mapping, promoting it to most-recently-used
// on success.
func (cm *cmtMgmt) hit(lpn LPN) *cmtEntry {
	entry := cm.find(lpn)
	if entry != nil {
		cm.lru.MoveToNewest(entry.lruEnt)
	}
	return entry
}

// insert caches a mapping as most-recently-used and clean.  The
// caller must have made room first; running the pool dry is fatal.
func (cm *cmtMgmt) insert(lpn LPN, ppn PPN) {
	if cm.free.IsEmpty() {
		panic(fmt.Errorf("ftl: cmt: no free entry to cache lpn=%d", lpn))
	}
	entry := cm.free.TakeOldest()
	entry.lpn = lpn
	entry.ppn = ppn
	entry.dirty = false
	entry.next = nil

	entry.lruEnt = cm.lru.Store(entry)
	cm.hashInsert(entry)
}

// evictEntry drops the least-recently-used cached mapping, writing
// its translation page back out first if the mapping is dirty.
func (s *SSD) evictEntry() {
	cm := &s.cmt

	entry := cm.lru.Oldest().Value
	cm.lru.Delete(entry.lruEnt)
	entry.lruEnt = nil

	if entry.dirty {
		tvpn := TVPN(entry.lpn) / TVPN(s.Params().EntsPerPg)
		ppa := s.getGTDEnt(tvpn)
		// No translation page yet means this is its first
		// write-back; otherwise read the old page before
		// writing the updated one.
		if !ppa.Mapped() {
			s.translationPageNewWrite(tvpn)
		} else {
			s.translationPageRead(ppa, 0)
			s.translationPageWrite(ppa)
		}
	}

	if !cm.hashDelete(entry) {
		panic(fmt.Errorf("ftl: cmt: evicted entry lpn=%d is not in the hash table", entry.lpn))
	}

	entry.dirty = false
	entry.lpn = InvalidLPN
	entry.ppn = UnmappedPPN
	cm.free.Store(entry)
}

// cacheMapping caches lpn -> ppa, evicting the LRU entry first if the
// pool is full.
func (s *SSD) cacheMapping(lpn LPN, ppa nand.PPA) {
	ppn := UnmappedPPN
	if ppa.Mapped() {
		ppn = PPN(ppa.PageIndex(s.Params()))
	}
	if s.cmt.free.IsEmpty() {
		s.evictEntry()
	}
	s.cmt.insert(lpn, ppn)
}
