// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package ftl

// Statistics counts CMT behavior across all host reads and writes.
type Statistics struct {
	AccessCnt  uint64
	CMTHitCnt  uint64
	CMTMissCnt uint64
}

// HitRatio returns the fraction of map lookups served from the CMT,
// or 0 if there have been none.
func (st Statistics) HitRatio() float64 {
	if st.AccessCnt == 0 {
		return 0
	}
	return float64(st.CMTHitCnt) / float64(st.AccessCnt)
}
