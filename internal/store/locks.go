// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package store

import (
	"hash/fnv"
	"sort"
	"sync"
)

const lockStripes = 256

// keyLocks serializes read-modify-write transactions on the same document
// key inside this process. Badger still detects conflicts; the stripes keep
// hot documents (a heavily liked post) from exhausting the retry budget.
type keyLocks struct {
	stripes [lockStripes]sync.Mutex
}

func stripeOf(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % lockStripes)
}

// lock acquires the stripes for keys in ascending order and returns the
// matching unlock. Keys that share a stripe lock it once.
func (l *keyLocks) lock(keys ...string) func() {
	idx := make([]int, 0, len(keys))
	seen := make(map[int]struct{}, len(keys))
	for _, k := range keys {
		i := stripeOf(k)
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		idx = append(idx, i)
	}
	sort.Ints(idx)
	for _, i := range idx {
		l.stripes[i].Lock()
	}
	return func() {
		for j := len(idx) - 1; j >= 0; j-- {
			l.stripes[idx[j]].Unlock()
		}
	}
}
