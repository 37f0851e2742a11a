// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package querymodel

import (
	"github.com/tomtom215/rhythmdb/internal/cache"
	"github.com/tomtom215/rhythmdb/internal/rhythmdb"
)

// limitBudget tracks the running Duration/Size total across a Model's
// matched slice using internal/cache's FenwickTree, the same prefix-sum
// structure the teacher uses for temporal bucket aggregation, relabelled
// here so bucket index means sort position rather than a time bucket.
//
// FenwickTree is fixed-size at construction and has no resize operation, so
// any structural change to matched (an insert or delete, which shifts every
// following index) forces rebuild to reconstruct the tree from scratch
// rather than a point Update — still O(n log n), and simpler than tracking
// per-index shifts through the tree directly.
type limitBudget struct {
	tree *cache.FenwickTree
	prop rhythmdb.Property
}

func newLimitBudget(prop rhythmdb.Property) *limitBudget {
	return &limitBudget{tree: cache.NewFenwickTree(1), prop: prop}
}

func (b *limitBudget) rebuild(matched []*rhythmdb.Entry) {
	n := len(matched)
	if n < 1 {
		n = 1
	}
	b.tree = cache.NewFenwickTree(n)
	for i, e := range matched {
		if i >= len(matched) {
			break
		}
		b.tree.Update(i, metricOf(e, b.prop))
	}
}

func metricOf(e *rhythmdb.Entry, prop rhythmdb.Property) int64 {
	return e.Get(prop).Int64
}

// cut returns the count of leading entries (in matched's current order)
// whose cumulative metric stays within budget. The first entry whose
// inclusion would exceed budget is excluded entirely; there are no partial
// entries.
func (b *limitBudget) cut(matched []*rhythmdb.Entry, budget int64) int {
	b.rebuild(matched)
	n := len(matched)
	var sum int64
	for i := 0; i < n; i++ {
		v := b.tree.Get(i)
		if sum+v > budget {
			return i
		}
		sum += v
	}
	return n
}
