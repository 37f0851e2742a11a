// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

/*
Package cache provides small, allocation-conscious data structures reused by the
entry database's hot paths: a probabilistic membership filter for the atom pool,
a prefix trie of folded strings, and a Fenwick tree for running limit totals in
query models.

# BloomFilter

A fixed-size bit array with k hash functions, used by internal/atom as a
negative-membership pre-check in Intern: when the filter reports a string as
definitely absent, Intern skips the read-locked map probe and goes straight to
the write path that creates the atom. A positive answer only means "maybe
present", so the map is still checked under the read lock.

# Trie

A case-folded prefix tree supporting prefix and exact-match searches.
internal/atom inserts every atom's folded form into one on Intern and removes it
on Release; the pool's own lookups (Lookup, MatchFolded) scan its raw-string map
and do not read the trie.

# FenwickTree

A binary indexed tree giving O(log n) prefix-sum queries and point updates.
internal/querymodel uses one per Duration/Size-limited model to track the
running total of a numeric property across the model's sort order, so finding
"does including the next entry exceed the budget" never requires re-summing the
whole prefix.
*/
package cache
