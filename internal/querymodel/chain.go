// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package querymodel

import "github.com/tomtom215/rhythmdb/internal/rhythmdberrors"

// SetBase rebinds a chained model onto a different base, fully
// resynchronising: the caller must call Stop then DoQuery/Start again
// afterwards to pick up the new base's current rows. Returns ChainCycle if
// newBase is m itself or (transitively, via newBase's own base chain)
// already chains onto m.
func (m *Model) SetBase(newBase *Model) error {
	if m.mode != ModeChained {
		return rhythmdberrors.Invalid("SetBase is only valid on a chained query model")
	}
	if newBase == nil {
		return rhythmdberrors.Invalid("chained query model requires a non-nil base")
	}
	if wouldCycle(m, newBase) {
		return rhythmdberrors.ChainCycle("chaining onto %p would create a cycle", newBase)
	}

	m.mu.Lock()
	m.base = newBase
	m.store = newBase.store
	m.bus = newBase.bus
	m.mu.Unlock()
	return nil
}

// wouldCycle reports whether chaining m onto candidate would create a
// cycle, i.e. whether m is reachable by walking candidate's own base chain.
func wouldCycle(m, candidate *Model) bool {
	for b := candidate; b != nil; b = b.base {
		if b == m {
			return true
		}
	}
	return false
}
