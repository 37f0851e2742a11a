// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

// Package propertymodel implements grouping views bound to a query model: a
// sort-ordered enumeration of the distinct values a property takes across a
// query model's rows, each paired with a count and a representative entry,
// plus a synthetic "All" row whose count is the sum of every other row.
// Re-deriving the sorted key order wholesale on every structural change,
// rather than maintaining insertion position incrementally, follows the
// collect-then-sort.Slice idiom internal/cache's trie uses for its own
// count-ranked enumeration.
package propertymodel

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/goccy/go-json"

	"github.com/tomtom215/rhythmdb/internal/notify"
	"github.com/tomtom215/rhythmdb/internal/querymodel"
	"github.com/tomtom215/rhythmdb/internal/rhythmdb"
	"github.com/tomtom215/rhythmdb/internal/rhythmdberrors"
)

// AllDisplay is the display text of the synthetic aggregate row always
// present at position 0.
const AllDisplay = "All"

// RowEventKind identifies one notification a Model publishes to its
// subscribers.
type RowEventKind int

const (
	RowInserted RowEventKind = iota
	RowDeleted
	PreRowDeletion
	Complete
)

func (k RowEventKind) wireName() string {
	switch k {
	case RowInserted:
		return "row-inserted"
	case RowDeleted:
		return "row-deleted"
	case PreRowDeletion:
		return "pre-row-deletion"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// RowEvent is the payload published on a Model's own topic.
type RowEvent struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
	Count int    `json:"count,omitempty"`
}

// Row is one enumerated value of a Model: either the synthetic "All" row
// (Representative is nil) or a distinct value the tracked property takes.
type Row struct {
	Display        string
	Count          int
	Representative *rhythmdb.Entry
}

type group struct {
	display string
	sortKey []byte
	count   int
	rep     *rhythmdb.Entry // ref held on the store
}

var modelSeq atomic.Uint64

// Model is a live grouping view bound to exactly one query model's rows,
// keyed on a single string-valued property.
type Model struct {
	mu sync.RWMutex

	store    *rhythmdb.Store
	bus      *notify.Bus
	base     *querymodel.Model
	property rhythmdb.Property

	topic notify.Topic

	groups  map[string]*group
	order   []string // sorted keys into groups, excluding the synthetic All row
	members map[uint32]string

	cancel context.CancelFunc
}

// New constructs a Model grouping base's rows by property, which must be a
// string-valued, comparable property (not a synthetic or stream field).
// Call Resync to perform the initial population and Start to begin
// consuming base's incremental row events.
func New(store *rhythmdb.Store, bus *notify.Bus, base *querymodel.Model, property rhythmdb.Property) (*Model, error) {
	if base == nil {
		return nil, rhythmdberrors.Invalid("property model requires a non-nil base query model")
	}
	if property.ValueType() != rhythmdb.TypeString {
		return nil, rhythmdberrors.Invalid("property %q is not groupable: not string-valued", property.Name())
	}
	id := modelSeq.Add(1)
	m := &Model{
		store:    store,
		bus:      bus,
		base:     base,
		property: property,
		topic:    notify.Topic(fmt.Sprintf("rhythmdb.propertymodel.%d", id)),
		groups:   make(map[string]*group),
		members:  make(map[uint32]string),
	}
	return m, nil
}

// Topic returns the notify.Topic this Model publishes row events on.
func (m *Model) Topic() notify.Topic { return m.topic }

// Len returns the number of rows, including the synthetic "All" row.
func (m *Model) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order) + 1
}

// RowAt returns the row at position pos; position 0 is always the
// synthetic "All" row.
func (m *Model) RowAt(pos int) (Row, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if pos < 0 || pos > len(m.order) {
		return Row{}, false
	}
	if pos == 0 {
		return Row{Display: AllDisplay, Count: len(m.members)}, true
	}
	g := m.groups[m.order[pos-1]]
	return Row{Display: g.display, Count: g.count, Representative: g.rep}, true
}

// Rows returns a snapshot slice of every row, including "All" at index 0.
func (m *Model) Rows() []Row {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Row, 0, len(m.order)+1)
	out = append(out, Row{Display: AllDisplay, Count: len(m.members)})
	for _, key := range m.order {
		g := m.groups[key]
		out = append(out, Row{Display: g.display, Count: g.count, Representative: g.rep})
	}
	return out
}

func displayOf(e *rhythmdb.Entry, property rhythmdb.Property) string {
	v := e.Get(property)
	if v.Str == nil {
		return ""
	}
	return v.Str.String()
}

func sortKeyOf(e *rhythmdb.Entry, property rhythmdb.Property) []byte {
	if sortnameProp, ok := property.SortnameOf(); ok {
		if v := e.Get(sortnameProp); v.Str != nil && len(v.Str.String()) > 0 {
			return v.Str.SortKey()
		}
	}
	v := e.Get(property)
	if v.Str == nil {
		return nil
	}
	return v.Str.SortKey()
}

// rebuildOrder re-derives the sorted key order from groups. Callers must
// hold m.mu.
func (m *Model) rebuildOrder() {
	order := make([]string, 0, len(m.groups))
	for key := range m.groups {
		order = append(order, key)
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := m.groups[order[i]], m.groups[order[j]]
		c := compareBytes(a.sortKey, b.sortKey)
		if c != 0 {
			return c < 0
		}
		return a.display < b.display
	})
	m.order = order
}

func compareBytes(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func unmarshalRowEvent(data []byte) (querymodel.RowEvent, error) {
	var ev querymodel.RowEvent
	err := json.Unmarshal(data, &ev)
	return ev, err
}
