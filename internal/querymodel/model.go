// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

// Package querymodel implements live ordered views over the entry store: a
// sorted, optionally filtered, optionally limited sequence of entries that
// updates incrementally as the store commits changes, publishing
// row-inserted/row-deleted/row-moved/entry-prop-changed/complete/
// post-entry-delete notifications to its own subscribers rather than
// requiring every listener to replay the commit bus itself.
package querymodel

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/goccy/go-json"

	"github.com/tomtom215/rhythmdb/internal/notify"
	"github.com/tomtom215/rhythmdb/internal/query"
	"github.com/tomtom215/rhythmdb/internal/rhythmdb"
	"github.com/tomtom215/rhythmdb/internal/rhythmdberrors"
)

// Mode identifies how a Model's membership is populated.
type Mode int

const (
	// ModeQueryDriven models drain the entry store filtered by Query and
	// thereafter update from the store's commit bus.
	ModeQueryDriven Mode = iota
	// ModeExplicit models have no query; membership and order are entirely
	// caller-controlled via AddEntry/RemoveEntry/MoveEntry/Reorder.
	ModeExplicit
	// ModeChained models observe a base Model's row events instead of the
	// store directly, applying their own Query on top.
	ModeChained
)

// SortDirection orders a Model's Property-based comparator.
type SortDirection int

const (
	Ascending SortDirection = iota
	Descending
)

// SortSpec describes a Model's total order. If Less is set it is used
// verbatim as a caller-supplied total order and Property/Direction are
// ignored; otherwise entries are compared by Property in Direction, with
// location used to break ties so the order is total.
type SortSpec struct {
	Property  rhythmdb.Property
	Direction SortDirection
	Less      func(a, b *rhythmdb.Entry) bool
}

// LimitKind identifies a Model's population budget.
type LimitKind int

const (
	LimitNone LimitKind = iota
	LimitCount
	LimitDuration
	LimitSize
)

// Limit bounds how many leading (in sort order) entries are visible. Count
// caps the row count directly; Duration and Size accumulate PropDuration or
// PropFileSize in sort order and cut at the first entry whose inclusion
// would exceed Budget, excluding that entry entirely.
type Limit struct {
	Kind   LimitKind
	Count  int
	Budget int64
}

// RowEventKind identifies one notification a Model publishes to its
// subscribers.
type RowEventKind int

const (
	RowInserted RowEventKind = iota
	RowDeleted
	RowMoved
	RowPropChanged
	Complete
	PostEntryDelete
)

func (k RowEventKind) wireName() string {
	switch k {
	case RowInserted:
		return "row-inserted"
	case RowDeleted:
		return "row-deleted"
	case RowMoved:
		return "row-moved"
	case RowPropChanged:
		return "entry-prop-changed"
	case Complete:
		return "complete"
	case PostEntryDelete:
		return "post-entry-delete"
	default:
		return "unknown"
	}
}

// RowEvent is the payload published (and received, for chained models) on a
// Model's own topic.
type RowEvent struct {
	Kind     string `json:"kind"`
	EntryID  uint32 `json:"entry_id,omitempty"`
	Pos      int    `json:"pos,omitempty"`
	From     int    `json:"from,omitempty"`
	To       int    `json:"to,omitempty"`
	Property string `json:"property,omitempty"`
	OldValue string `json:"old_value,omitempty"`
	NewValue string `json:"new_value,omitempty"`
}

var modelSeq atomic.Uint64

// Model is a live ordered view. It is thread-affine after construction:
// Start must be called from, and row events are delivered to subscribers
// of, one logical notification-dispatch goroutine, per the store's
// "query and property models are thread-affine" concurrency rule.
type Model struct {
	mu sync.RWMutex

	mode Mode

	store *rhythmdb.Store
	bus   *notify.Bus
	base  *Model // non-nil only for ModeChained

	query      *query.Query
	sort       SortSpec
	limit      Limit
	showHidden bool

	topic notify.Topic

	matched      []*rhythmdb.Entry
	visibleCount int
	tracked      map[uint32]*rhythmdb.Entry

	budget *limitBudget

	cancel context.CancelFunc
}

// New constructs a query-driven Model over store, filtered by q (preprocess
// is applied internally) and ordered/limited per sort and limit.
func New(store *rhythmdb.Store, bus *notify.Bus, q *query.Query, sort SortSpec, limit Limit, showHidden bool) (*Model, error) {
	if err := validateSort(sort); err != nil {
		return nil, err
	}
	m := newModel(ModeQueryDriven, store, bus, sort, limit, showHidden)
	if q != nil {
		m.query = query.Preprocess(q)
	}
	return m, nil
}

// NewExplicit constructs an explicit Model with no query: membership and
// order are entirely controlled by AddEntry/RemoveEntry/MoveEntry/Reorder.
func NewExplicit(store *rhythmdb.Store, bus *notify.Bus, limit Limit) *Model {
	m := newModel(ModeExplicit, store, bus, SortSpec{}, limit, true)
	return m
}

// NewChained constructs a Model whose membership tracks base's ordered rows
// instead of the entry store, applying q on top. Returns ChainCycle if base
// (transitively) already chains onto the model being constructed would form
// a cycle — in practice this means base must not equal a model already
// reachable from the new model's own ancestry, which cannot happen for a
// freshly constructed Model, but the check exists for callers that rebind a
// Model's base after construction via SetBase.
func NewChained(base *Model, q *query.Query, sort SortSpec, limit Limit, showHidden bool) (*Model, error) {
	if base == nil {
		return nil, rhythmdberrors.Invalid("chained query model requires a non-nil base")
	}
	if err := validateSort(sort); err != nil {
		return nil, err
	}
	m := newModel(ModeChained, base.store, base.bus, sort, limit, showHidden)
	m.base = base
	if q != nil {
		m.query = query.Preprocess(q)
	}
	return m, nil
}

func newModel(mode Mode, store *rhythmdb.Store, bus *notify.Bus, sort SortSpec, limit Limit, showHidden bool) *Model {
	id := modelSeq.Add(1)
	m := &Model{
		mode:       mode,
		store:      store,
		bus:        bus,
		sort:       sort,
		limit:      limit,
		showHidden: showHidden,
		topic:      notify.Topic(fmt.Sprintf("rhythmdb.querymodel.%d", id)),
		tracked:    make(map[uint32]*rhythmdb.Entry),
	}
	if limit.Kind == LimitDuration {
		m.budget = newLimitBudget(rhythmdb.PropDuration)
	} else if limit.Kind == LimitSize {
		m.budget = newLimitBudget(rhythmdb.PropFileSize)
	}
	return m
}

// validateSort rejects sorting by a non-comparable (synthetic/write-only)
// property, per the "InvalidSort if the sort property is non-comparable"
// error contract.
func validateSort(s SortSpec) error {
	if s.Less != nil {
		return nil
	}
	switch s.Property {
	case rhythmdb.PropSearchMatch, rhythmdb.PropStreamTitle, rhythmdb.PropStreamArtist, rhythmdb.PropStreamAlbum:
		return rhythmdberrors.Invalid("property %q is not comparable", s.Property.Name())
	}
	return nil
}

// Topic returns the notify.Topic this Model publishes row events on, for
// property models and chained children to subscribe to.
func (m *Model) Topic() notify.Topic { return m.topic }

// Len returns the number of currently visible rows.
func (m *Model) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.visibleCount
}

// RowAt returns the entry currently visible at position pos.
func (m *Model) RowAt(pos int) (*rhythmdb.Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if pos < 0 || pos >= m.visibleCount {
		return nil, false
	}
	return m.matched[pos], true
}

// Rows returns a snapshot slice of the currently visible entries in order.
func (m *Model) Rows() []*rhythmdb.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*rhythmdb.Entry, m.visibleCount)
	copy(out, m.matched[:m.visibleCount])
	return out
}

// less orders a and b under m's sort spec, breaking ties by location so the
// order is total.
func (m *Model) less(a, b *rhythmdb.Entry) bool {
	if m.sort.Less != nil {
		return m.sort.Less(a, b)
	}
	cmp := compareValues(m.sort.Property, a.Get(m.sort.Property), b.Get(m.sort.Property))
	if cmp == 0 {
		return locationOf(a) < locationOf(b)
	}
	if m.sort.Direction == Descending {
		return cmp > 0
	}
	return cmp < 0
}

func locationOf(e *rhythmdb.Entry) string {
	if loc := e.Location(); loc != nil {
		return loc.String()
	}
	return ""
}

func compareValues(prop rhythmdb.Property, a, b rhythmdb.Value) int {
	switch prop.ValueType() {
	case rhythmdb.TypeString:
		return compareBytes(sortKeyOf(a), sortKeyOf(b))
	case rhythmdb.TypeULong:
		return compareInt64(int64(a.ULong), int64(b.ULong))
	case rhythmdb.TypeInt64:
		return compareInt64(a.Int64, b.Int64)
	case rhythmdb.TypeJulianDay:
		return compareInt64(a.JulianDay, b.JulianDay)
	case rhythmdb.TypeTimestamp:
		return compareInt64(a.Timestamp, b.Timestamp)
	case rhythmdb.TypeDouble:
		switch {
		case a.Double < b.Double:
			return -1
		case a.Double > b.Double:
			return 1
		default:
			return 0
		}
	case rhythmdb.TypeBoolean:
		return compareInt64(boolToInt(a.Bool), boolToInt(b.Bool))
	default:
		return 0
	}
}

func sortKeyOf(v rhythmdb.Value) []byte {
	if v.Str == nil {
		return nil
	}
	return v.Str.SortKey()
}

func compareBytes(a, b []byte) int {
	switch {
	case len(a) == 0 && len(b) == 0:
		return 0
	default:
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
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// matchesLocked reports whether e currently satisfies the model's filter
// (query plus show_hidden). Callers must hold m.mu.
func (m *Model) matchesLocked(e *rhythmdb.Entry) bool {
	if e.Deleted() {
		return false
	}
	if !m.showHidden && e.Hidden() {
		return false
	}
	if m.query == nil || m.query.Empty() {
		return true
	}
	return query.Evaluate(m.query, e.Get)
}

// EntryByID returns the live *rhythmdb.Entry backing id, if this model
// currently holds or can reach one, for subscribers (property models,
// chained models) that only learn an entry's id from a RowEvent.
func (m *Model) EntryByID(id uint32) (*rhythmdb.Entry, bool) {
	return m.resolve(id)
}

// resolve looks up the live *rhythmdb.Entry for id, preferring the model's
// own tracked set (needed once the store or base model has already released
// its index slot for a deleted entry) and falling back to the backing
// store or base model for entries not yet tracked.
func (m *Model) resolve(id uint32) (*rhythmdb.Entry, bool) {
	m.mu.RLock()
	if e, ok := m.tracked[id]; ok {
		m.mu.RUnlock()
		return e, true
	}
	m.mu.RUnlock()

	switch m.mode {
	case ModeChained:
		return m.base.resolve(id)
	default:
		if m.store == nil {
			return nil, false
		}
		return m.store.LookupByID(id)
	}
}

func unmarshalRowEvent(data []byte) (RowEvent, error) {
	var ev RowEvent
	err := json.Unmarshal(data, &ev)
	return ev, err
}
