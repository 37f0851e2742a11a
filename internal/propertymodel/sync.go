// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package propertymodel

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/rhythmdb/internal/logging"
	"github.com/tomtom215/rhythmdb/internal/querymodel"
	"github.com/tomtom215/rhythmdb/internal/rhythmdberrors"
)

// Resync fully rebuilds the grouping from base's current rows, releasing
// every representative reference first. Call it once after construction
// before Start; SetBase runs it itself.
func (m *Model) Resync(ctx context.Context) {
	m.mu.Lock()
	for _, g := range m.groups {
		if m.store != nil && g.rep != nil {
			m.store.Unref(g.rep)
		}
	}
	m.groups = make(map[string]*group)
	m.members = make(map[uint32]string)
	m.order = nil

	for _, e := range m.base.Rows() {
		m.addMember(ctx, e)
	}
	m.mu.Unlock()

	m.publishComplete(ctx)
}

// Start begins consuming base's row events in a dedicated goroutine until
// ctx is cancelled. Call Resync first to perform the initial population.
func (m *Model) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()

	msgs, err := m.bus.Subscribe(runCtx, m.base.Topic())
	if err != nil {
		cancel()
		return err
	}

	go m.consume(runCtx, msgs)
	return nil
}

// Stop cancels the model's background consumer goroutine, if running.
func (m *Model) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (m *Model) consume(ctx context.Context, msgs <-chan *message.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			m.handleMessage(ctx, msg)
			msg.Ack()
		}
	}
}

func (m *Model) handleMessage(ctx context.Context, msg *message.Message) {
	log := logging.WithComponent("propertymodel")

	ev, err := unmarshalRowEvent(msg.Payload)
	if err != nil {
		log.Err(err).Msg("failed to decode row event")
		return
	}

	// Kind values mirror querymodel.RowEventKind.wireName(); row-moved,
	// complete and post-entry-delete carry nothing this model needs to act
	// on and are ignored.
	switch ev.Kind {
	case "row-inserted":
		e, ok := m.base.EntryByID(ev.EntryID)
		if !ok {
			return
		}
		m.mu.Lock()
		if _, already := m.members[ev.EntryID]; !already {
			m.addMember(ctx, e)
		}
		m.mu.Unlock()

	case "row-deleted":
		m.mu.Lock()
		m.removeMember(ctx, ev.EntryID)
		m.mu.Unlock()

	case "entry-prop-changed":
		if ev.Property != m.property.Name() {
			return
		}
		m.mu.Lock()
		m.changeMember(ctx, ev.EntryID, ev.NewValue)
		m.mu.Unlock()
	}
}

// SetBase rebinds this model onto a different query model and fully
// resynchronises: it stops the consumer subscribed to the old base's row
// events, releases every old group's representative reference and rebuilds
// the grouping from newBase's current rows. Call Start again afterward to
// consume newBase's row events.
func (m *Model) SetBase(newBase *querymodel.Model) error {
	if newBase == nil {
		return rhythmdberrors.Invalid("property model requires a non-nil base query model")
	}
	m.Stop()
	m.mu.Lock()
	m.base = newBase
	m.mu.Unlock()
	m.Resync(context.Background())
	return nil
}
