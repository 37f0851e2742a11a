// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

// Package notify provides the in-process publish/subscribe bus that
// carries commit notifications from the commit engine to query models, and
// from query models to property models. It wraps watermill's in-process
// gochannel transport rather than its NATS transport: the core never talks
// to another process, so the notification bus never leaves the address
// space of the program that embeds it.
package notify

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/rhythmdb/internal/logging"
	"github.com/tomtom215/rhythmdb/internal/metrics"
)

// Topic names the notification channels publishers and subscribers agree
// on. Each is scoped to one model instance by appending the model's
// identifier, except EntryTopic which is global (the commit engine's only
// audience is query models, which filter by their own query).
type Topic string

const (
	// EntryTopic carries every ChangeRecord and Tick emitted by the commit
	// engine. Query models subscribe to this directly; property models
	// instead subscribe to their bound query model's row topic.
	EntryTopic Topic = "rhythmdb.entries"
)

// ChangeKind identifies which step of a commit produced a ChangeRecord.
type ChangeKind int

const (
	ChangeAdded ChangeKind = iota
	ChangeUpdated
	ChangeDeleted
)

// ChangeRecord is the payload published for entry-added/changed/deleted
// notifications. EntryID is the store's stable per-process integer handle,
// not a pointer, so the payload can cross a marshal/unmarshal boundary even
// though in-process delivery never actually requires it.
type ChangeRecord struct {
	CommitID  uuid.UUID  `json:"commit_id"`
	Kind      ChangeKind `json:"kind"`
	EntryID   uint32     `json:"entry_id"`
	Changes   []PropChange `json:"changes,omitempty"`
}

// PropChange is one (property, old, new) tuple within a ChangeRecord. Values
// are carried as opaque strings here: the notify package does not depend on
// internal/rhythmdb's Value type, so subscribers decode using whatever
// representation the commit engine chose to serialize.
type PropChange struct {
	Property string `json:"property"`
	OldValue string `json:"old_value,omitempty"`
	NewValue string `json:"new_value,omitempty"`
}

// Tick is the aggregate "db-changed" notification published once per
// successful commit, after every ChangeRecord for that commit has been
// published.
type Tick struct {
	CommitID uuid.UUID `json:"commit_id"`
}

// Bus is the process-wide notification backbone. A Bus is safe for
// concurrent use; Publish and Subscribe may be called from any goroutine,
// though in practice only the commit engine publishes and only query/
// property models subscribe.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// NewBus constructs a Bus backed by an in-process gochannel transport. The
// transport is configured to preserve publish order per-topic (the commit
// engine depends on additions being observed before the deletions they
// precede) and to block publish only as long as it takes to hand the
// message to each subscriber's own buffered channel.
func NewBus() *Bus {
	logger := newWatermillLogger(logging.WithComponent("notify"))
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            256,
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: false,
		},
		logger,
	)
	return &Bus{pubsub: pubsub}
}

// PublishChange publishes a ChangeRecord for commit commitID on topic,
// recording dispatch latency for internal/metrics.
func (b *Bus) PublishChange(ctx context.Context, topic Topic, rec ChangeRecord) error {
	start := time.Now()
	defer func() { metrics.RecordNotifyDispatch(time.Since(start)) }()

	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	msg := message.NewMessage(rec.CommitID.String(), payload)
	msg.Metadata.Set("commit_id", rec.CommitID.String())
	return b.pubsub.Publish(string(topic), msg)
}

// PublishTick publishes the aggregate db-changed tick for a commit.
func (b *Bus) PublishTick(ctx context.Context, topic Topic, tick Tick) error {
	payload, err := json.Marshal(tick)
	if err != nil {
		return err
	}
	msg := message.NewMessage(uuid.New().String(), payload)
	msg.Metadata.Set("commit_id", tick.CommitID.String())
	msg.Metadata.Set("kind", "tick")
	return b.pubsub.Publish(string(topic), msg)
}

// PublishJSON marshals payload and publishes it to topic tagged with a
// "kind" metadata key, for packages that define their own row-event payload
// types (internal/querymodel, internal/propertymodel) rather than the
// commit engine's ChangeRecord/Tick.
func (b *Bus) PublishJSON(ctx context.Context, topic Topic, kind string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg := message.NewMessage(uuid.New().String(), data)
	msg.Metadata.Set("kind", kind)
	return b.pubsub.Publish(string(topic), msg)
}

// Subscribe returns a channel of raw watermill messages for topic. Callers
// (query models) decode ChangeRecord/Tick payloads themselves by inspecting
// the "kind" metadata key, and must call msg.Ack() once handled so the
// gochannel transport can advance.
func (b *Bus) Subscribe(ctx context.Context, topic Topic) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, string(topic))
}

// Close shuts down the bus, closing every subscriber channel.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// QueueDepth always reports 0: gochannel does not expose per-topic depth,
// and the bus keeps no backlog count of its own. Nothing in this module
// calls it.
func (b *Bus) QueueDepth(topic Topic) int {
	return 0
}
