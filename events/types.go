package events

import (
	"time"
)

// EventType is an enum-like string type for node events
type EventType string

const (
	EventBlobAccepted      EventType = "BlobAccepted"
	EventChainBootstrapped EventType = "ChainBootstrapped"
)

// NodeEvent represents any event published on the bus
type NodeEvent interface {
	Type() EventType
	Timestamp() time.Time
}

// BlobAccepted fires when a gossiped blob passes deduplication and is queued
// for rebroadcast.
type BlobAccepted struct {
	BlobID    string
	Fanout    int
	timestamp time.Time
}

func NewBlobAccepted(blobID string, fanout int) *BlobAccepted {
	return &BlobAccepted{BlobID: blobID, Fanout: fanout, timestamp: time.Now()}
}

func (e *BlobAccepted) Type() EventType      { return EventBlobAccepted }
func (e *BlobAccepted) Timestamp() time.Time { return e.timestamp }

// ChainBootstrapped fires once at startup when the chain handle is ready.
type ChainBootstrapped struct {
	Root      string
	Tip       string
	Mode      string
	timestamp time.Time
}

func NewChainBootstrapped(root, tip, mode string) *ChainBootstrapped {
	return &ChainBootstrapped{Root: root, Tip: tip, Mode: mode, timestamp: time.Now()}
}

func (e *ChainBootstrapped) Type() EventType      { return EventChainBootstrapped }
func (e *ChainBootstrapped) Timestamp() time.Time { return e.timestamp }
