package domain

import (
	"context"
	"time"
)

// EventType defines the category of a compilation event.
type EventType string

const (
	EventNodeEmitted EventType = "node_emitted"
	EventWarning     EventType = "warning"
	EventCollision   EventType = "token_collision"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// NodeEvent reports that a node handler was emitted.
type NodeEvent struct {
	EventBase
	NodeID   string   `json:"node_id"`
	NodeType NodeType `json:"node_type"`
	Tokens   int      `json:"tokens"`
}

// WarningEvent reports a degraded, non-fatal compilation outcome.
type WarningEvent struct {
	EventBase
	NodeID  string `json:"node_id,omitempty"`
	Message string `json:"message"`
}

// CompileHooks defines callbacks for compiler observability.
type CompileHooks struct {
	OnNodeEmitted func(context.Context, *NodeEvent)
	OnWarning     func(context.Context, *WarningEvent)
	OnCollision   func(context.Context, *WarningEvent)
}
