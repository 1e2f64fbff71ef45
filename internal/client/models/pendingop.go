package models

import (
	"encoding/json"
	"time"
)

// OpKind is the remote mutation a pending op replays.
type OpKind string

const (
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
)

// OpState is the lifecycle of a pending op.
type OpState string

const (
	OpPending   OpState = "pending"
	OpCompleted OpState = "completed"
	OpFailed    OpState = "failed"
)

// PendingOp is one reconciliation step waiting to be replayed against the
// hosted service.
type PendingOp struct {
	ID        string
	Kind      OpKind
	ReviewID  string
	Payload   json.RawMessage
	State     OpState
	Attempts  int
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Patch decodes the update payload.
func (op PendingOp) Patch() (ReviewPatch, error) {
	var p ReviewPatch
	if len(op.Payload) == 0 {
		return p, nil
	}
	err := json.Unmarshal(op.Payload, &p)
	return p, err
}
