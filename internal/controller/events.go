package controller

import (
	"context"
	"fmt"

	"github.com/ruthwikreddy07/pm-console/internal/gateway"
	"github.com/ruthwikreddy07/pm-console/pkg/models"
)

// Operation names the gateway call an event reports on.
type Operation string

const (
	OpSend    Operation = "send"
	OpUpload  Operation = "upload"
	OpApprove Operation = "approve"
	OpReject  Operation = "reject"
)

// Event is the completion of one gateway call. Every event is tagged with
// the session it was issued for; Apply refuses to attach a late response
// to whichever session happens to be displayed when it arrives.
type Event interface {
	sessionID() string
}

// Effect is a deferred gateway call. The presentation layer runs effects
// off the UI goroutine and feeds the resulting events back into Apply.
type Effect func(ctx context.Context) Event

// HydrateResult reports a transcript fetch.
type HydrateResult struct {
	RequestID string
	SessionID string
	Messages  []models.Message
	Err       error
}

func (e HydrateResult) sessionID() string { return e.SessionID }

// ExchangeResult reports a send, upload, approve, or reject call.
type ExchangeResult struct {
	RequestID string
	SessionID string
	Op        Operation
	Exchange  *gateway.Exchange
	Err       error
}

func (e ExchangeResult) sessionID() string { return e.SessionID }

// DeleteResult reports the fire-and-forget remote deletion of a session's
// history. Failures are logged, never surfaced.
type DeleteResult struct {
	RequestID string
	SessionID string
	Err       error
}

func (e DeleteResult) sessionID() string { return e.SessionID }

// DispatchError wraps a failed gateway call for logging.
type DispatchError struct {
	Op        Operation
	SessionID string
	Err       error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s failed for session %s: %v", e.Op, e.SessionID, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
