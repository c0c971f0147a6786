package triage

import (
	"context"

	"github.com/google/uuid"
)

// Decision is a human answer to "send this reply?".
type Decision int

const (
	// Declined drops the reply and any meetings for the email.
	Declined Decision = iota
	// Approved sends the reply and schedules the meetings.
	Approved
	// Deferred parks the email until Dispatcher.Resolve is called.
	Deferred
)

func (d Decision) String() string {
	switch d {
	case Approved:
		return "approved"
	case Deferred:
		return "deferred"
	default:
		return "declined"
	}
}

// ConfirmationRequest is what a Confirmer is shown for a complex email.
type ConfirmationRequest struct {
	Email    Email
	Reply    string
	Summary  string
	Meetings []MeetingRecord
}

// Confirmer decides whether a complex email's reply goes out. A blocking
// implementation answers Approved or Declined; a non-blocking one answers
// Deferred and lets the caller resolve the email later.
type Confirmer interface {
	Confirm(ctx context.Context, req ConfirmationRequest) (Decision, error)
}

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(ctx context.Context, req ConfirmationRequest) (Decision, error)

// Confirm calls f.
func (f ConfirmerFunc) Confirm(ctx context.Context, req ConfirmationRequest) (Decision, error) {
	return f(ctx, req)
}

// PauseToken identifies a deferred decision.
type PauseToken string

func newPauseToken() PauseToken {
	return PauseToken(uuid.NewString())
}

// PendingDecision is a complex email parked awaiting a human answer.
type PendingDecision struct {
	Token    PauseToken
	Email    Email
	Reply    string
	Summary  string
	Meetings []MeetingRecord

	// Stored reports whether the email was persisted before it was parked.
	Stored bool
}

// Request returns the confirmation request the decision was deferred from.
func (p PendingDecision) Request() ConfirmationRequest {
	return ConfirmationRequest{
		Email:    p.Email,
		Reply:    p.Reply,
		Summary:  p.Summary,
		Meetings: p.Meetings,
	}
}
