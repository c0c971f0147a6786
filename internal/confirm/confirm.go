// Package confirm provides the strategies that decide whether the reply
// to a complex email is sent: an interactive terminal prompt, fixed
// answers for unattended runs, and resolution of deferred decisions.
package confirm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/teemow/inboxtriage/internal/triage"
)

// Mode names a confirmation strategy on the command line.
type Mode string

const (
	ModePrompt  Mode = "prompt"
	ModeDefer   Mode = "defer"
	ModeApprove Mode = "approve"
	ModeDecline Mode = "decline"
)

// Modes lists every valid Mode.
func Modes() []Mode {
	return []Mode{ModePrompt, ModeDefer, ModeApprove, ModeDecline}
}

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range Modes() {
		if m == valid {
			return m, nil
		}
	}
	return "", fmt.Errorf("invalid confirm mode %q (valid: prompt, defer, approve, decline)", s)
}

// Fixed returns a Confirmer that always answers d.
func Fixed(d triage.Decision) triage.Confirmer {
	return triage.ConfirmerFunc(func(ctx context.Context, _ triage.ConfirmationRequest) (triage.Decision, error) {
		if err := ctx.Err(); err != nil {
			return triage.Declined, err
		}
		return d, nil
	})
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// Resolver completes deferred decisions. *triage.Dispatcher implements it.
type Resolver interface {
	Resolve(ctx context.Context, token triage.PauseToken, approve bool) (*triage.Outcome, error)
}

// ResolveAll asks c about every pending decision in order and resolves it.
// Decisions c defers again stay pending. It stops at the first error.
func ResolveAll(ctx context.Context, r Resolver, c triage.Confirmer, pending []triage.PendingDecision) ([]*triage.Outcome, error) {
	var outcomes []*triage.Outcome
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		d, err := c.Confirm(ctx, p.Request())
		if err != nil {
			return outcomes, fmt.Errorf("confirming %s: %w", p.Token, err)
		}
		if d == triage.Deferred {
			continue
		}

		out, err := r.Resolve(ctx, p.Token, d == triage.Approved)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}
