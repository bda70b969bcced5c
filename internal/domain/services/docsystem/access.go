package docsystem

import (
	"context"
)

// AccessOutcome is what the gate allows the caller to do with a target
type AccessOutcome int

const (
	// OutcomeServe means content may be returned inline
	OutcomeServe AccessOutcome = iota
	// OutcomeRedirect means the caller is a member and should use the authenticated app
	OutcomeRedirect
)

// AccessTarget is the visibility-relevant part of a node or project
type AccessTarget struct {
	ProjectID string
	IsPublic  bool
}

// AccessDecision is the gate's verdict for a permitted request
type AccessDecision struct {
	Outcome         AccessOutcome
	IsAuthenticated bool
}

// AccessGate evaluates public/private visibility for a possibly anonymous caller
type AccessGate interface {
	// Evaluate returns a decision, or an AccessDenied error when the caller may not see the target.
	// userID is empty for anonymous callers.
	Evaluate(ctx context.Context, target AccessTarget, userID string) (*AccessDecision, error)
}
