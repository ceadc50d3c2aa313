package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/profitlens/internal/record"
)

// State is a verification state. Pending is the only non-terminal state.
type State string

const (
	StatePending   State = record.VerificationPending
	StateConfirmed State = record.VerificationConfirmed
	StateCanceled  State = record.VerificationCanceled
)

// ParseTarget accepts the two terminal states, case-insensitively.
func ParseTarget(v string) (State, error) {
	v = strings.TrimSpace(v)
	switch {
	case strings.EqualFold(v, string(StateConfirmed)):
		return StateConfirmed, nil
	case strings.EqualFold(v, string(StateCanceled)), strings.EqualFold(v, "cancelled"):
		return StateCanceled, nil
	default:
		return "", ErrInvalidState
	}
}

// Terminal reports whether a stored verification value can no longer change.
func Terminal(v string) bool {
	v = strings.TrimSpace(v)
	return strings.EqualFold(v, string(StateConfirmed)) || strings.EqualFold(v, string(StateCanceled))
}

// Tag is the lowercase tag appended to a record on transition.
func (s State) Tag() string {
	return strings.ToLower(string(s))
}

type VerifyRequest struct {
	OrderID string `json:"orderId"`
	State   string `json:"state"`
}

// Result reports what a transition touched. Matched counts every record
// carrying the order id; Skipped counts those already terminal.
type Result struct {
	OrderID string   `json:"orderId"`
	State   State    `json:"state"`
	Matched int      `json:"matched"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Sources []string `json:"sources"`
}

type Service interface {
	Verify(ctx context.Context, req VerifyRequest) (Result, error)
}

var (
	ErrInvalidState     = errors.New("invalid_verification_state")
	ErrInvalidOrderID   = errors.New("invalid_order_id")
	ErrOrderNotFound    = errors.New("order_not_found")
	ErrAlreadyFinalized = errors.New("order_already_finalized")
)
