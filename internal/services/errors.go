package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	ErrProfileNotFound    = errors.New("profile not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidTransition  = errors.New("submission is no longer pending")
	ErrAccountExists      = errors.New("an account with this email already exists, sign in to continue")
	ErrEmailTaken         = errors.New("email already registered")
	ErrClaimRequired      = errors.New("this email belongs to a guest checkout, use the claim token from that checkout to register")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// ValidationError rejects a request before any external call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// CooldownError reports a resubmission attempted inside the cooldown window.
// Remaining is measured on the guard's clock.
type CooldownError struct {
	RetryAfter    time.Time
	Remaining     time.Duration
	DaysRemaining int
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("you can submit again in %d days, please wait until %s",
		e.DaysRemaining, e.RetryAfter.UTC().Format("2006-01-02"))
}

// UpstreamError wraps a billing or identity provider failure. Error returns
// the provider's message unchanged.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string { return e.Err.Error() }
func (e *UpstreamError) Unwrap() error { return e.Err }

func upstream(op string, err error) error {
	return &UpstreamError{Op: op, Err: err}
}

// CancellationError aggregates per-subscription cancellation failures.
type CancellationError struct {
	Failed map[string]error
}

func (e *CancellationError) Error() string {
	ids := make([]string, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id+": "+e.Failed[id].Error())
	}
	return fmt.Sprintf("failed to cancel %d subscription(s): %s", len(e.Failed), strings.Join(parts, "; "))
}

func (e *CancellationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, err := range e.Failed {
		errs = append(errs, err)
	}
	return errs
}
