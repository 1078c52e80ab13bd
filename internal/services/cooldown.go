package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/repository"
	"github.com/google/uuid"
)

const day = 24 * time.Hour

// CooldownResult is the outcome of a resubmission check. RetryAfter is set
// only when Allowed is false.
type CooldownResult struct {
	Allowed    bool       `json:"allowed"`
	RetryAfter *time.Time `json:"retry_after"`
}

// CooldownGuard throttles a user to one submission per cooldown window,
// measured from their most recent submission.
type CooldownGuard struct {
	submissions SubmissionRepository
	days        int
	now         Clock
}

func NewCooldownGuard(submissions SubmissionRepository, days int, now Clock) *CooldownGuard {
	if now == nil {
		now = systemClock
	}
	return &CooldownGuard{submissions: submissions, days: days, now: now}
}

func (g *CooldownGuard) CanSubmit(ctx context.Context, userID uuid.UUID) (CooldownResult, error) {
	last, err := g.submissions.LatestByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return CooldownResult{Allowed: true}, nil
	}
	if err != nil {
		return CooldownResult{}, fmt.Errorf("failed to load latest submission: %w", err)
	}

	elapsedDays := int(math.Floor(float64(g.now().Sub(last.CreatedAt)) / float64(day)))
	if elapsedDays < g.days {
		retryAfter := last.CreatedAt.Add(time.Duration(g.days) * day)
		return CooldownResult{Allowed: false, RetryAfter: &retryAfter}, nil
	}
	return CooldownResult{Allowed: true}, nil
}

// windowStart is the earliest creation time that still blocks a submission
// made at now.
func (g *CooldownGuard) windowStart(now time.Time) time.Time {
	return now.Add(-time.Duration(g.days) * day)
}

// fullWindow is the rejection for a submission that collided with one made
// at the same instant.
func (g *CooldownGuard) fullWindow(now time.Time) *CooldownError {
	window := time.Duration(g.days) * day
	return &CooldownError{RetryAfter: now.Add(window), Remaining: window, DaysRemaining: g.days}
}

// Check is CanSubmit folded into an error for the submission flow.
func (g *CooldownGuard) Check(ctx context.Context, userID uuid.UUID) error {
	res, err := g.CanSubmit(ctx, userID)
	if err != nil {
		return err
	}
	if res.Allowed {
		return nil
	}
	wait := res.RetryAfter.Sub(g.now())
	return &CooldownError{
		RetryAfter:    *res.RetryAfter,
		Remaining:     wait,
		DaysRemaining: int(math.Ceil(float64(wait) / float64(day))),
	}
}
