package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/repository"
	"github.com/google/uuid"
)

const (
	minAge         = 16
	maxAge         = 100
	minPullUps     = 1
	maxPullUps     = 100
	maxListLimit   = 100
	otherClub      = "Other"
	unknownField   = "Unknown"
	noClub         = "None"
	FilterAll      = "all"
	defaultListLim = 20
)

var validGenders = map[string]bool{"male": true, "female": true, "other": true}

// SubmissionService is the submission ledger: creation behind the cooldown,
// and the pending -> approved|rejected review state machine.
type SubmissionService struct {
	submissions SubmissionRepository
	profiles    *ProfileService
	profileRepo ProfileRepository
	cooldown    *CooldownGuard
	now         Clock
}

func NewSubmissionService(submissions SubmissionRepository, profileRepo ProfileRepository, profiles *ProfileService, cooldown *CooldownGuard, now Clock) *SubmissionService {
	if now == nil {
		now = systemClock
	}
	return &SubmissionService{
		submissions: submissions,
		profiles:    profiles,
		profileRepo: profileRepo,
		cooldown:    cooldown,
		now:         now,
	}
}

// Submit validates the claim, enforces the cooldown, refreshes the owner's
// profile and records a pending submission.
func (s *SubmissionService) Submit(ctx context.Context, userID uuid.UUID, req *dto.CreateSubmissionRequest) (*models.Submission, error) {
	if err := normalizeSubmission(req); err != nil {
		return nil, err
	}
	if err := s.cooldown.Check(ctx, userID); err != nil {
		return nil, err
	}

	details := models.ProfileDetails{
		FullName:        req.FullName,
		Email:           req.Email,
		Age:             req.Age,
		Gender:          req.Gender,
		Region:          req.Region,
		ClubAffiliation: req.ClubAffiliation,
	}
	if _, err := s.profiles.CompleteProfile(ctx, userID, details); err != nil {
		return nil, err
	}

	now := s.now()
	submission := newSubmission(userID, req, now)
	created, err := s.submissions.CreateIfNoneSince(ctx, submission, s.cooldown.windowStart(now))
	if err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}
	if !created {
		// Lost the race to a concurrent submission from the same user.
		if err := s.cooldown.Check(ctx, userID); err != nil {
			return nil, err
		}
		return nil, s.cooldown.fullWindow(now)
	}
	slog.Info("submission created", "user_id", userID, "submission_id", submission.ID, "operation", "create_submission")
	return submission, nil
}

// Create inserts a submission without consulting the cooldown. Status is
// always pending regardless of input.
func (s *SubmissionService) Create(ctx context.Context, userID uuid.UUID, req *dto.CreateSubmissionRequest) (*models.Submission, error) {
	submission := newSubmission(userID, req, s.now())
	if err := s.submissions.Create(ctx, submission); err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}
	slog.Info("submission created", "user_id", userID, "submission_id", submission.ID, "operation", "create_submission")
	return submission, nil
}

func newSubmission(userID uuid.UUID, req *dto.CreateSubmissionRequest, now time.Time) *models.Submission {
	return &models.Submission{
		ID:              uuid.New(),
		UserID:          userID,
		FullName:        req.FullName,
		Email:           req.Email,
		Age:             req.Age,
		Gender:          req.Gender,
		Region:          req.Region,
		ClubAffiliation: req.ClubAffiliation,
		PullUpCount:     req.PullUpCount,
		VideoURL:        req.VideoURL,
		Status:          models.SubmissionPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (s *SubmissionService) Approve(ctx context.Context, id uuid.UUID, actualCount int, reviewer uuid.UUID) error {
	if actualCount < 0 {
		return invalid("actual_pull_up_count", "must not be negative")
	}
	return s.transition(ctx, id, models.SubmissionApproved, &actualCount, reviewer)
}

func (s *SubmissionService) Reject(ctx context.Context, id uuid.UUID, reviewer uuid.UUID) error {
	return s.transition(ctx, id, models.SubmissionRejected, nil, reviewer)
}

// transition applies a review decision guarded by the pending status, so a
// second reviewer cannot overwrite the first decision.
func (s *SubmissionService) transition(ctx context.Context, id uuid.UUID, to string, actual *int, reviewer uuid.UUID) error {
	changed, err := s.submissions.Transition(ctx, id, models.SubmissionPending, to, actual, reviewer, s.now())
	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}
	if changed == 1 {
		slog.Info("submission reviewed", "submission_id", id, "status", to, "reviewer_id", reviewer, "operation", "review_submission")
		return nil
	}

	current, err := s.submissions.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrSubmissionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load submission: %w", err)
	}
	slog.Warn("rejected review transition", "submission_id", id, "from", current.Status, "to", to, "reviewer_id", reviewer, "operation", "review_submission")
	return ErrInvalidTransition
}

// List returns submissions newest first for filter (all, pending, approved,
// rejected), with display fields taken from the owner's profile when present.
func (s *SubmissionService) List(ctx context.Context, filter string, limit, offset int) (*dto.SubmissionListResponse, error) {
	status := strings.ToLower(strings.TrimSpace(filter))
	if status == FilterAll {
		status = ""
	}
	if status != "" && !models.ValidSubmissionStatus(status) {
		return nil, invalid("status", "must be all, pending, approved or rejected")
	}
	if limit <= 0 {
		limit = defaultListLim
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	submissions, total, err := s.submissions.List(ctx, repository.SubmissionQuery{Status: status, Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	views, err := s.withProfiles(ctx, submissions)
	if err != nil {
		return nil, err
	}
	return &dto.SubmissionListResponse{Submissions: views, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *SubmissionService) ListMine(ctx context.Context, userID uuid.UUID) ([]dto.SubmissionView, error) {
	submissions, err := s.submissions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return s.withProfiles(ctx, submissions)
}

func (s *SubmissionService) Counts(ctx context.Context) (*dto.SubmissionCountsResponse, error) {
	counts, err := s.submissions.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count submissions: %w", err)
	}
	resp := &dto.SubmissionCountsResponse{
		Pending:  counts[models.SubmissionPending],
		Approved: counts[models.SubmissionApproved],
		Rejected: counts[models.SubmissionRejected],
	}
	resp.All = resp.Pending + resp.Approved + resp.Rejected
	return resp, nil
}

func (s *SubmissionService) withProfiles(ctx context.Context, submissions []models.Submission) ([]dto.SubmissionView, error) {
	ids := make([]uuid.UUID, 0, len(submissions))
	seen := make(map[uuid.UUID]bool, len(submissions))
	for _, sub := range submissions {
		if !seen[sub.UserID] {
			seen[sub.UserID] = true
			ids = append(ids, sub.UserID)
		}
	}
	profiles, err := s.profileRepo.FindByUserIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}

	views := make([]dto.SubmissionView, 0, len(submissions))
	for _, sub := range submissions {
		var profile *models.Profile
		if p, ok := profiles[sub.UserID]; ok {
			profile = &p
		}
		views = append(views, buildView(sub, profile))
	}
	return views, nil
}

func buildView(sub models.Submission, profile *models.Profile) dto.SubmissionView {
	view := dto.SubmissionView{
		ID:                sub.ID,
		UserID:            sub.UserID,
		PullUpCount:       sub.PullUpCount,
		ActualPullUpCount: sub.ActualPullUpCount,
		VideoURL:          sub.VideoURL,
		Status:            sub.Status,
		Featured:          sub.Status == models.SubmissionApproved,
		SubmittedAt:       sub.CreatedAt,
		UpdatedAt:         sub.UpdatedAt,
	}
	var p models.Profile
	if profile != nil {
		p = *profile
	}
	view.FullName = firstNonEmpty(p.FullName, sub.FullName, unknownField)
	view.Email = firstNonEmpty(p.Email, sub.Email, unknownField)
	view.Gender = firstNonEmpty(p.Gender, sub.Gender, unknownField)
	view.Region = firstNonEmpty(p.Region, sub.Region, unknownField)
	view.ClubAffiliation = firstNonEmpty(p.ClubAffiliation, sub.ClubAffiliation, noClub)
	view.Age = p.Age
	if view.Age == 0 {
		view.Age = sub.Age
	}
	return view
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// normalizeSubmission trims and validates the request in place.
func normalizeSubmission(req *dto.CreateSubmissionRequest) error {
	if req == nil {
		return invalid("", "request body is required")
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	req.Gender = strings.ToLower(strings.TrimSpace(req.Gender))
	req.Region = strings.TrimSpace(req.Region)
	req.ClubAffiliation = strings.TrimSpace(req.ClubAffiliation)
	req.VideoURL = strings.TrimSpace(req.VideoURL)

	if req.FullName == "" {
		return invalid("full_name", "is required")
	}
	if !strings.Contains(req.Email, "@") {
		return invalid("email", "please enter a valid email address")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return invalid("email", "please enter a valid email address")
	}
	if req.Age < minAge || req.Age > maxAge {
		return invalid("age", fmt.Sprintf("must be between %d and %d", minAge, maxAge))
	}
	if !validGenders[req.Gender] {
		return invalid("gender", "must be male, female or other")
	}
	if req.Region == "" {
		return invalid("region", "is required")
	}
	if req.ClubAffiliation == otherClub {
		other := strings.TrimSpace(req.OtherClubAffiliation)
		if other == "" {
			return invalid("other_club_affiliation", "is required when club is Other")
		}
		req.ClubAffiliation = other
	}
	if req.PullUpCount < minPullUps || req.PullUpCount > maxPullUps {
		return invalid("pull_up_count", fmt.Sprintf("must be between %d and %d", minPullUps, maxPullUps))
	}

	if req.VideoURL == "" {
		return invalid("video_url", "is required")
	}
	if !strings.HasPrefix(req.VideoURL, "http://") && !strings.HasPrefix(req.VideoURL, "https://") {
		req.VideoURL = "https://" + req.VideoURL
	}
	u, err := url.Parse(req.VideoURL)
	if err != nil || u.Host == "" {
		return invalid("video_url", "must be a public http(s) link")
	}
	if !req.VideoConfirmed || !req.VideoAuthenticity {
		return invalid("video_confirmed", "both video confirmations are required")
	}
	return nil
}
