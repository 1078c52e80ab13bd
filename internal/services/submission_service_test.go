package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/models"
	"github.com/google/uuid"
)

func TestSubmitCreatesPendingAndCompletesProfile(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()

	sub, err := f.ledger.Submit(context.Background(), userID, validSubmission())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sub.Status != models.SubmissionPending {
		t.Fatalf("status = %q, want pending", sub.Status)
	}
	if !sub.CreatedAt.Equal(baseTime) {
		t.Fatalf("CreatedAt = %v, want %v", sub.CreatedAt, baseTime)
	}

	profile, err := f.store.Profiles.FindByUserID(context.Background(), userID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if !profile.IsProfileCompleted || profile.Region != "North America" {
		t.Fatalf("profile not completed: %+v", profile)
	}
}

func TestSubmitRespectsCooldown(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	if _, err := f.ledger.Submit(context.Background(), userID, validSubmission()); err != nil {
		t.Fatalf("first Submit: %v", err)
	}

	f.clock.Set(baseTime.Add(29 * day))
	_, err := f.ledger.Submit(context.Background(), userID, validSubmission())
	var cdErr *CooldownError
	if !errors.As(err, &cdErr) {
		t.Fatalf("err = %v, want cooldown", err)
	}

	f.clock.Set(baseTime.Add(30 * day))
	if _, err := f.ledger.Submit(context.Background(), userID, validSubmission()); err != nil {
		t.Fatalf("Submit after cooldown: %v", err)
	}
}

func TestSubmitConcurrentSameUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	if _, err := f.profiles.EnsureProfile(ctx, userID); err != nil {
		t.Fatal(err)
	}

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.ledger.Submit(ctx, userID, validSubmission())
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		var cdErr *CooldownError
		switch {
		case err == nil:
			created++
		case errors.As(err, &cdErr):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if created != 1 {
		t.Fatalf("created = %d, want exactly 1", created)
	}
	subs, _ := f.store.Submissions.ListByUser(ctx, userID)
	if len(subs) != 1 {
		t.Fatalf("stored submissions = %d, want 1", len(subs))
	}
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *dto.CreateSubmissionRequest)
		field  string
	}{
		{"missing name", func(r *dto.CreateSubmissionRequest) { r.FullName = "  " }, "full_name"},
		{"email without at", func(r *dto.CreateSubmissionRequest) { r.Email = "jordan.example.com" }, "email"},
		{"too young", func(r *dto.CreateSubmissionRequest) { r.Age = 15 }, "age"},
		{"too old", func(r *dto.CreateSubmissionRequest) { r.Age = 101 }, "age"},
		{"bad gender", func(r *dto.CreateSubmissionRequest) { r.Gender = "unknown" }, "gender"},
		{"missing region", func(r *dto.CreateSubmissionRequest) { r.Region = "" }, "region"},
		{"other club without name", func(r *dto.CreateSubmissionRequest) { r.ClubAffiliation = "Other" }, "other_club_affiliation"},
		{"zero pull-ups", func(r *dto.CreateSubmissionRequest) { r.PullUpCount = 0 }, "pull_up_count"},
		{"too many pull-ups", func(r *dto.CreateSubmissionRequest) { r.PullUpCount = 101 }, "pull_up_count"},
		{"missing video", func(r *dto.CreateSubmissionRequest) { r.VideoURL = "" }, "video_url"},
		{"unconfirmed video", func(r *dto.CreateSubmissionRequest) { r.VideoAuthenticity = false }, "video_confirmed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := validSubmission()
			tt.mutate(req)

			_, err := f.ledger.Submit(context.Background(), uuid.New(), req)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if vErr.Field != tt.field {
				t.Fatalf("field = %q, want %q", vErr.Field, tt.field)
			}
		})
	}
}

func TestSubmitNormalizesInput(t *testing.T) {
	f := newFixture(t)
	req := validSubmission()
	req.VideoURL = "instagram.com/p/xyz"
	req.ClubAffiliation = "Other"
	req.OtherClubAffiliation = "Garage Gym"
	req.Gender = " Female "

	sub, err := f.ledger.Submit(context.Background(), uuid.New(), req)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sub.VideoURL != "https://instagram.com/p/xyz" {
		t.Fatalf("VideoURL = %q", sub.VideoURL)
	}
	if sub.ClubAffiliation != "Garage Gym" {
		t.Fatalf("ClubAffiliation = %q", sub.ClubAffiliation)
	}
	if sub.Gender != "female" {
		t.Fatalf("Gender = %q", sub.Gender)
	}
}

func TestReviewTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reviewer := uuid.New()

	sub, err := f.ledger.Create(ctx, uuid.New(), validSubmission())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	f.clock.Set(baseTime.Add(time.Hour))
	if err := f.ledger.Approve(ctx, sub.ID, 12, reviewer); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if err := f.ledger.Reject(ctx, sub.ID, reviewer); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Reject after approve = %v, want ErrInvalidTransition", err)
	}
	if err := f.ledger.Approve(ctx, sub.ID, 3, reviewer); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second Approve = %v, want ErrInvalidTransition", err)
	}

	got, err := f.store.Submissions.FindByID(ctx, sub.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Status != models.SubmissionApproved {
		t.Fatalf("status = %q, want approved", got.Status)
	}
	if got.ActualPullUpCount == nil || *got.ActualPullUpCount != 12 {
		t.Fatalf("ActualPullUpCount = %v, want 12", got.ActualPullUpCount)
	}
	if got.ReviewedBy == nil || *got.ReviewedBy != reviewer {
		t.Fatalf("ReviewedBy = %v, want %s", got.ReviewedBy, reviewer)
	}
	if got.ReviewedAt == nil || !got.ReviewedAt.Equal(baseTime.Add(time.Hour)) {
		t.Fatalf("ReviewedAt = %v", got.ReviewedAt)
	}
}

func TestReviewErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.ledger.Reject(ctx, uuid.New(), uuid.New()); !errors.Is(err, ErrSubmissionNotFound) {
		t.Fatalf("Reject missing = %v, want ErrSubmissionNotFound", err)
	}

	sub, err := f.ledger.Create(ctx, uuid.New(), validSubmission())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	var vErr *ValidationError
	if err := f.ledger.Approve(ctx, sub.ID, -1, uuid.New()); !errors.As(err, &vErr) {
		t.Fatalf("Approve negative = %v, want validation error", err)
	}
	if err := f.ledger.Approve(ctx, sub.ID, 0, uuid.New()); err != nil {
		t.Fatalf("Approve zero: %v", err)
	}
}

func TestListFiltersAndFallbacks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	withProfile := uuid.New()
	if _, err := f.profiles.CompleteProfile(ctx, withProfile, models.ProfileDetails{
		FullName: "Profile Name", Email: "profile@example.com", Age: 30, Gender: "female", Region: "Europe",
	}); err != nil {
		t.Fatalf("CompleteProfile: %v", err)
	}
	first, err := f.ledger.Create(ctx, withProfile, validSubmission())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	f.clock.Set(baseTime.Add(time.Minute))
	anonymous := &dto.CreateSubmissionRequest{PullUpCount: 5, VideoURL: "https://youtube.com/watch?v=x"}
	second, err := f.ledger.Create(ctx, uuid.New(), anonymous)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := f.ledger.Reject(ctx, second.ID, uuid.New()); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	all, err := f.ledger.List(ctx, FilterAll, 0, 0)
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if all.Total != 2 || len(all.Submissions) != 2 {
		t.Fatalf("total = %d len = %d, want 2", all.Total, len(all.Submissions))
	}
	if all.Submissions[0].ID != second.ID {
		t.Fatal("want newest first")
	}
	if all.Limit != defaultListLim {
		t.Fatalf("limit = %d, want default %d", all.Limit, defaultListLim)
	}

	anon := all.Submissions[0]
	if anon.FullName != unknownField || anon.Region != unknownField || anon.ClubAffiliation != noClub {
		t.Fatalf("fallbacks not applied: %+v", anon)
	}
	named := all.Submissions[1]
	if named.ID != first.ID || named.FullName != "Profile Name" || named.Region != "Europe" {
		t.Fatalf("profile fields not used: %+v", named)
	}
	if named.ClubAffiliation != "Iron Club" {
		t.Fatalf("club = %q, want submission value when profile has none", named.ClubAffiliation)
	}

	pending, err := f.ledger.List(ctx, "pending", 10, 0)
	if err != nil {
		t.Fatalf("List pending: %v", err)
	}
	if pending.Total != 1 || pending.Submissions[0].ID != first.ID {
		t.Fatalf("pending filter returned %+v", pending.Submissions)
	}

	var vErr *ValidationError
	if _, err := f.ledger.List(ctx, "archived", 10, 0); !errors.As(err, &vErr) {
		t.Fatalf("invalid filter = %v, want validation error", err)
	}

	capped, err := f.ledger.List(ctx, "", 500, 0)
	if err != nil {
		t.Fatalf("List capped: %v", err)
	}
	if capped.Limit != maxListLimit {
		t.Fatalf("limit = %d, want %d", capped.Limit, maxListLimit)
	}
}

func TestCountsAndListMine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	a, _ := f.ledger.Create(ctx, owner, validSubmission())
	f.clock.Set(baseTime.Add(time.Minute))
	b, _ := f.ledger.Create(ctx, owner, validSubmission())
	f.clock.Set(baseTime.Add(2 * time.Minute))
	if _, err := f.ledger.Create(ctx, uuid.New(), validSubmission()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := f.ledger.Approve(ctx, a.ID, 10, uuid.New()); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	counts, err := f.ledger.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	want := dto.SubmissionCountsResponse{All: 3, Pending: 2, Approved: 1, Rejected: 0}
	if *counts != want {
		t.Fatalf("counts = %+v, want %+v", *counts, want)
	}

	mine, err := f.ledger.ListMine(ctx, owner)
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if len(mine) != 2 || mine[0].ID != b.ID || mine[1].ID != a.ID {
		t.Fatalf("ListMine = %+v", mine)
	}
	if !mine[1].Featured {
		t.Fatal("approved submission should be featured")
	}
}
