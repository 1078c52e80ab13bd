package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/repository"
	"github.com/google/uuid"
)

func newClockedStore() (*Store, *time.Time) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore()
	s.SetClock(func() time.Time { return now })
	return s, &now
}

func TestUserEmailIsUniqueCaseInsensitive(t *testing.T) {
	s, _ := newClockedStore()
	ctx := context.Background()

	if err := s.Users.Create(ctx, &models.User{Email: "casey@example.com"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := s.Users.Create(ctx, &models.User{Email: "CASEY@example.com"})
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if _, err := s.Users.FindByEmail(ctx, "Casey@Example.com"); err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
}

func TestClaimOnlyConvertsGuests(t *testing.T) {
	s, _ := newClockedStore()
	ctx := context.Background()
	tokenHash := "token-hash"
	guest := &models.User{Email: "guest@example.com", IsGuest: true, ClaimTokenHash: &tokenHash}
	member := &models.User{Email: "member@example.com", ClaimTokenHash: &tokenHash}
	_ = s.Users.Create(ctx, guest)
	_ = s.Users.Create(ctx, member)

	if n, _ := s.Users.Claim(ctx, guest.ID, "other-hash", "hash"); n != 0 {
		t.Fatalf("claim with wrong token = %d, want 0", n)
	}
	if n, _ := s.Users.Claim(ctx, guest.ID, tokenHash, "hash"); n != 1 {
		t.Fatalf("claim guest = %d, want 1", n)
	}
	if n, _ := s.Users.Claim(ctx, guest.ID, tokenHash, "hash"); n != 0 {
		t.Fatalf("second claim = %d, want 0", n)
	}
	if n, _ := s.Users.Claim(ctx, member.ID, tokenHash, "hash"); n != 0 {
		t.Fatalf("claim member = %d, want 0", n)
	}

	got, _ := s.Users.FindByID(ctx, guest.ID)
	if got.IsGuest || got.Password == nil || *got.Password != "hash" || got.ClaimTokenHash != nil {
		t.Fatalf("claimed user = %+v", got)
	}
}

func TestProfileOnePerUser(t *testing.T) {
	s, _ := newClockedStore()
	ctx := context.Background()
	userID := uuid.New()

	if err := s.Profiles.Create(ctx, &models.Profile{UserID: userID}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Profiles.Create(ctx, &models.Profile{UserID: userID}); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	p, _ := s.Profiles.FindByUserID(ctx, userID)
	if p.Role != models.RoleUser {
		t.Fatalf("role = %q", p.Role)
	}
	if n, _ := s.Profiles.UpdateDetails(ctx, uuid.New(), models.ProfileDetails{FullName: "Nobody"}); n != 0 {
		t.Fatalf("update of missing profile = %d", n)
	}
}

func TestSubmissionTransitionIsConditional(t *testing.T) {
	s, now := newClockedStore()
	ctx := context.Background()
	sub := &models.Submission{UserID: uuid.New(), Status: models.SubmissionPending, PullUpCount: 10}
	_ = s.Submissions.Create(ctx, sub)

	actual := 9
	reviewer := uuid.New()
	n, err := s.Submissions.Transition(ctx, sub.ID, models.SubmissionPending, models.SubmissionApproved, &actual, reviewer, *now)
	if err != nil || n != 1 {
		t.Fatalf("Transition = %d, %v", n, err)
	}
	n, _ = s.Submissions.Transition(ctx, sub.ID, models.SubmissionPending, models.SubmissionRejected, nil, reviewer, *now)
	if n != 0 {
		t.Fatalf("second transition = %d, want 0", n)
	}

	got, _ := s.Submissions.FindByID(ctx, sub.ID)
	if got.Status != models.SubmissionApproved || *got.ActualPullUpCount != 9 || *got.ReviewedBy != reviewer {
		t.Fatalf("submission = %+v", got)
	}
}

func TestCreateIfNoneSince(t *testing.T) {
	s, now := newClockedStore()
	ctx := context.Background()
	owner := uuid.New()
	since := now.Add(-30 * 24 * time.Hour)

	first := &models.Submission{UserID: owner, Status: models.SubmissionPending}
	if ok, err := s.Submissions.CreateIfNoneSince(ctx, first, since); err != nil || !ok {
		t.Fatalf("first = %v, %v", ok, err)
	}
	if ok, _ := s.Submissions.CreateIfNoneSince(ctx, &models.Submission{UserID: owner}, since); ok {
		t.Fatal("second insert inside the window should be refused")
	}
	if ok, _ := s.Submissions.CreateIfNoneSince(ctx, &models.Submission{UserID: uuid.New()}, since); !ok {
		t.Fatal("another user is not affected by the window")
	}
	// A row created exactly at since no longer blocks.
	if ok, _ := s.Submissions.CreateIfNoneSince(ctx, &models.Submission{UserID: owner}, first.CreatedAt); !ok {
		t.Fatal("insert after the window should succeed")
	}

	subs, _ := s.Submissions.ListByUser(ctx, owner)
	if len(subs) != 2 {
		t.Fatalf("owner submissions = %d, want 2", len(subs))
	}
}

func TestSubmissionListOrderAndPaging(t *testing.T) {
	s, now := newClockedStore()
	ctx := context.Background()
	userID := uuid.New()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		*now = now.Add(time.Hour)
		sub := &models.Submission{UserID: userID, Status: models.SubmissionPending}
		_ = s.Submissions.Create(ctx, sub)
		ids = append(ids, sub.ID)
	}

	latest, _ := s.Submissions.LatestByUser(ctx, userID)
	if latest.ID != ids[2] {
		t.Fatal("LatestByUser should return the newest submission")
	}

	page, total, _ := s.Submissions.List(ctx, repository.SubmissionQuery{Limit: 1, Offset: 1})
	if total != 3 || len(page) != 1 || page[0].ID != ids[1] {
		t.Fatalf("page = %v total = %d", page, total)
	}
	page, _, _ = s.Submissions.List(ctx, repository.SubmissionQuery{Offset: 10})
	if len(page) != 0 {
		t.Fatalf("past-the-end page = %v", page)
	}
}

func TestCustomerMappingSoftDelete(t *testing.T) {
	s, _ := newClockedStore()
	ctx := context.Background()
	userID := uuid.New()

	_ = s.Customers.Create(ctx, &models.CustomerMapping{UserID: userID, CustomerID: "cus_1"})
	if err := s.Customers.Create(ctx, &models.CustomerMapping{UserID: userID, CustomerID: "cus_2"}); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if err := s.Customers.SoftDelete(ctx, userID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if _, err := s.Customers.FindByUserID(ctx, userID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := s.Customers.Create(ctx, &models.CustomerMapping{UserID: userID, CustomerID: "cus_2"}); err != nil {
		t.Fatalf("re-create after soft delete: %v", err)
	}
	if rows := s.Customers.All(userID); len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
}

func TestStatusForUserPrefersActive(t *testing.T) {
	s, now := newClockedStore()
	ctx := context.Background()
	userID := uuid.New()
	_ = s.Customers.Create(ctx, &models.CustomerMapping{UserID: userID, CustomerID: "cus_1"})

	if _, err := s.Subscriptions.StatusForUser(ctx, userID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	_ = s.Subscriptions.Upsert(ctx, &models.Subscription{SubscriptionID: "sub_a", CustomerID: "cus_1", Status: models.SubscriptionActive})
	*now = now.Add(time.Hour)
	_ = s.Subscriptions.Upsert(ctx, &models.Subscription{SubscriptionID: "sub_b", CustomerID: "cus_1", Status: models.SubscriptionCanceled})

	status, err := s.Subscriptions.StatusForUser(ctx, userID)
	if err != nil || status != models.SubscriptionActive {
		t.Fatalf("status = %q, %v", status, err)
	}

	_ = s.Subscriptions.MarkStatus(ctx, "sub_a", models.SubscriptionCanceled)
	status, _ = s.Subscriptions.StatusForUser(ctx, userID)
	if status != models.SubscriptionCanceled {
		t.Fatalf("status = %q, want canceled", status)
	}

	_ = s.Customers.SoftDelete(ctx, userID)
	if _, err := s.Subscriptions.StatusForUser(ctx, userID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound after mapping removal", err)
	}
}
