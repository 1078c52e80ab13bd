// Package memory implements the repositories in process memory. It enforces
// the same uniqueness and soft-delete rules as the Postgres schema and backs
// STORE_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store holds every table behind one lock so cross-table reads stay consistent.
type Store struct {
	mu            sync.RWMutex
	users         map[uuid.UUID]models.User
	profiles      []models.Profile
	submissions   map[uuid.UUID]models.Submission
	customers     []models.CustomerMapping
	subscriptions map[string]models.Subscription
	now           func() time.Time

	Users         *UserRepository
	Profiles      *ProfileRepository
	Submissions   *SubmissionRepository
	Customers     *CustomerRepository
	Subscriptions *SubscriptionRepository
}

func NewStore() *Store {
	s := &Store{
		users:         make(map[uuid.UUID]models.User),
		submissions:   make(map[uuid.UUID]models.Submission),
		subscriptions: make(map[string]models.Subscription),
		now:           func() time.Time { return time.Now().UTC() },
	}
	s.Users = &UserRepository{s: s}
	s.Profiles = &ProfileRepository{s: s}
	s.Submissions = &SubmissionRepository{s: s}
	s.Customers = &CustomerRepository{s: s}
	s.Subscriptions = &SubscriptionRepository{s: s}
	return s
}

// SetClock overrides the timestamp source used for created/updated columns.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func deleted(at gorm.DeletedAt) bool {
	return at.Valid
}

type UserRepository struct{ s *Store }

func (r *UserRepository) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok || deleted(u.DeletedAt) {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if !deleted(u.DeletedAt) && strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrConflict
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := r.s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users[user.ID] = *user
	return nil
}

func (r *UserRepository) Claim(_ context.Context, id uuid.UUID, tokenHash, passwordHash string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok || deleted(u.DeletedAt) || !u.IsGuest || u.ClaimTokenHash == nil || *u.ClaimTokenHash != tokenHash {
		return 0, nil
	}
	u.Password = &passwordHash
	u.IsGuest = false
	u.ClaimTokenHash = nil
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	return 1, nil
}

type ProfileRepository struct{ s *Store }

func (r *ProfileRepository) live(userID uuid.UUID) int {
	for i, p := range r.s.profiles {
		if p.UserID == userID && !deleted(p.DeletedAt) {
			return i
		}
	}
	return -1
}

func (r *ProfileRepository) FindByUserID(_ context.Context, userID uuid.UUID) (*models.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	i := r.live(userID)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	p := r.s.profiles[i]
	return &p, nil
}

func (r *ProfileRepository) FindByUserIDs(_ context.Context, userIDs []uuid.UUID) (map[uuid.UUID]models.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := make(map[uuid.UUID]models.Profile, len(userIDs))
	for _, id := range userIDs {
		if i := r.live(id); i >= 0 {
			result[id] = r.s.profiles[i]
		}
	}
	return result, nil
}

func (r *ProfileRepository) Create(_ context.Context, profile *models.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.live(profile.UserID) >= 0 {
		return repository.ErrConflict
	}
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	if profile.Role == "" {
		profile.Role = models.RoleUser
	}
	now := r.s.now()
	profile.CreatedAt, profile.UpdatedAt = now, now
	r.s.profiles = append(r.s.profiles, *profile)
	return nil
}

func (r *ProfileRepository) UpdateDetails(_ context.Context, userID uuid.UUID, details models.ProfileDetails) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.live(userID)
	if i < 0 {
		return 0, nil
	}
	details.Apply(&r.s.profiles[i])
	r.s.profiles[i].UpdatedAt = r.s.now()
	return 1, nil
}

// SetRole is a fixture helper; roles are otherwise managed in the database.
func (r *ProfileRepository) SetRole(userID uuid.UUID, role string) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if i := r.live(userID); i >= 0 {
		r.s.profiles[i].Role = role
	}
}

// Count returns the number of live profiles for userID.
func (r *ProfileRepository) Count(userID uuid.UUID) int {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, p := range r.s.profiles {
		if p.UserID == userID && !deleted(p.DeletedAt) {
			n++
		}
	}
	return n
}

type SubmissionRepository struct{ s *Store }

func (r *SubmissionRepository) Create(_ context.Context, submission *models.Submission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.insert(submission)
	return nil
}

// CreateIfNoneSince inserts the submission unless its owner already has one
// created after since. The check and the insert share the store lock.
func (r *SubmissionRepository) CreateIfNoneSince(_ context.Context, submission *models.Submission, since time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.submissions {
		if existing.UserID == submission.UserID && existing.CreatedAt.After(since) {
			return false, nil
		}
	}
	r.insert(submission)
	return true, nil
}

func (r *SubmissionRepository) insert(submission *models.Submission) {
	if submission.ID == uuid.Nil {
		submission.ID = uuid.New()
	}
	now := r.s.now()
	if submission.CreatedAt.IsZero() {
		submission.CreatedAt = now
	}
	submission.UpdatedAt = now
	r.s.submissions[submission.ID] = *submission
}

func (r *SubmissionRepository) FindByID(_ context.Context, id uuid.UUID) (*models.Submission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sub, ok := r.s.submissions[id]
	if !ok || deleted(sub.DeletedAt) {
		return nil, repository.ErrNotFound
	}
	return &sub, nil
}

func (r *SubmissionRepository) sorted(keep func(models.Submission) bool) []models.Submission {
	out := make([]models.Submission, 0, len(r.s.submissions))
	for _, sub := range r.s.submissions {
		if !deleted(sub.DeletedAt) && keep(sub) {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *SubmissionRepository) LatestByUser(_ context.Context, userID uuid.UUID) (*models.Submission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	subs := r.sorted(func(s models.Submission) bool { return s.UserID == userID })
	if len(subs) == 0 {
		return nil, repository.ErrNotFound
	}
	return &subs[0], nil
}

func (r *SubmissionRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Submission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.sorted(func(s models.Submission) bool { return s.UserID == userID }), nil
}

func (r *SubmissionRepository) List(_ context.Context, q repository.SubmissionQuery) ([]models.Submission, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	subs := r.sorted(func(s models.Submission) bool { return q.Status == "" || s.Status == q.Status })
	total := int64(len(subs))
	if q.Offset >= len(subs) {
		return []models.Submission{}, total, nil
	}
	subs = subs[q.Offset:]
	if q.Limit > 0 && q.Limit < len(subs) {
		subs = subs[:q.Limit]
	}
	return subs, total, nil
}

func (r *SubmissionRepository) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	counts := make(map[string]int64)
	for _, sub := range r.s.submissions {
		if !deleted(sub.DeletedAt) {
			counts[sub.Status]++
		}
	}
	return counts, nil
}

func (r *SubmissionRepository) Transition(_ context.Context, id uuid.UUID, from, to string, actual *int, reviewer uuid.UUID, at time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.submissions[id]
	if !ok || deleted(sub.DeletedAt) || sub.Status != from {
		return 0, nil
	}
	sub.Status = to
	sub.ActualPullUpCount = actual
	sub.ReviewedBy = &reviewer
	sub.ReviewedAt = &at
	sub.UpdatedAt = at
	r.s.submissions[id] = sub
	return 1, nil
}

type CustomerRepository struct{ s *Store }

func (r *CustomerRepository) find(match func(models.CustomerMapping) bool) (*models.CustomerMapping, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.customers {
		if !deleted(m.DeletedAt) && match(m) {
			return &m, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *CustomerRepository) FindByUserID(_ context.Context, userID uuid.UUID) (*models.CustomerMapping, error) {
	return r.find(func(m models.CustomerMapping) bool { return m.UserID == userID })
}

func (r *CustomerRepository) FindByCustomerID(_ context.Context, customerID string) (*models.CustomerMapping, error) {
	return r.find(func(m models.CustomerMapping) bool { return m.CustomerID == customerID })
}

func (r *CustomerRepository) Create(_ context.Context, mapping *models.CustomerMapping) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.customers {
		if !deleted(m.DeletedAt) && m.UserID == mapping.UserID {
			return repository.ErrConflict
		}
	}
	if mapping.ID == uuid.Nil {
		mapping.ID = uuid.New()
	}
	now := r.s.now()
	mapping.CreatedAt, mapping.UpdatedAt = now, now
	r.s.customers = append(r.s.customers, *mapping)
	return nil
}

func (r *CustomerRepository) SoftDelete(_ context.Context, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, m := range r.s.customers {
		if !deleted(m.DeletedAt) && m.UserID == userID {
			r.s.customers[i].DeletedAt = gorm.DeletedAt{Time: r.s.now(), Valid: true}
			return nil
		}
	}
	return repository.ErrNotFound
}

// All returns every mapping for userID including soft-deleted rows.
func (r *CustomerRepository) All(userID uuid.UUID) []models.CustomerMapping {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.CustomerMapping
	for _, m := range r.s.customers {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out
}

type SubscriptionRepository struct{ s *Store }

func (r *SubscriptionRepository) Upsert(_ context.Context, sub *models.Subscription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	if existing, ok := r.s.subscriptions[sub.SubscriptionID]; ok {
		sub.ID = existing.ID
		sub.CreatedAt = existing.CreatedAt
	} else {
		if sub.ID == uuid.Nil {
			sub.ID = uuid.New()
		}
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	r.s.subscriptions[sub.SubscriptionID] = *sub
	return nil
}

func (r *SubscriptionRepository) MarkStatus(_ context.Context, subscriptionID, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.subscriptions[subscriptionID]
	if !ok {
		return nil
	}
	sub.Status = status
	sub.UpdatedAt = r.s.now()
	r.s.subscriptions[subscriptionID] = sub
	return nil
}

func (r *SubscriptionRepository) StatusForUser(_ context.Context, userID uuid.UUID) (string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	customerIDs := make(map[string]bool)
	for _, m := range r.s.customers {
		if !deleted(m.DeletedAt) && m.UserID == userID {
			customerIDs[m.CustomerID] = true
		}
	}
	var best *models.Subscription
	for _, sub := range r.s.subscriptions {
		if !customerIDs[sub.CustomerID] {
			continue
		}
		sub := sub
		switch {
		case best == nil:
			best = &sub
		case sub.Status == models.SubscriptionActive && best.Status != models.SubscriptionActive:
			best = &sub
		case (sub.Status == models.SubscriptionActive) == (best.Status == models.SubscriptionActive) && sub.UpdatedAt.After(best.UpdatedAt):
			best = &sub
		}
	}
	if best == nil {
		return "", repository.ErrNotFound
	}
	return best.Status, nil
}
