package repository

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubmissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	if submission.ID == uuid.Nil {
		submission.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Create(submission).Error)
}

// CreateIfNoneSince inserts the submission unless its owner already has one
// created after since. A transaction-scoped advisory lock keyed on the user
// serializes concurrent inserts for the same user.
func (r *SubmissionRepository) CreateIfNoneSince(ctx context.Context, submission *models.Submission, since time.Time) (bool, error) {
	if submission.ID == uuid.Nil {
		submission.ID = uuid.New()
	}
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "submission:"+submission.UserID.String()).Error; err != nil {
			return err
		}
		var recent int64
		err := tx.Model(&models.Submission{}).
			Where("user_id = ? AND created_at > ?", submission.UserID, since).
			Count(&recent).Error
		if err != nil {
			return err
		}
		if recent > 0 {
			return nil
		}
		if err := tx.Create(submission).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, translate(err)
	}
	return created, nil
}

func (r *SubmissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).First(&submission, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &submission, nil
}

func (r *SubmissionRepository) LatestByUser(ctx context.Context, userID uuid.UUID) (*models.Submission, error) {
	var submission models.Submission
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(1).
		Take(&submission).Error
	if err != nil {
		return nil, translate(err)
	}
	return &submission, nil
}

func (r *SubmissionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&submissions).Error
	return submissions, translate(err)
}

func (r *SubmissionRepository) List(ctx context.Context, q SubmissionQuery) ([]models.Submission, int64, error) {
	var submissions []models.Submission
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Submission{})
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	if err := query.Order("created_at DESC").Offset(q.Offset).Find(&submissions).Error; err != nil {
		return nil, 0, translate(err)
	}
	return submissions, total, nil
}

func (r *SubmissionRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Select("status, count(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Transition moves a submission from one status to another only if it is
// still in the expected prior status. It returns the number of rows changed.
func (r *SubmissionRepository) Transition(ctx context.Context, id uuid.UUID, from, to string, actual *int, reviewer uuid.UUID, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":               to,
			"actual_pull_up_count": actual,
			"reviewed_by":          reviewer,
			"reviewed_at":          at,
			"updated_at":           at,
		})
	return result.RowsAffected, translate(result.Error)
}
