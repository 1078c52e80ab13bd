package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SubmissionPending  = "pending"
	SubmissionApproved = "approved"
	SubmissionRejected = "rejected"
)

// Submission is a video-backed pull-up claim. Identity fields are a snapshot
// taken at submission time.
type Submission struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID            uuid.UUID      `gorm:"type:uuid;not null;index:idx_submissions_user_created,priority:1" json:"user_id"`
	FullName          string         `gorm:"size:255" json:"full_name"`
	Email             string         `gorm:"size:255" json:"email"`
	Age               int            `json:"age"`
	Gender            string         `gorm:"size:20" json:"gender"`
	Region            string         `gorm:"size:100" json:"region"`
	ClubAffiliation   string         `gorm:"size:255" json:"club_affiliation"`
	PullUpCount       int            `gorm:"not null" json:"pull_up_count"`
	ActualPullUpCount *int           `json:"actual_pull_up_count"`
	VideoURL          string         `gorm:"not null;size:1000" json:"video_url"`
	Status            string         `gorm:"not null;default:'pending';size:20;index" json:"status"`
	ReviewedBy        *uuid.UUID     `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ReviewedAt        *time.Time     `json:"reviewed_at,omitempty"`
	CreatedAt         time.Time      `gorm:"index:idx_submissions_user_created,priority:2,sort:desc" json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsTerminal reports whether no further review transition is allowed.
func (s *Submission) IsTerminal() bool {
	return s.Status == SubmissionApproved || s.Status == SubmissionRejected
}

// ValidSubmissionStatus reports whether status is one of the stored states.
func ValidSubmissionStatus(status string) bool {
	switch status {
	case SubmissionPending, SubmissionApproved, SubmissionRejected:
		return true
	}
	return false
}
