package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSubmissionRequest struct {
	FullName             string `json:"full_name"`
	Email                string `json:"email"`
	Age                  int    `json:"age"`
	Gender               string `json:"gender"`
	Region               string `json:"region"`
	ClubAffiliation      string `json:"club_affiliation"`
	OtherClubAffiliation string `json:"other_club_affiliation"`
	PullUpCount          int    `json:"pull_up_count"`
	VideoURL             string `json:"video_url"`
	VideoConfirmed       bool   `json:"video_confirmed"`
	VideoAuthenticity    bool   `json:"video_authenticity"`
}

type ApproveSubmissionRequest struct {
	ActualPullUpCount *int `json:"actual_pull_up_count"`
}

// SubmissionView is a submission joined with its owner's current profile.
type SubmissionView struct {
	ID                uuid.UUID `json:"id"`
	UserID            uuid.UUID `json:"user_id"`
	FullName          string    `json:"full_name"`
	Email             string    `json:"email"`
	Age               int       `json:"age"`
	Gender            string    `json:"gender"`
	Region            string    `json:"region"`
	ClubAffiliation   string    `json:"club_affiliation"`
	PullUpCount       int       `json:"pull_up_count"`
	ActualPullUpCount *int      `json:"actual_pull_up_count"`
	VideoURL          string    `json:"video_url"`
	Status            string    `json:"status"`
	Featured          bool      `json:"featured"`
	SubmittedAt       time.Time `json:"submitted_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type SubmissionListResponse struct {
	Submissions []SubmissionView `json:"submissions"`
	Total       int64            `json:"total"`
	Limit       int              `json:"limit"`
	Offset      int              `json:"offset"`
}

type SubmissionCountsResponse struct {
	All      int64 `json:"all"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}
