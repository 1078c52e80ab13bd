package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Profile is the 1:1 application profile of a user. Only one non-deleted row
// may exist per user_id.
type Profile struct {
	ID                 uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID             uuid.UUID      `gorm:"type:uuid;not null;index:idx_profiles_user_id,unique,where:deleted_at IS NULL" json:"user_id"`
	IsProfileCompleted bool           `gorm:"not null;default:false" json:"is_profile_completed"`
	FullName           string         `gorm:"size:255" json:"full_name"`
	Email              string         `gorm:"size:255" json:"email"`
	Age                int            `json:"age"`
	Gender             string         `gorm:"size:20" json:"gender"`
	Region             string         `gorm:"size:100" json:"region"`
	ClubAffiliation    string         `gorm:"size:255" json:"club_affiliation"`
	SocialMedia        string         `gorm:"size:255" json:"social_media"`
	StreetAddress      string         `gorm:"size:255" json:"street_address"`
	Apartment          string         `gorm:"size:100" json:"apartment"`
	City               string         `gorm:"size:100" json:"city"`
	State              string         `gorm:"size:100" json:"state"`
	ZipCode            string         `gorm:"size:20" json:"zip_code"`
	Country            string         `gorm:"size:100" json:"country"`
	Role               string         `gorm:"size:20;not null;default:'user'" json:"role"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// ProfileDetails is the personal data collected by the submission flow.
type ProfileDetails struct {
	FullName        string
	Email           string
	Age             int
	Gender          string
	Region          string
	ClubAffiliation string
}

// Apply copies the details onto p, marks it completed and blanks the address
// fields, which the submission flow does not collect.
func (d ProfileDetails) Apply(p *Profile) {
	p.IsProfileCompleted = true
	p.FullName = d.FullName
	p.Email = d.Email
	p.Age = d.Age
	p.Gender = d.Gender
	p.Region = d.Region
	p.ClubAffiliation = d.ClubAffiliation
	p.StreetAddress = ""
	p.Apartment = ""
	p.City = ""
	p.State = ""
	p.ZipCode = ""
	p.Country = ""
}

// Columns returns the update set for a completed profile.
func (d ProfileDetails) Columns() map[string]interface{} {
	return map[string]interface{}{
		"is_profile_completed": true,
		"full_name":            d.FullName,
		"email":                d.Email,
		"age":                  d.Age,
		"gender":               d.Gender,
		"region":               d.Region,
		"club_affiliation":     d.ClubAffiliation,
		"street_address":       "",
		"apartment":            "",
		"city":                 "",
		"state":                "",
		"zip_code":             "",
		"country":              "",
	}
}
