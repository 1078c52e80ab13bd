package services

import (
	"context"
	"strings"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/models"
)

// AdminPolicy decides who is an admin: anyone on the ADMIN_EMAILS or
// ADMIN_USER_IDS lists, then anyone whose profile holds the admin role.
type AdminPolicy struct {
	emails   []string
	userIDs  []string
	profiles *ProfileService
}

func NewAdminPolicy(cfg *config.Config, profiles *ProfileService) *AdminPolicy {
	return &AdminPolicy{
		emails:   parseCSV(cfg.AdminEmails),
		userIDs:  parseCSV(cfg.AdminUserIDs),
		profiles: profiles,
	}
}

func (p *AdminPolicy) IsAdmin(ctx context.Context, caller Caller) (bool, error) {
	if containsFold(p.emails, caller.Email) || containsFold(p.userIDs, caller.UserID.String()) {
		return true, nil
	}
	role, err := p.profiles.Role(ctx, caller.UserID)
	if err != nil {
		return false, err
	}
	return role == models.RoleAdmin, nil
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func containsFold(list []string, val string) bool {
	if val == "" {
		return false
	}
	for _, item := range list {
		if strings.EqualFold(item, val) {
			return true
		}
	}
	return false
}
