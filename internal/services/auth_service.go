package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// AuthService is the local identity provider: email/password accounts,
// guest accounts created by checkout, and HS256 access tokens.
type AuthService struct {
	users UserRepository
	cfg   *config.Config
	now   Clock
}

func NewAuthService(users UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{users: users, cfg: cfg, now: systemClock}
}

func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLength {
		return nil, invalid("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	existing, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if !existing.IsGuest {
			return nil, ErrEmailTaken
		}
		claim := strings.TrimSpace(req.ClaimToken)
		if claim == "" {
			return nil, ErrClaimRequired
		}
		n, err := s.users.Claim(ctx, existing.ID, hashClaimToken(claim), string(hash))
		if err != nil {
			return nil, fmt.Errorf("failed to claim guest account: %w", err)
		}
		if n == 0 {
			slog.Warn("guest claim rejected", "user_id", existing.ID, "operation", "register")
			return nil, ErrClaimRequired
		}
		slog.Info("guest account claimed", "user_id", existing.ID, "operation", "register")
		existing.IsGuest = false
		return s.issue(existing)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hashed := string(hash)
	user := &models.User{Email: email, Password: &hashed}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user.Password == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

// VerifyToken validates an access token issued by this service and returns
// the caller it identifies.
func (s *AuthService) VerifyToken(_ context.Context, raw string) (*Caller, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return CallerFromClaims(token.Claims)
}

// CallerFromClaims reads the sub and email claims of a verified token.
func CallerFromClaims(claims jwt.Claims) (*Caller, error) {
	mc, ok := claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sub, _ := mc["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return nil, ErrInvalidToken
	}
	email, _ := mc["email"].(string)
	return &Caller{UserID: id, Email: email}, nil
}

// GuestAccount is the account a guest checkout is attached to. ClaimToken
// is set only for the request that created it and is never stored in clear.
type GuestAccount struct {
	User       *models.User
	ClaimToken string
}

// FindOrCreateGuest returns the guest account for email, creating it when
// none exists. Registered accounts are never reused for guest checkout.
func (s *AuthService) FindOrCreateGuest(ctx context.Context, email string) (*GuestAccount, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		if !user.IsGuest {
			return nil, ErrAccountExists
		}
		return &GuestAccount{User: user}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	claim, err := newClaimToken()
	if err != nil {
		return nil, err
	}
	claimHash := hashClaimToken(claim)
	user = &models.User{Email: email, IsGuest: true, ClaimTokenHash: &claimHash}
	if err := s.users.Create(ctx, user); err != nil {
		if !errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("failed to create guest user: %w", err)
		}
		winner, ferr := s.users.FindByEmail(ctx, email)
		if ferr != nil {
			return nil, fmt.Errorf("failed to re-read guest user: %w", ferr)
		}
		if !winner.IsGuest {
			return nil, ErrAccountExists
		}
		return &GuestAccount{User: winner}, nil
	}
	slog.Info("guest account created", "user_id", user.ID, "operation", "create_guest")
	return &GuestAccount{User: user, ClaimToken: claim}, nil
}

func newClaimToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate claim token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashClaimToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *AuthService) issue(user *models.User) (*dto.AuthResponse, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.JWTAccessExpiry)
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	return &dto.AuthResponse{
		AccessToken: signed,
		ExpiresAt:   expiresAt.Truncate(time.Second),
		User:        dto.UserResponse{ID: user.ID, Email: user.Email},
	}, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", invalid("email", "is required")
	}
	if !strings.Contains(email, "@") {
		return "", invalid("email", "is not a valid address")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", invalid("email", "is not a valid address")
	}
	return email, nil
}
