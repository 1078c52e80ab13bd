package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/dto"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.auth.Register(ctx, &dto.RegisterRequest{Email: " Runner@Example.com ", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.User.Email != "runner@example.com" {
		t.Fatalf("email = %q, want normalized", resp.User.Email)
	}
	if !resp.ExpiresAt.Equal(baseTime.Add(time.Hour)) {
		t.Fatalf("ExpiresAt = %v", resp.ExpiresAt)
	}

	caller, err := f.auth.VerifyToken(ctx, resp.AccessToken)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if caller.UserID != resp.User.ID || caller.Email != "runner@example.com" {
		t.Fatalf("caller = %+v", caller)
	}

	if _, err := f.auth.Login(ctx, &dto.LoginRequest{Email: "runner@example.com", Password: "correct-horse"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := f.auth.Login(ctx, &dto.LoginRequest{Email: "runner@example.com", Password: "wrong-password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password = %v", err)
	}
	if _, err := f.auth.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "whatever1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user = %v", err)
	}
	if _, err := f.auth.Register(ctx, &dto.RegisterRequest{Email: "runner@example.com", Password: "another-pass"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate register = %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	var vErr *ValidationError

	if _, err := f.auth.Register(context.Background(), &dto.RegisterRequest{Email: "a@example.com", Password: "short"}); !errors.As(err, &vErr) || vErr.Field != "password" {
		t.Fatalf("short password = %v", err)
	}
	if _, err := f.auth.Register(context.Background(), &dto.RegisterRequest{Email: "nope", Password: "long-enough"}); !errors.As(err, &vErr) || vErr.Field != "email" {
		t.Fatalf("bad email = %v", err)
	}
}

func TestRegisterClaimsGuestAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	guest, err := f.auth.FindOrCreateGuest(ctx, "guest@example.com")
	if err != nil {
		t.Fatalf("FindOrCreateGuest: %v", err)
	}
	if guest.ClaimToken == "" {
		t.Fatal("a new guest account should come with a claim token")
	}
	if _, err := f.auth.Login(ctx, &dto.LoginRequest{Email: "guest@example.com", Password: "anything-1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("guest login = %v, want invalid credentials", err)
	}

	resp, err := f.auth.Register(ctx, &dto.RegisterRequest{
		Email: "guest@example.com", Password: "now-a-member", ClaimToken: guest.ClaimToken,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.User.ID != guest.User.ID {
		t.Fatalf("registered id %s, want claimed guest %s", resp.User.ID, guest.User.ID)
	}

	user, err := f.store.Users.FindByID(ctx, guest.User.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if user.IsGuest || user.ClaimTokenHash != nil {
		t.Fatalf("claimed account = %+v, want member with the token burned", user)
	}
	if _, err := f.auth.FindOrCreateGuest(ctx, "guest@example.com"); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("guest checkout for claimed email = %v, want ErrAccountExists", err)
	}
	if _, err := f.auth.Register(ctx, &dto.RegisterRequest{
		Email: "guest@example.com", Password: "second-try", ClaimToken: guest.ClaimToken,
	}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("replayed claim = %v, want ErrEmailTaken", err)
	}
}

func TestRegisterGuestEmailRequiresClaimToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	guest, err := f.auth.FindOrCreateGuest(ctx, "buyer@example.com")
	if err != nil {
		t.Fatalf("FindOrCreateGuest: %v", err)
	}

	for name, claim := range map[string]string{"missing": "", "wrong": "not-the-token"} {
		t.Run(name, func(t *testing.T) {
			_, err := f.auth.Register(ctx, &dto.RegisterRequest{
				Email: "buyer@example.com", Password: "attacker-pass", ClaimToken: claim,
			})
			if !errors.Is(err, ErrClaimRequired) {
				t.Fatalf("err = %v, want ErrClaimRequired", err)
			}
		})
	}

	user, err := f.store.Users.FindByID(ctx, guest.User.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if !user.IsGuest || user.Password != nil {
		t.Fatalf("guest account changed: %+v", user)
	}
}

func TestFindOrCreateGuestReuses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.auth.FindOrCreateGuest(ctx, "Guest@Example.com")
	if err != nil {
		t.Fatalf("FindOrCreateGuest: %v", err)
	}
	second, err := f.auth.FindOrCreateGuest(ctx, "guest@example.com")
	if err != nil {
		t.Fatalf("FindOrCreateGuest again: %v", err)
	}
	if first.User.ID != second.User.ID || !second.User.IsGuest {
		t.Fatalf("guest not reused: %+v vs %+v", first.User, second.User)
	}
	if second.ClaimToken != "" {
		t.Fatal("only the creating call receives the claim token")
	}
}

func TestVerifyTokenRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	sign := func(secret string, method jwt.SigningMethod, claims jwt.MapClaims) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}
	valid := jwt.MapClaims{"sub": userID.String(), "exp": baseTime.Add(time.Hour).Unix()}

	tests := map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": sign("other-secret", jwt.SigningMethodHS256, valid),
		"wrong alg":    sign("test-secret", jwt.SigningMethodHS512, valid),
		"expired":      sign("test-secret", jwt.SigningMethodHS256, jwt.MapClaims{"sub": userID.String(), "exp": baseTime.Add(-time.Minute).Unix()}),
		"bad subject":  sign("test-secret", jwt.SigningMethodHS256, jwt.MapClaims{"sub": "nope", "exp": baseTime.Add(time.Hour).Unix()}),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := f.auth.VerifyToken(ctx, token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}
