package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

func errorApp(err error) *fiber.App {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return respondError(c, err)
	})
	return app
}

func decodeError(t *testing.T, resp *http.Response) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestRespondErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"validation", &services.ValidationError{Field: "plan", Message: "is required"}, 400, CodeValidation, "plan: is required"},
		{"not found", services.ErrSubmissionNotFound, 404, CodeNotFound, "submission not found"},
		{"wrapped not found", fmt.Errorf("load: %w", services.ErrCustomerNotFound), 404, CodeNotFound, ""},
		{"invalid transition", services.ErrInvalidTransition, 409, CodeInvalidTransition, ""},
		{"account exists", services.ErrAccountExists, 409, CodeAccountExists, ""},
		{"email taken", services.ErrEmailTaken, 409, CodeEmailTaken, ""},
		{"claim required", services.ErrClaimRequired, 409, CodeClaimRequired, ""},
		{"bad credentials", services.ErrInvalidCredentials, 401, CodeUnauthorized, ""},
		{"upstream", &services.UpstreamError{Op: "create_checkout_session", Err: errors.New("No such price")}, 502, CodeUpstream, "No such price"},
		{"cancellation", &services.CancellationError{Failed: map[string]error{"sub_1": errors.New("timeout")}}, 502, CodeCancellation, ""},
		{"unknown", errors.New("pq: connection refused"), 500, CodeInternal, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := errorApp(tt.err).Test(httptest.NewRequest(http.MethodGet, "/", nil))
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			body := decodeError(t, resp)
			if body.Code != tt.code {
				t.Fatalf("code = %q, want %q", body.Code, tt.code)
			}
			if tt.message != "" && body.Error != tt.message {
				t.Fatalf("error = %q, want %q", body.Error, tt.message)
			}
			if body.RetryAfter != nil {
				t.Fatal("retry_after only belongs to cooldown errors")
			}
		})
	}
}

func TestRespondErrorCooldown(t *testing.T) {
	// RetryAfter lies in the past on the wall clock; the header must follow
	// the guard's remaining duration, not time.Now.
	retryAfter := time.Date(2025, time.March, 4, 12, 0, 0, 0, time.UTC)
	app := errorApp(&services.CooldownError{RetryAfter: retryAfter, Remaining: 72 * time.Hour, DaysRemaining: 3})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
	if got := resp.Header.Get(fiber.HeaderRetryAfter); got != "259200" {
		t.Fatalf("Retry-After = %q, want 259200", got)
	}
	body := decodeError(t, resp)
	if body.Code != CodeCooldown || body.RetryAfter == nil || !body.RetryAfter.Equal(retryAfter) {
		t.Fatalf("body = %+v, want retry_after %v", body, retryAfter)
	}
	if !strings.Contains(body.Error, "3 days") {
		t.Fatalf("error = %q", body.Error)
	}
}

func TestDecodeStrict(t *testing.T) {
	type payload struct {
		Plan string `json:"plan"`
	}
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		var p payload
		if err := decodeStrict(c, &p); err != nil {
			return respondError(c, err)
		}
		return c.SendString(p.Plan)
	})

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"valid", `{"plan":"monthly"}`, 200},
		{"unknown field", `{"plan":"monthly","coupon":"FREE"}`, 400},
		{"empty", ``, 400},
		{"malformed", `{"plan":`, 400},
		{"trailing data", `{"plan":"monthly"}{"plan":"annual"}`, 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.status {
				raw, _ := io.ReadAll(resp.Body)
				t.Fatalf("status = %d, want %d (%s)", resp.StatusCode, tt.status, raw)
			}
		})
	}
}
