package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestNewPaymentServiceAmount(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		amount  string
		minor   int64
		wantErr bool
	}{
		{"10.00", 1000, false},
		{"9.99", 999, false},
		{"25", 2500, false},
		{"0", 0, true},
		{"-5.00", 0, true},
		{"ten", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			svc, err := NewPaymentService(f.registry, f.billing, tt.amount, "USD")
			if tt.wantErr {
				if err == nil {
					t.Fatal("want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewPaymentService: %v", err)
			}
			if svc.AmountMinor() != tt.minor {
				t.Fatalf("AmountMinor = %d, want %d", svc.AmountMinor(), tt.minor)
			}
		})
	}
}

func TestCreatePaymentIntent(t *testing.T) {
	f := newFixture(t)
	svc, err := NewPaymentService(f.registry, f.billing, "10.00", "USD")
	if err != nil {
		t.Fatal(err)
	}
	caller := Caller{UserID: uuid.New(), Email: "payer@example.com"}

	secret, err := svc.CreatePaymentIntent(context.Background(), caller)
	if err != nil {
		t.Fatalf("CreatePaymentIntent: %v", err)
	}
	if secret == "" {
		t.Fatal("want a client secret")
	}
	intent := f.billing.Intents[0]
	if intent.AmountMinor != 1000 || intent.Currency != "usd" || intent.Metadata["user_id"] != caller.UserID.String() {
		t.Fatalf("intent = %+v", intent)
	}
	if intent.CustomerID != "cus_test_1" {
		t.Fatalf("customer = %q", intent.CustomerID)
	}
}
