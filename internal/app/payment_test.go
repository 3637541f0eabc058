package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/worknest/worknest/internal/domain"
	"github.com/worknest/worknest/internal/store"
	"github.com/worknest/worknest/pkg/payments"
)

type paymentRepoStub struct {
	store.Repository

	recorded     *domain.Payment
	recordedNote *domain.Notification
	recordErr    error
}

func (s *paymentRepoStub) RecordCoinPurchase(ctx context.Context, p *domain.Payment, note *domain.Notification) error {
	s.recorded = p
	s.recordedNote = note
	return s.recordErr
}

func TestCreatePaymentIntent_CallsGateway(t *testing.T) {
	var gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")

		var body struct {
			Amount   int64  `json:"amount"`
			Currency string `json:"currency"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode intent request: %v", err)
		}
		if body.Amount != 500 || body.Currency != "usd" {
			t.Errorf("unexpected intent request: %+v", body)
		}

		json.NewEncoder(w).Encode(payments.Intent{
			ID:           "pi_test_1",
			ClientSecret: "pi_test_1_secret",
			Amount:       body.Amount,
			Currency:     body.Currency,
			Status:       "requires_payment_method",
		})
	}))
	defer server.Close()

	gateway := payments.NewClient(server.URL, "sk_test_key", "usd")
	svc := NewService(&paymentRepoStub{}, gateway, nil, nil, Options{})

	intent, err := svc.CreatePaymentIntent(context.Background(), domain.PaymentIntentRequest{Amount: 500})
	if err != nil {
		t.Fatalf("CreatePaymentIntent returned error: %v", err)
	}
	if gotPath != "/v1/payment_intents" {
		t.Fatalf("unexpected gateway path %q", gotPath)
	}
	if gotAuth != "Bearer sk_test_key" {
		t.Fatalf("unexpected authorization header %q", gotAuth)
	}
	if intent.ID != "pi_test_1" || intent.ClientSecret != "pi_test_1_secret" {
		t.Fatalf("unexpected intent: %+v", intent)
	}
}

func TestCreatePaymentIntent_RejectsBadAmount(t *testing.T) {
	svc := NewService(&paymentRepoStub{}, payments.NewClient("http://localhost", "k", "usd"), nil, nil, Options{})

	if _, err := svc.CreatePaymentIntent(context.Background(), domain.PaymentIntentRequest{Amount: 0}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreatePaymentIntent_NoGateway(t *testing.T) {
	svc := NewService(&paymentRepoStub{}, nil, nil, nil, Options{})

	if _, err := svc.CreatePaymentIntent(context.Background(), domain.PaymentIntentRequest{Amount: 500}); err == nil {
		t.Fatal("expected an error when the gateway is not configured")
	}
}

func TestCreatePaymentIntent_GatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`))
	}))
	defer server.Close()

	gateway := payments.NewClient(server.URL, "sk_test_key", "usd")
	svc := NewService(&paymentRepoStub{}, gateway, nil, nil, Options{})

	_, err := svc.CreatePaymentIntent(context.Background(), domain.PaymentIntentRequest{Amount: 500})
	var gatewayErr *payments.ErrorResponse
	if !errors.As(err, &gatewayErr) {
		t.Fatalf("expected a gateway error response, got %v", err)
	}
	if gatewayErr.Err.Code != "card_declined" {
		t.Fatalf("unexpected gateway error code %q", gatewayErr.Err.Code)
	}
}

func TestRecordPayment_Validation(t *testing.T) {
	svc := NewService(&paymentRepoStub{}, nil, nil, nil, Options{})

	cases := []struct {
		name string
		req  domain.RecordPaymentRequest
	}{
		{"missing intent id", domain.RecordPaymentRequest{CoinAmount: 100, CashAmount: 500}},
		{"zero coins", domain.RecordPaymentRequest{IntentID: "pi_1", CashAmount: 500}},
		{"zero cash", domain.RecordPaymentRequest{IntentID: "pi_1", CoinAmount: 100}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.RecordPayment(context.Background(), "buyer@example.com", tc.req); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRecordPayment_CreditsBuyer(t *testing.T) {
	repo := &paymentRepoStub{}
	svc := NewService(repo, nil, nil, nil, Options{})

	p, err := svc.RecordPayment(context.Background(), "Buyer@Example.com", domain.RecordPaymentRequest{
		IntentID:   "pi_1",
		CoinAmount: 100,
		CashAmount: 500,
	})
	if err != nil {
		t.Fatalf("RecordPayment returned error: %v", err)
	}
	if p.Kind != domain.PaymentMade {
		t.Fatalf("expected a %q record, got %q", domain.PaymentMade, p.Kind)
	}
	if p.ToEmail != "buyer@example.com" {
		t.Fatalf("expected normalized buyer email, got %q", p.ToEmail)
	}
	if p.IntentID == nil || *p.IntentID != "pi_1" {
		t.Fatal("expected intent id on the payment record")
	}
	if repo.recordedNote == nil || repo.recordedNote.ToEmail != "buyer@example.com" {
		t.Fatal("expected a purchase notification for the buyer")
	}
}

func TestRecordPayment_DuplicateIntent(t *testing.T) {
	repo := &paymentRepoStub{recordErr: store.ErrDuplicatePayment}
	svc := NewService(repo, nil, nil, nil, Options{})

	_, err := svc.RecordPayment(context.Background(), "buyer@example.com", domain.RecordPaymentRequest{
		IntentID:   "pi_1",
		CoinAmount: 100,
		CashAmount: 500,
	})
	if !errors.Is(err, store.ErrDuplicatePayment) {
		t.Fatalf("expected ErrDuplicatePayment, got %v", err)
	}
}
