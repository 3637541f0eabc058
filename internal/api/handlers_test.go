package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/worknest/worknest/internal/app"
	"github.com/worknest/worknest/internal/domain"
	"github.com/worknest/worknest/internal/store"
)

func TestWriteDomainError_StatusMapping(t *testing.T) {
	h := NewHandlers(nil)

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("%w: bad input", app.ErrValidation), http.StatusBadRequest},
		{"insufficient funds", store.ErrInsufficientFunds, http.StatusBadRequest},
		{"rate limited", &app.RateLimitError{RetryAfterSeconds: 30}, http.StatusTooManyRequests},
		{"invalid state", store.ErrInvalidState, http.StatusConflict},
		{"task full", store.ErrTaskFull, http.StatusConflict},
		{"duplicate submission", store.ErrDuplicateSubmission, http.StatusConflict},
		{"duplicate payment", store.ErrDuplicatePayment, http.StatusConflict},
		{"not owner", store.ErrNotOwner, http.StatusForbidden},
		{"user not found", store.ErrUserNotFound, http.StatusNotFound},
		{"task not found", store.ErrTaskNotFound, http.StatusNotFound},
		{"unknown", fmt.Errorf("some db explosion"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.writeDomainError(rec, "test", tc.err)
			if rec.Code != tc.want {
				t.Fatalf("expected status %d, got %d", tc.want, rec.Code)
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("expected a JSON error body: %v", err)
			}
			if body["error"] == "" {
				t.Fatal("expected a non-empty error message")
			}
		})
	}
}

func TestWriteDomainError_RateLimitRetryAfterHeader(t *testing.T) {
	h := NewHandlers(nil)
	rec := httptest.NewRecorder()

	h.writeDomainError(rec, "test", &app.RateLimitError{RetryAfterSeconds: 42})
	if got := rec.Header().Get("Retry-After"); got != "42" {
		t.Fatalf("expected Retry-After 42, got %q", got)
	}
}

type signInHandlerRepoStub struct {
	store.Repository

	created bool
}

func (s *signInHandlerRepoStub) UpsertUserBySignIn(ctx context.Context, u *domain.User) (*domain.User, bool, error) {
	return u, s.created, nil
}

func (s *signInHandlerRepoStub) CreateNotification(ctx context.Context, n *domain.Notification) error {
	return nil
}

func TestSignInHandler_StatusByCreation(t *testing.T) {
	for _, tc := range []struct {
		name    string
		created bool
		want    int
	}{
		{"first sign-in", true, http.StatusCreated},
		{"repeat sign-in", false, http.StatusOK},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandlers(app.NewService(&signInHandlerRepoStub{created: tc.created}, nil, nil, nil, app.Options{}))

			req := httptest.NewRequest("POST", "/users", strings.NewReader(`{"name":"W","role":"worker"}`))
			req = req.WithContext(context.WithValue(req.Context(), authEmailKey, "worker@example.com"))
			rec := httptest.NewRecorder()
			h.SignInHandler(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("expected status %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
			var user domain.User
			if err := json.NewDecoder(rec.Body).Decode(&user); err != nil {
				t.Fatalf("expected a user body: %v", err)
			}
			if user.Email != "worker@example.com" {
				t.Fatalf("unexpected user email %q", user.Email)
			}
		})
	}
}

func TestSignInHandler_RequiresAuth(t *testing.T) {
	h := NewHandlers(app.NewService(&signInHandlerRepoStub{}, nil, nil, nil, app.Options{}))

	req := httptest.NewRequest("POST", "/users", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.SignInHandler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without an authenticated email, got %d", rec.Code)
	}
}
