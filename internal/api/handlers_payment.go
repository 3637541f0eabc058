/**
 * @description
 * HTTP handlers at the payment gateway boundary: opening a payment intent
 * for a coin purchase, recording the completed charge, and the per-account
 * payment history.
 */

package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/worknest/worknest/internal/domain"
)

// CreatePaymentIntentHandler opens a gateway charge and returns the client
// secret the frontend needs to complete it.
func (h *Handlers) CreatePaymentIntentHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.PaymentIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	intent, err := h.service.CreatePaymentIntent(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, "create_payment_intent", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{
		"intent_id":     intent.ID,
		"client_secret": intent.ClientSecret,
	})
}

// RecordPaymentHandler records a completed coin purchase and credits the
// caller. Replaying the same intent id is a conflict, not a second credit.
func (h *Handlers) RecordPaymentHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := GetAuthUser(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req domain.RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	payment, err := h.service.RecordPayment(r.Context(), user.Email, req)
	if err != nil {
		h.writeDomainError(w, "record_payment", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, payment)
}

// ListPaymentsHandler returns the payment history for one account.
func (h *Handlers) ListPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	email := normalizeParamEmail(chi.URLParam(r, "email"))
	payments, err := h.service.ListPayments(r.Context(), email)
	if err != nil {
		h.writeDomainError(w, "list_payments", err)
		return
	}
	h.writeJSON(w, http.StatusOK, payments)
}
