/**
 * @description
 * This file sets up the HTTP router for the marketplace. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies
 * the authentication and role-policy middleware per route group.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for browser clients.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/worknest/worknest/internal/domain"
)

// Routes creates and returns the router for the marketplace API.
func Routes(h *Handlers, jwksURL string, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Public worker leaderboard.
	r.Get("/best-workers", h.BestWorkersHandler)

	anyRole := Policy{}
	adminOnly := Policy{Roles: []string{domain.RoleAdmin}}
	buyerOnly := Policy{Roles: []string{domain.RoleBuyer}, AdminOverride: true}
	workerOnly := Policy{Roles: []string{domain.RoleWorker}, AdminOverride: true}

	// Group routes that require authentication.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(jwksURL))

		// Sign-in is the one authenticated route without a policy gate:
		// the caller's account may not exist yet.
		r.Post("/users", h.SignInHandler)

		// Account management.
		r.With(h.RequirePolicy(adminOnly)).Get("/users", h.ListUsersHandler)
		r.With(h.RequirePolicy(Policy{SelfParam: "email", AdminOverride: true})).Get("/users/{email}", h.GetUserHandler)
		r.With(h.RequirePolicy(Policy{SelfParam: "email", AdminOverride: true})).Get("/users/{email}/role", h.GetUserRoleHandler)
		r.With(h.RequirePolicy(adminOnly)).Patch("/users/{email}/role", h.UpdateUserRoleHandler)
		r.With(h.RequirePolicy(adminOnly)).Delete("/users/{id}", h.DeleteUserHandler)
		r.With(h.RequirePolicy(adminOnly)).Get("/admin/stats", h.AdminStatsHandler)

		// Task lifecycle.
		r.With(h.RequirePolicy(buyerOnly)).Post("/tasks", h.CreateTaskHandler)
		r.With(h.RequirePolicy(anyRole)).Get("/tasks", h.ListTasksHandler)
		r.With(h.RequirePolicy(anyRole)).Get("/tasks/{id}", h.GetTaskHandler)
		r.With(h.RequirePolicy(buyerOnly)).Put("/tasks/{id}", h.UpdateTaskHandler)
		r.With(h.RequirePolicy(buyerOnly)).Delete("/tasks/{id}", h.DeleteTaskHandler)

		// Submission workflow.
		r.With(h.RequirePolicy(workerOnly)).Post("/submissions", h.CreateSubmissionHandler)
		r.With(h.RequirePolicy(adminOnly)).Get("/submissions", h.ListSubmissionsHandler)
		r.With(h.RequirePolicy(Policy{Roles: []string{domain.RoleBuyer}, SelfParam: "email", AdminOverride: true})).Get("/submissions/buyer/{email}", h.ListBuyerSubmissionsHandler)
		r.With(h.RequirePolicy(Policy{Roles: []string{domain.RoleWorker}, SelfParam: "workerEmail", AdminOverride: true})).Get("/my-submissions/{workerEmail}", h.ListWorkerSubmissionsHandler)
		r.With(h.RequirePolicy(buyerOnly)).Post("/submissions/approve/{id}", h.ApproveSubmissionHandler)
		r.With(h.RequirePolicy(buyerOnly)).Patch("/submissions/reject/{id}", h.RejectSubmissionHandler)

		// Withdrawal workflow.
		r.With(h.RequirePolicy(workerOnly)).Post("/withdrawals", h.CreateWithdrawalHandler)
		r.With(h.RequirePolicy(adminOnly)).Get("/withdrawals", h.ListPendingWithdrawalsHandler)
		r.With(h.RequirePolicy(Policy{Roles: []string{domain.RoleWorker}, SelfParam: "workerEmail", AdminOverride: true})).Get("/my-withdrawals/{workerEmail}", h.ListWorkerWithdrawalsHandler)
		r.With(h.RequirePolicy(adminOnly)).Put("/withdrawals/{id}", h.UpdateWithdrawalHandler)

		// Payment gateway boundary.
		r.With(h.RequirePolicy(buyerOnly)).Post("/payment-intent", h.CreatePaymentIntentHandler)
		r.With(h.RequirePolicy(buyerOnly)).Post("/payments", h.RecordPaymentHandler)
		r.With(h.RequirePolicy(Policy{SelfParam: "email", AdminOverride: true})).Get("/payments/{email}", h.ListPaymentsHandler)

		// Notifications.
		r.With(h.RequirePolicy(Policy{SelfQuery: "toEmail", AdminOverride: true})).Get("/notifications", h.ListNotificationsHandler)
		r.With(h.RequirePolicy(anyRole)).Patch("/notifications/{id}/read", h.ReadNotificationHandler)
	})

	return r
}
