/**
 * @description
 * This file contains the core business logic for WorkNest. The `Service`
 * struct orchestrates marketplace operations, coordinating between the
 * database repository, the payment gateway client, and the message broker.
 *
 * Key features:
 * - Validates every request before any ledger mutation; the repository
 *   enforces the atomic parts (balance checks, status transitions) inside
 *   its own transactions.
 * - Composes the notification rows that accompany each lifecycle event;
 *   the repository persists them with the triggering write and the
 *   dispatcher pushes them to the broker afterwards.
 *
 * @dependencies
 * - context, errors, fmt, log, strings, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID generation.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/payments, pkg/rabbitmq: For external service communication.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/worknest/worknest/internal/domain"
	"github.com/worknest/worknest/internal/store"
	"github.com/worknest/worknest/pkg/payments"
	"github.com/worknest/worknest/pkg/rabbitmq"
)

const (
	DefaultWorkerStartingCoins = 10
	DefaultBuyerStartingCoins  = 50
	DefaultBestWorkersLimit    = 6
)

// ErrValidation marks malformed or incomplete input. Handlers map anything
// wrapping it to a 400.
var ErrValidation = errors.New("validation failed")

// ErrRateLimited marks a request rejected by the submission rate limiter.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimitError carries the retry hint alongside ErrRateLimited.
type RateLimitError struct {
	RetryAfterSeconds int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry in %ds", e.RetryAfterSeconds)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// RateLimiter is the distributed counter used to throttle worker
// submissions. A nil limiter disables throttling.
type RateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// Options carries the tunables the service reads from configuration.
type Options struct {
	AllowResubmission   bool
	WorkerStartingCoins int64
	BuyerStartingCoins  int64
	BestWorkersLimit    int
	SubmitRateLimit     int
	SubmitRateWindow    time.Duration
}

// Service provides the core business logic for the marketplace.
type Service struct {
	repo          store.Repository
	gateway       *payments.Client
	eventProducer rabbitmq.Publisher
	rateLimiter   RateLimiter
	opts          Options
}

// NewService creates a new marketplace service instance.
func NewService(repo store.Repository, gateway *payments.Client, producer rabbitmq.Publisher, limiter RateLimiter, opts Options) *Service {
	if opts.WorkerStartingCoins <= 0 {
		opts.WorkerStartingCoins = DefaultWorkerStartingCoins
	}
	if opts.BuyerStartingCoins <= 0 {
		opts.BuyerStartingCoins = DefaultBuyerStartingCoins
	}
	if opts.BestWorkersLimit <= 0 {
		opts.BestWorkersLimit = DefaultBestWorkersLimit
	}
	return &Service{
		repo:          repo,
		gateway:       gateway,
		eventProducer: producer,
		rateLimiter:   limiter,
		opts:          opts,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignIn upserts the account keyed by the authenticated email. On first
// sight it creates the account with the requested role (worker by default)
// and that role's starting balance, and emits a welcome notification. On
// repeat sign-ins only the last-login timestamp moves.
func (s *Service) SignIn(ctx context.Context, email string, req domain.SignInRequest) (*domain.User, bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, false, fmt.Errorf("%w: email is required", ErrValidation)
	}

	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = domain.RoleWorker
	}
	if role == domain.RoleAdmin || !domain.ValidRole(role) {
		return nil, false, fmt.Errorf("%w: role must be %q or %q", ErrValidation, domain.RoleBuyer, domain.RoleWorker)
	}

	coins := s.opts.WorkerStartingCoins
	if role == domain.RoleBuyer {
		coins = s.opts.BuyerStartingCoins
	}

	user, created, err := s.repo.UpsertUserBySignIn(ctx, &domain.User{
		ID:    uuid.New(),
		Email: email,
		Name:  strings.TrimSpace(req.Name),
		Role:  role,
		Coins: coins,
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to sign in user: %w", err)
	}

	if created {
		note := domain.NewNotification(user.Email,
			fmt.Sprintf("Welcome to WorkNest! Your account starts with %d coins.", user.Coins),
			"/dashboard")
		if noteErr := s.repo.CreateNotification(ctx, note); noteErr != nil {
			log.Printf("level=warn component=app msg=\"failed to create welcome notification\" email=%s error=%v", user.Email, noteErr)
		}
	}

	return user, created, nil
}

// GetUserByEmail loads one account.
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.repo.FindUserByEmail(ctx, normalizeEmail(email))
}

// ListUsers returns every account. Admin-only at the route layer.
func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.repo.ListUsers(ctx)
}

// BestWorkers returns the top workers ranked by coin balance, for the
// public leaderboard.
func (s *Service) BestWorkers(ctx context.Context) ([]domain.User, error) {
	return s.repo.ListTopWorkers(ctx, s.opts.BestWorkersLimit)
}

// UpdateUserRole sets an account's role. Admin-only at the route layer.
func (s *Service) UpdateUserRole(ctx context.Context, email, role string) error {
	role = strings.TrimSpace(role)
	if !domain.ValidRole(role) {
		return fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	return s.repo.UpdateUserRole(ctx, normalizeEmail(email), role)
}

// DeleteUser removes an account by id. Admin-only at the route layer.
func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteUserByID(ctx, id)
}

// AdminStats aggregates the platform counters for the admin dashboard.
func (s *Service) AdminStats(ctx context.Context) (*domain.AdminStats, error) {
	return s.repo.CollectAdminStats(ctx)
}
