/**
 * @description
 * Submission workflow use cases. Submitting claims a task slot; the buyer's
 * approve/reject decision settles it. The double-payout guard lives in the
 * repository's approve transaction; this layer validates input, throttles
 * submission bursts, and composes the notifications for each transition.
 */

package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/worknest/worknest/internal/domain"
)

// CreateSubmission files a worker's claim against a task and takes one
// worker slot. The duplicate-submission policy is configuration: by default
// a worker with an active (pending or approved) submission on the task
// cannot file another.
func (s *Service) CreateSubmission(ctx context.Context, workerEmail string, req domain.CreateSubmissionRequest) (*domain.Submission, error) {
	workerEmail = normalizeEmail(workerEmail)
	detail := strings.TrimSpace(req.Detail)
	if detail == "" {
		return nil, fmt.Errorf("%w: submission_detail is required", ErrValidation)
	}
	if req.TaskID == uuid.Nil {
		return nil, fmt.Errorf("%w: task_id is required", ErrValidation)
	}

	if s.rateLimiter != nil && s.opts.SubmitRateLimit > 0 {
		count, retryAfter, err := s.rateLimiter.ConsumeRateLimit(ctx, "submission", workerEmail, s.opts.SubmitRateLimit, s.opts.SubmitRateWindow)
		if err != nil {
			// The limiter is best effort: a broken Redis must not block
			// submissions.
			log.Printf("level=warn component=app msg=\"submission rate limiter unavailable\" worker=%s error=%v", workerEmail, err)
		} else if count > s.opts.SubmitRateLimit {
			return nil, &RateLimitError{RetryAfterSeconds: retryAfter}
		}
	}

	sub := &domain.Submission{
		ID:          uuid.New(),
		TaskID:      req.TaskID,
		WorkerEmail: workerEmail,
		Detail:      detail,
	}

	note := domain.NewNotification("",
		fmt.Sprintf("%s submitted work for your task.", workerEmail),
		"/my-tasks")

	if err := s.repo.CreateSubmission(ctx, sub, s.opts.AllowResubmission, note); err != nil {
		return nil, err
	}
	return sub, nil
}

// GetSubmission loads one submission.
func (s *Service) GetSubmission(ctx context.Context, id uuid.UUID) (*domain.Submission, error) {
	return s.repo.FindSubmissionByID(ctx, id)
}

// ListSubmissions returns every submission. Admin-only at the route layer.
func (s *Service) ListSubmissions(ctx context.Context) ([]domain.Submission, error) {
	return s.repo.ListSubmissions(ctx)
}

// ListSubmissionsForBuyer returns submissions filed against the buyer's
// tasks.
func (s *Service) ListSubmissionsForBuyer(ctx context.Context, buyerEmail string) ([]domain.Submission, error) {
	return s.repo.ListSubmissionsByBuyer(ctx, normalizeEmail(buyerEmail))
}

// ListSubmissionsForWorker returns the worker's own submissions.
func (s *Service) ListSubmissionsForWorker(ctx context.Context, workerEmail string) ([]domain.Submission, error) {
	return s.repo.ListSubmissionsByWorker(ctx, normalizeEmail(workerEmail))
}

// ApproveSubmission settles a pending submission in the worker's favor:
// the worker is credited the task's per-worker amount and a payout record
// is appended, all inside the repository's transaction. A second approval
// of the same submission fails ErrInvalidState and moves no coins.
func (s *Service) ApproveSubmission(ctx context.Context, buyerEmail string, id uuid.UUID) (*domain.Submission, error) {
	buyerEmail = normalizeEmail(buyerEmail)

	// Read the submission first so the notification carries the task title
	// and payout. The repository re-reads it under lock for the decision
	// itself, so this pre-read is informational only.
	current, err := s.repo.FindSubmissionByID(ctx, id)
	if err != nil {
		return nil, err
	}

	note := domain.NewNotification(current.WorkerEmail,
		fmt.Sprintf("Your submission for %q was approved. You earned %d coins.", current.TaskTitle, current.PayableAmount),
		"/my-submissions")
	return s.repo.ApproveSubmission(ctx, id, buyerEmail, note)
}

// RejectSubmission settles a pending submission against the worker and
// returns the slot to the task's pool.
func (s *Service) RejectSubmission(ctx context.Context, buyerEmail string, id uuid.UUID) (*domain.Submission, error) {
	buyerEmail = normalizeEmail(buyerEmail)

	current, err := s.repo.FindSubmissionByID(ctx, id)
	if err != nil {
		return nil, err
	}

	note := domain.NewNotification(current.WorkerEmail,
		fmt.Sprintf("Your submission for %q was rejected.", current.TaskTitle),
		"/my-submissions")
	return s.repo.RejectSubmission(ctx, id, buyerEmail, note)
}
