/**
 * @description
 * Task lifecycle use cases: create, edit, delete plus the read paths. The
 * creation escrow total is derived here; the edit delta and delete refund
 * are derived by the repository against the locked task row so they can
 * never be computed from a stale read.
 */

package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/worknest/worknest/internal/domain"
	"github.com/worknest/worknest/internal/store"
)

// CreateTask escrows price × required-workers from the buyer and publishes
// the task with a full slot pool.
func (s *Service) CreateTask(ctx context.Context, buyerEmail string, req domain.CreateTaskRequest) (*domain.Task, error) {
	title := strings.TrimSpace(req.Title)
	detail := strings.TrimSpace(req.Detail)
	if title == "" {
		return nil, fmt.Errorf("%w: task_title is required", ErrValidation)
	}
	if detail == "" {
		return nil, fmt.Errorf("%w: task_detail is required", ErrValidation)
	}
	if req.PayableAmount <= 0 {
		return nil, fmt.Errorf("%w: payable_amount must be positive", ErrValidation)
	}
	if req.RequiredWorkers <= 0 {
		return nil, fmt.Errorf("%w: required_workers must be positive", ErrValidation)
	}

	task := &domain.Task{
		ID:                 uuid.New(),
		Title:              title,
		Detail:             detail,
		BuyerEmail:         normalizeEmail(buyerEmail),
		PayableAmount:      req.PayableAmount,
		RequiredWorkers:    req.RequiredWorkers,
		RemainingWorkers:   req.RequiredWorkers,
		TotalPayableAmount: req.PayableAmount * int64(req.RequiredWorkers),
	}

	if err := s.repo.CreateTask(ctx, task, nil); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

// GetTask loads one task.
func (s *Service) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return s.repo.FindTaskByID(ctx, id)
}

// ListTasks returns tasks, optionally filtered to one buyer's.
func (s *Service) ListTasks(ctx context.Context, buyerEmail string) ([]domain.Task, error) {
	return s.repo.ListTasks(ctx, normalizeEmail(buyerEmail))
}

// UpdateTask validates a buyer's edit and hands the intent to the
// repository, which derives the new counts, escrow total, and coin delta
// from the task row under its own lock. Deriving there, not here, keeps a
// concurrent edit or slot claim from being reconciled against a stale read.
func (s *Service) UpdateTask(ctx context.Context, buyerEmail string, id uuid.UUID, req domain.UpdateTaskRequest) (*domain.Task, error) {
	params := store.UpdateTaskParams{
		TaskID:     id,
		BuyerEmail: normalizeEmail(buyerEmail),
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: task_title cannot be empty", ErrValidation)
		}
		params.Title = &title
	}
	if req.Detail != nil {
		detail := strings.TrimSpace(*req.Detail)
		if detail == "" {
			return nil, fmt.Errorf("%w: task_detail cannot be empty", ErrValidation)
		}
		params.Detail = &detail
	}
	if req.PayableAmount != nil {
		if *req.PayableAmount <= 0 {
			return nil, fmt.Errorf("%w: payable_amount must be positive", ErrValidation)
		}
		params.PayableAmount = req.PayableAmount
	}
	if req.RequiredWorkers != nil {
		if *req.RequiredWorkers <= 0 {
			return nil, fmt.Errorf("%w: required_workers must be positive", ErrValidation)
		}
		params.RequiredWorkers = req.RequiredWorkers
	}

	return s.repo.UpdateTask(ctx, params)
}

// DeleteTask removes the task and refunds the buyer for unconsumed
// capacity only: price × remaining slots. Already-paid-out slots stay paid.
// An empty buyerEmail is the admin override and skips the ownership check.
func (s *Service) DeleteTask(ctx context.Context, buyerEmail string, id uuid.UUID) (int64, error) {
	refund, err := s.repo.DeleteTask(ctx, id, normalizeEmail(buyerEmail))
	if err != nil {
		return 0, err
	}
	return refund, nil
}
