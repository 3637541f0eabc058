/**
 * @description
 * This file defines the submission model: one worker's claim against one
 * task. A submission moves pending → approved or pending → rejected, and
 * both end states are terminal. Approval is the only path that credits the
 * worker, which makes the pending check the system's double-payout guard.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Submission statuses.
const (
	SubmissionPending  = "pending"
	SubmissionApproved = "approved"
	SubmissionRejected = "rejected"
)

// Submission maps to the `submissions` table. Task title, per-worker price
// and buyer email are denormalized at submission time so that listings and
// payout records survive a later task delete.
type Submission struct {
	ID            uuid.UUID  `json:"id"`
	TaskID        uuid.UUID  `json:"task_id"`
	TaskTitle     string     `json:"task_title"`
	PayableAmount int64      `json:"payable_amount"`
	WorkerEmail   string     `json:"worker_email"`
	BuyerEmail    string     `json:"buyer_email"`
	Detail        string     `json:"submission_detail"`
	Status        string     `json:"status"`
	SubmittedAt   time.Time  `json:"submitted_at"`
	DecidedAt     *time.Time `json:"decided_at,omitempty"`
}

// CreateSubmissionRequest is the DTO for a worker submitting against a task.
type CreateSubmissionRequest struct {
	TaskID uuid.UUID `json:"task_id"`
	Detail string    `json:"submission_detail"`
}
