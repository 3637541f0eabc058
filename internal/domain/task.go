/**
 * @description
 * This file defines the task model and its request DTOs. A task escrows
 * `payable_amount × required_workers` coins from its buyer at creation time;
 * `remaining_workers` tracks the still-unfilled worker slots.
 *
 * @notes
 * - The invariant `total_payable_amount == payable_amount × required_workers`
 *   must hold after create and after every edit; the store re-derives it
 *   rather than trusting a client-supplied total.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Task represents one buyer-funded micro task. Maps to the `tasks` table.
type Task struct {
	ID                 uuid.UUID `json:"id"`
	Title              string    `json:"task_title"`
	Detail             string    `json:"task_detail"`
	BuyerEmail         string    `json:"buyer_email"`
	PayableAmount      int64     `json:"payable_amount"`   // coins per worker
	RequiredWorkers    int       `json:"required_workers"` // originally requested slots
	RemainingWorkers   int       `json:"remaining_workers"`
	TotalPayableAmount int64     `json:"total_payable_amount"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// CreateTaskRequest is the DTO for posting a new task.
type CreateTaskRequest struct {
	Title           string `json:"task_title"`
	Detail          string `json:"task_detail"`
	PayableAmount   int64  `json:"payable_amount"`
	RequiredWorkers int    `json:"required_workers"`
}

// UpdateTaskRequest is the DTO for editing a task. Nil fields are left
// untouched; changing the price or the worker target re-derives the escrow
// delta against the buyer's balance.
type UpdateTaskRequest struct {
	Title           *string `json:"task_title,omitempty"`
	Detail          *string `json:"task_detail,omitempty"`
	PayableAmount   *int64  `json:"payable_amount,omitempty"`
	RequiredWorkers *int    `json:"required_workers,omitempty"`
}
