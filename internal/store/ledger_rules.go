/**
 * @description
 * Pure ledger rules shared by the transactional repository methods: the
 * task-edit reconciliation, the ownership predicate, the pending-status
 * gates, and the delete refund. Keeping them free of SQL lets the money
 * math be tested without a database while the callers apply them under the
 * row locks that make them safe.
 */

package store

import "github.com/worknest/worknest/internal/domain"

// taskEditState is the locked task row's current values, the base an edit
// is reconciled against.
type taskEditState struct {
	Title              string
	Detail             string
	PayableAmount      int64
	RequiredWorkers    int
	RemainingWorkers   int
	TotalPayableAmount int64
}

// applyTaskEdit merges an edit intent over the current row state and
// derives the new counts, the new escrow total, and the coin delta against
// the buyer (positive = extra debit, negative = refund). Slots already
// consumed by submissions are preserved: the new remaining count is the new
// required count minus slots taken, and a required count below the consumed
// count fails ErrInvalidState. Must be called on a row held FOR UPDATE so
// the delta is computed against the committed total, never a stale read.
func applyTaskEdit(cur taskEditState, params UpdateTaskParams) (taskEditState, int64, error) {
	next := cur
	if params.Title != nil {
		next.Title = *params.Title
	}
	if params.Detail != nil {
		next.Detail = *params.Detail
	}
	if params.PayableAmount != nil {
		next.PayableAmount = *params.PayableAmount
	}
	if params.RequiredWorkers != nil {
		next.RequiredWorkers = *params.RequiredWorkers
	}

	consumed := cur.RequiredWorkers - cur.RemainingWorkers
	remaining := next.RequiredWorkers - consumed
	if remaining < 0 {
		return taskEditState{}, 0, ErrInvalidState
	}
	next.RemainingWorkers = remaining
	next.TotalPayableAmount = next.PayableAmount * int64(next.RequiredWorkers)

	return next, next.TotalPayableAmount - cur.TotalPayableAmount, nil
}

// ownedBy reports whether caller may act on a resource owned by owner. An
// empty caller is the admin override and always passes.
func ownedBy(owner, caller string) bool {
	return caller == "" || owner == caller
}

// ensurePendingSubmission gates both submission decisions: only a pending
// submission may be approved or rejected, which makes repeat decisions fail
// without moving coins.
func ensurePendingSubmission(status string) error {
	if status != domain.SubmissionPending {
		return ErrInvalidState
	}
	return nil
}

// ensurePendingWithdrawal is the same gate for withdrawal approval.
func ensurePendingWithdrawal(status string) error {
	if status != domain.WithdrawalPending {
		return ErrInvalidState
	}
	return nil
}

// taskDeleteRefund is the unconsumed-capacity refund on task deletion:
// already-paid-out slots stay paid.
func taskDeleteRefund(payableAmount int64, remainingWorkers int) int64 {
	return payableAmount * int64(remainingWorkers)
}
