package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/worknest/worknest/internal/domain"
	"github.com/worknest/worknest/internal/store"
)

type submissionRepoStub struct {
	store.Repository

	submission *domain.Submission
	createErr  error
	decideErr  error

	createdSubmission *domain.Submission
	createdNote       *domain.Notification
	allowResubmit     bool
	approveNote       *domain.Notification
	approveBuyer      string
}

func (s *submissionRepoStub) CreateSubmission(ctx context.Context, sub *domain.Submission, allowResubmit bool, note *domain.Notification) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.createdSubmission = sub
	s.createdNote = note
	s.allowResubmit = allowResubmit
	return nil
}

func (s *submissionRepoStub) FindSubmissionByID(ctx context.Context, id uuid.UUID) (*domain.Submission, error) {
	if s.submission == nil {
		return nil, store.ErrSubmissionNotFound
	}
	return s.submission, nil
}

func (s *submissionRepoStub) ApproveSubmission(ctx context.Context, id uuid.UUID, buyerEmail string, note *domain.Notification) (*domain.Submission, error) {
	s.approveBuyer = buyerEmail
	s.approveNote = note
	if s.decideErr != nil {
		return nil, s.decideErr
	}
	s.submission.Status = domain.SubmissionApproved
	return s.submission, nil
}

func (s *submissionRepoStub) RejectSubmission(ctx context.Context, id uuid.UUID, buyerEmail string, note *domain.Notification) (*domain.Submission, error) {
	if s.decideErr != nil {
		return nil, s.decideErr
	}
	s.submission.Status = domain.SubmissionRejected
	return s.submission, nil
}

type rateLimiterStub struct {
	count      int
	retryAfter int
	err        error

	lastScope   string
	lastSubject string
	lastLimit   int
	lastWindow  time.Duration
}

func (r *rateLimiterStub) ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (int, int, error) {
	r.lastScope = scope
	r.lastSubject = subject
	r.lastLimit = limit
	r.lastWindow = window
	return r.count, r.retryAfter, r.err
}

func TestCreateSubmission_RejectsMissingFields(t *testing.T) {
	svc := NewService(&submissionRepoStub{}, nil, nil, nil, Options{})

	if _, err := svc.CreateSubmission(context.Background(), "w@example.com", domain.CreateSubmissionRequest{TaskID: uuid.New()}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for empty detail, got %v", err)
	}
	if _, err := svc.CreateSubmission(context.Background(), "w@example.com", domain.CreateSubmissionRequest{Detail: "done"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for missing task id, got %v", err)
	}
}

func TestCreateSubmission_PassesResubmissionPolicy(t *testing.T) {
	repo := &submissionRepoStub{}
	svc := NewService(repo, nil, nil, nil, Options{AllowResubmission: true})

	sub, err := svc.CreateSubmission(context.Background(), "Worker@Example.com", domain.CreateSubmissionRequest{
		TaskID: uuid.New(),
		Detail: "done, see attachment",
	})
	if err != nil {
		t.Fatalf("CreateSubmission returned error: %v", err)
	}
	if !repo.allowResubmit {
		t.Fatal("expected resubmission policy to reach the repository")
	}
	if sub.WorkerEmail != "worker@example.com" {
		t.Fatalf("expected normalized worker email, got %q", sub.WorkerEmail)
	}
	if repo.createdNote == nil {
		t.Fatal("expected a buyer notification alongside the submission")
	}
	if !strings.Contains(repo.createdNote.Message, "worker@example.com") {
		t.Fatalf("expected notification to name the worker, got %q", repo.createdNote.Message)
	}
}

func TestCreateSubmission_RateLimited(t *testing.T) {
	limiter := &rateLimiterStub{count: 4, retryAfter: 42}
	svc := NewService(&submissionRepoStub{}, nil, nil, limiter, Options{
		SubmitRateLimit:  3,
		SubmitRateWindow: time.Minute,
	})

	_, err := svc.CreateSubmission(context.Background(), "worker@example.com", domain.CreateSubmissionRequest{
		TaskID: uuid.New(),
		Detail: "done",
	})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	var rle *RateLimitError
	if !errors.As(err, &rle) || rle.RetryAfterSeconds != 42 {
		t.Fatalf("expected retry hint 42, got %v", err)
	}
	if limiter.lastScope != "submission" || limiter.lastSubject != "worker@example.com" {
		t.Fatalf("unexpected limiter call: scope=%q subject=%q", limiter.lastScope, limiter.lastSubject)
	}
}

func TestCreateSubmission_LimiterFailureIsBestEffort(t *testing.T) {
	repo := &submissionRepoStub{}
	limiter := &rateLimiterStub{err: fmt.Errorf("redis down")}
	svc := NewService(repo, nil, nil, limiter, Options{
		SubmitRateLimit:  3,
		SubmitRateWindow: time.Minute,
	})

	if _, err := svc.CreateSubmission(context.Background(), "worker@example.com", domain.CreateSubmissionRequest{
		TaskID: uuid.New(),
		Detail: "done",
	}); err != nil {
		t.Fatalf("a broken limiter must not block submissions, got %v", err)
	}
	if repo.createdSubmission == nil {
		t.Fatal("expected the submission to be persisted despite the limiter failure")
	}
}

func TestApproveSubmission_NotifiesWorkerWithPayout(t *testing.T) {
	repo := &submissionRepoStub{
		submission: &domain.Submission{
			ID:            uuid.New(),
			TaskTitle:     "Tag product photos",
			PayableAmount: 15,
			WorkerEmail:   "worker@example.com",
			BuyerEmail:    "buyer@example.com",
			Status:        domain.SubmissionPending,
		},
	}
	svc := NewService(repo, nil, nil, nil, Options{})

	approved, err := svc.ApproveSubmission(context.Background(), "Buyer@Example.com", repo.submission.ID)
	if err != nil {
		t.Fatalf("ApproveSubmission returned error: %v", err)
	}
	if approved.Status != domain.SubmissionApproved {
		t.Fatalf("expected approved status, got %q", approved.Status)
	}
	if repo.approveBuyer != "buyer@example.com" {
		t.Fatalf("expected normalized buyer email, got %q", repo.approveBuyer)
	}
	if repo.approveNote == nil {
		t.Fatal("expected a worker notification")
	}
	if repo.approveNote.ToEmail != "worker@example.com" {
		t.Fatalf("expected notification addressed to the worker, got %q", repo.approveNote.ToEmail)
	}
	if !strings.Contains(repo.approveNote.Message, "Tag product photos") || !strings.Contains(repo.approveNote.Message, "15") {
		t.Fatalf("expected notification to carry task title and payout, got %q", repo.approveNote.Message)
	}
}

func TestCreateSubmission_NoRemainingSlots(t *testing.T) {
	repo := &submissionRepoStub{createErr: store.ErrTaskFull}
	svc := NewService(repo, nil, nil, nil, Options{})

	_, err := svc.CreateSubmission(context.Background(), "worker@example.com", domain.CreateSubmissionRequest{
		TaskID: uuid.New(),
		Detail: "done",
	})
	if !errors.Is(err, store.ErrTaskFull) {
		t.Fatalf("expected ErrTaskFull on a consumed slot pool, got %v", err)
	}
}

func TestDecideSubmission_RepeatDecision(t *testing.T) {
	// A decided submission fails the pending gate; no second payout is
	// possible regardless of which decision is retried.
	repo := &submissionRepoStub{
		submission: &domain.Submission{
			ID:          uuid.New(),
			WorkerEmail: "worker@example.com",
			Status:      domain.SubmissionApproved,
		},
		decideErr: store.ErrInvalidState,
	}
	svc := NewService(repo, nil, nil, nil, Options{})

	if _, err := svc.ApproveSubmission(context.Background(), "buyer@example.com", repo.submission.ID); !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on repeat approval, got %v", err)
	}
	if _, err := svc.RejectSubmission(context.Background(), "buyer@example.com", repo.submission.ID); !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on rejecting a decided submission, got %v", err)
	}
}

func TestApproveSubmission_UnknownID(t *testing.T) {
	svc := NewService(&submissionRepoStub{}, nil, nil, nil, Options{})

	if _, err := svc.ApproveSubmission(context.Background(), "buyer@example.com", uuid.New()); !errors.Is(err, store.ErrSubmissionNotFound) {
		t.Fatalf("expected ErrSubmissionNotFound, got %v", err)
	}
}
