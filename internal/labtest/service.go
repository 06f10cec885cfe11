package labtest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carebook/clinic-booking/internal/notify"
)

var (
	ErrNotOwner        = errors.New("lab test request is not owned by the caller")
	ErrNotCancellable  = errors.New("lab test request can only be cancelled while pending or scheduled")
	ErrAlreadyFinal    = errors.New("lab test request is in a terminal status")
	ErrInvalidStatus   = errors.New("invalid lab test status")
	ErrMissingTestType = errors.New("test type is required")
	ErrMissingLocation = errors.New("location is required")
)

// Notifier is the slice of the dispatcher the lab-test service needs.
type Notifier interface {
	Dispatch(kind notify.Kind, recipient string, data map[string]string)
}

type Service struct {
	repo     Repository
	notifier Notifier
	log      zerolog.Logger
}

func NewService(repo Repository, notifier Notifier, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		log:      log,
	}
}

// Create files a new request in pending and notifies the owner.
func (s *Service) Create(ctx context.Context, testType, location string, ownerID uuid.UUID, ownerEmail string) (*Request, error) {
	if testType == "" {
		return nil, ErrMissingTestType
	}
	if location == "" {
		return nil, ErrMissingLocation
	}

	r := &Request{
		ID:         uuid.New(),
		TestType:   testType,
		Location:   location,
		BookedBy:   ownerID,
		OwnerEmail: ownerEmail,
		Status:     StatusPending,
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create lab test request: %w", err)
	}

	s.notifyRequest(notify.KindLabTestConfirmation, r)
	return r, nil
}

// Cancel is owner-only and allowed only from pending or scheduled.
func (s *Service) Cancel(ctx context.Context, id, ownerID uuid.UUID) error {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if r.BookedBy != ownerID {
		return ErrNotOwner
	}
	if r.Status != StatusPending && r.Status != StatusScheduled {
		return ErrNotCancellable
	}

	cancelled, err := s.repo.UpdateStatus(ctx, id, r.Status, StatusCancelled)
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			return ErrNotCancellable
		}
		return fmt.Errorf("cancel lab test request: %w", err)
	}

	s.notifyRequest(notify.KindLabTestCancellation, cancelled)
	return nil
}

// SetStatus is the operator transition: scheduled, completed or
// cancelled. Terminal requests are immutable.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, newStatus Status) (*Request, error) {
	if !newStatus.Valid() || newStatus == StatusPending {
		return nil, ErrInvalidStatus
	}

	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status.Terminal() {
		return nil, ErrAlreadyFinal
	}
	if r.Status == newStatus {
		return r, nil
	}

	updated, err := s.repo.UpdateStatus(ctx, id, r.Status, newStatus)
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			return nil, ErrAlreadyFinal
		}
		return nil, fmt.Errorf("update lab test status: %w", err)
	}

	kind := notify.KindLabTestStatus
	if newStatus == StatusCancelled {
		kind = notify.KindLabTestCancellation
	}
	s.notifyRequest(kind, updated)

	return updated, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Request, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListOwned(ctx context.Context, owner uuid.UUID, status Status) ([]Request, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.repo.ListByOwner(ctx, owner, status)
}

func (s *Service) notifyRequest(kind notify.Kind, r *Request) {
	if r.OwnerEmail == "" {
		return
	}
	s.notifier.Dispatch(kind, r.OwnerEmail, map[string]string{
		"patient_name": r.OwnerEmail,
		"test_type":    r.TestType,
		"location":     r.Location,
		"status":       string(r.Status),
	})
}
