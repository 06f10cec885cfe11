package labtest

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrRequestNotFound = errors.New("lab test request not found")

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)
	Create(ctx context.Context, r *Request) error

	// Status transition guarded by the expected current status.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Request, error)

	ListByOwner(ctx context.Context, owner uuid.UUID, status Status) ([]Request, error)
}
