package labtest

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transition is permitted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Request is a patient's lab-test booking. Unlike appointments there
// is no slot; the lab schedules the test out of band.
type Request struct {
	ID         uuid.UUID
	TestType   string
	Location   string
	BookedBy   uuid.UUID
	OwnerEmail string
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
