package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrProviderNotFound    = errors.New("provider not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// ProviderFilter narrows a provider search. A specialty of "Other"
// matches any specialty, mirroring how the portal treats uncatalogued
// symptoms.
type ProviderFilter struct {
	Specialty string
	Location  string
}

// AppointmentFilter narrows provider- or owner-scoped listings.
type AppointmentFilter struct {
	Date   *time.Time
	Status Status // empty matches all
}

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetProviderByID(ctx context.Context, id uuid.UUID) (*Provider, error)
	SearchProviders(ctx context.Context, f ProviderFilter) ([]Provider, error)
	DistinctLocations(ctx context.Context) ([]string, error)

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// Occupancy checks; a non-cancelled appointment occupies its slot.
	ListOccupiedStarts(ctx context.Context, providerID uuid.UUID, date time.Time) ([]ClockMinute, error)
	SlotTaken(ctx context.Context, providerID uuid.UUID, date time.Time, start ClockMinute, exclude uuid.UUID) (bool, error)

	// Creation and updates. Both return ErrSlotAlreadyTaken when the
	// partial unique index rejects the write. MoveAppointment resets
	// the status to pending, but only while the appointment is still
	// pending or confirmed; a terminal row yields ErrAppointmentNotFound.
	CreateAppointment(ctx context.Context, a *Appointment) error
	MoveAppointment(ctx context.Context, id uuid.UUID, date time.Time, start ClockMinute) (*Appointment, error)

	// Status transition guarded by the expected current status.
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	// Completion sweep: every confirmed appointment whose slot end
	// instant is strictly before now becomes completed.
	SweepCompletions(ctx context.Context, now time.Time) (int64, error)

	// Listings and reporting.
	ListByOwner(ctx context.Context, owner uuid.UUID, f AppointmentFilter) ([]Appointment, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID, f AppointmentFilter) ([]Appointment, error)
	DashboardStats(ctx context.Context, providerID uuid.UUID, year int) (*DashboardStats, error)
}
