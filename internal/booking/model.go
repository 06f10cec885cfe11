package booking

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Terminal reports whether no further transition is permitted.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

type Provider struct {
	ID          uuid.UUID
	Name        string
	Specialty   string
	Location    string
	Gender      string
	Description string
	Price       float64
	Rating      float64
	Open        ClockMinute
	Close       ClockMinute
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Appointment carries a denormalized snapshot of the patient's details
// as they were at booking time; the snapshot is never refreshed from a
// profile. BookedBy is nil when the owning account has been removed.
type Appointment struct {
	ID            uuid.UUID
	ProviderID    uuid.UUID
	PatientName   string
	PatientAge    int
	PatientMobile string
	BookedBy      *uuid.UUID
	OwnerEmail    string
	Disease       string
	Status        Status
	Date          time.Time // calendar date, midnight UTC
	Start         ClockMinute
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// End is the derived slot end time: start plus the fixed slot length.
func (a *Appointment) End() ClockMinute {
	return a.Start + SlotLength
}

// EndsAt is the instant the appointment's slot finishes.
func (a *Appointment) EndsAt() time.Time {
	return a.End().OnDate(a.Date)
}

// DaySlot is one entry of a provider's slot grid for a day, flagged
// with whether it can still be booked.
type DaySlot struct {
	Start     ClockMinute
	End       ClockMinute
	Available bool
}

// DashboardStats aggregates a provider's bookings for one year.
type DashboardStats struct {
	Year     int
	Total    int
	ByStatus map[Status]int
	Monthly  [12]int
	Years    []int
}
