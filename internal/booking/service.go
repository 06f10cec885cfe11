package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carebook/clinic-booking/internal/notify"
	redisclient "github.com/carebook/clinic-booking/internal/redis"
)

var (
	ErrSlotNotOffered   = errors.New("start time is not one of the provider's slots")
	ErrSlotAlreadyTaken = errors.New("slot already has a non-cancelled appointment")
	ErrSlotContended    = errors.New("slot is currently being booked, please retry")
	ErrNotOwner         = errors.New("appointment is not owned by the caller")
	ErrNotProvider      = errors.New("appointment does not belong to the calling provider")
	ErrNotReschedulable = errors.New("appointment status does not allow rescheduling")
	ErrAlreadyFinal     = errors.New("appointment is in a terminal status")
	ErrInvalidDecision  = errors.New("provider decision must be confirmed or cancelled")
)

// Notifier is the slice of the dispatcher the booking engine needs.
type Notifier interface {
	Dispatch(kind notify.Kind, recipient string, data map[string]string)
}

type Service struct {
	repo     Repository
	locker   redisclient.Locker
	notifier Notifier
	log      zerolog.Logger
}

func NewService(repo Repository, locker redisclient.Locker, notifier Notifier, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		locker:   locker,
		notifier: notifier,
		log:      log,
	}
}

// CreateParams carries everything needed to book a slot. Patient
// fields are snapshotted onto the appointment as-is.
type CreateParams struct {
	ProviderID    uuid.UUID
	Date          time.Time
	Start         ClockMinute
	PatientName   string
	PatientAge    int
	PatientMobile string
	OwnerID       uuid.UUID
	OwnerEmail    string
	Disease       string
}

func slotLockKey(providerID uuid.UUID, date time.Time, start ClockMinute) string {
	return fmt.Sprintf("lock:slot:%s:%s:%d", providerID, date.Format("2006-01-02"), int(start))
}

// Create books a slot for a patient. A per-slot lock plus a re-check
// inside the critical section closes the read-then-write race; the
// partial unique index backs both up at commit time.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Appointment, error) {
	provider, err := s.repo.GetProviderByID(ctx, p.ProviderID)
	if err != nil {
		if errors.Is(err, ErrProviderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load provider: %w", err)
	}

	if !SlotOffered(provider.Open, provider.Close, p.Start) {
		return nil, ErrSlotNotOffered
	}

	date := DateOnly(p.Date)
	disease := p.Disease
	if disease == "" {
		disease = "Not specified"
	}

	appt := &Appointment{
		ID:            uuid.New(),
		ProviderID:    p.ProviderID,
		PatientName:   p.PatientName,
		PatientAge:    p.PatientAge,
		PatientMobile: p.PatientMobile,
		BookedBy:      &p.OwnerID,
		OwnerEmail:    p.OwnerEmail,
		Disease:       disease,
		Status:        StatusPending,
		Date:          date,
		Start:         p.Start,
	}

	err = s.locker.WithLock(ctx, slotLockKey(p.ProviderID, date, p.Start), func(lockCtx context.Context) error {
		taken, err := s.repo.SlotTaken(lockCtx, p.ProviderID, date, p.Start, uuid.Nil)
		if err != nil {
			return fmt.Errorf("check slot occupancy: %w", err)
		}
		if taken {
			return ErrSlotAlreadyTaken
		}

		if err := s.repo.CreateAppointment(lockCtx, appt); err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotContended
		}
		return nil, err
	}

	s.notifyAppointment(notify.KindBookingConfirmation, appt, provider)
	return appt, nil
}

// Reschedule moves an owned appointment to a new slot and forces the
// status back to pending so the provider re-confirms the new time. The
// appointment's own prior slot does not count as occupied.
func (s *Service) Reschedule(ctx context.Context, id, ownerID uuid.UUID, newDate time.Time, newStart ClockMinute) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.BookedBy == nil || *appt.BookedBy != ownerID {
		return nil, ErrNotOwner
	}
	if appt.Status != StatusPending && appt.Status != StatusConfirmed {
		return nil, ErrNotReschedulable
	}

	provider, err := s.repo.GetProviderByID(ctx, appt.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("load provider: %w", err)
	}
	if !SlotOffered(provider.Open, provider.Close, newStart) {
		return nil, ErrSlotNotOffered
	}

	date := DateOnly(newDate)

	var moved *Appointment
	err = s.locker.WithLock(ctx, slotLockKey(appt.ProviderID, date, newStart), func(lockCtx context.Context) error {
		taken, err := s.repo.SlotTaken(lockCtx, appt.ProviderID, date, newStart, appt.ID)
		if err != nil {
			return fmt.Errorf("check slot occupancy: %w", err)
		}
		if taken {
			return ErrSlotAlreadyTaken
		}

		moved, err = s.repo.MoveAppointment(lockCtx, appt.ID, date, newStart)
		if err != nil {
			return fmt.Errorf("move appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotContended
		}
		if errors.Is(err, ErrAppointmentNotFound) {
			// Status moved under us between the read and the move,
			// e.g. an owner cancel or the completion sweep.
			return nil, ErrAlreadyFinal
		}
		return nil, err
	}

	s.notifyAppointment(notify.KindReschedule, moved, provider)
	return moved, nil
}

// Cancel is the owner path. Terminal appointments stay as they are:
// a completed or already cancelled appointment cannot be cancelled
// again.
func (s *Service) Cancel(ctx context.Context, id, ownerID uuid.UUID) error {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return err
	}
	if appt.BookedBy == nil || *appt.BookedBy != ownerID {
		return ErrNotOwner
	}
	if appt.Status.Terminal() {
		return ErrAlreadyFinal
	}

	cancelled, err := s.repo.UpdateAppointmentStatus(ctx, id, appt.Status, StatusCancelled)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Status moved under us, e.g. the sweep completed it.
			return ErrAlreadyFinal
		}
		return fmt.Errorf("cancel appointment: %w", err)
	}

	provider, err := s.repo.GetProviderByID(ctx, cancelled.ProviderID)
	if err != nil {
		s.log.Warn().Err(err).Stringer("appointment_id", id).Msg("provider lookup failed for cancellation notice")
		provider = &Provider{}
	}
	s.notifyAppointment(notify.KindCancellation, cancelled, provider)
	return nil
}

// ProviderDecision lets the appointment's provider confirm or cancel a
// pending request. Confirmed appointments may still be cancelled.
func (s *Service) ProviderDecision(ctx context.Context, id, providerID uuid.UUID, decision Status) (*Appointment, error) {
	if decision != StatusConfirmed && decision != StatusCancelled {
		return nil, ErrInvalidDecision
	}

	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.ProviderID != providerID {
		return nil, ErrNotProvider
	}
	if appt.Status.Terminal() {
		return nil, ErrAlreadyFinal
	}
	if decision == StatusConfirmed && appt.Status != StatusPending {
		return nil, ErrAlreadyFinal
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, appt.Status, decision)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrAlreadyFinal
		}
		return nil, fmt.Errorf("apply provider decision: %w", err)
	}

	provider, err := s.repo.GetProviderByID(ctx, updated.ProviderID)
	if err != nil {
		s.log.Warn().Err(err).Stringer("appointment_id", id).Msg("provider lookup failed for decision notice")
		provider = &Provider{}
	}

	kind := notify.KindProviderConfirmed
	if decision == StatusCancelled {
		kind = notify.KindCancellation
	}
	s.notifyAppointment(kind, updated, provider)

	return updated, nil
}

// SweepCompletions transitions every confirmed appointment whose slot
// end lies strictly before now to completed. The repository re-checks
// the status at commit time, so the sweep can run concurrently with
// cancellations and is idempotent.
func (s *Service) SweepCompletions(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.repo.SweepCompletions(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info().Int64("completed", n).Msg("completion sweep updated past appointments")
	}
	return n, nil
}

// ListDaySlots is the outward slot listing: the provider's full grid
// for a date with each entry flagged available or not.
func (s *Service) ListDaySlots(ctx context.Context, providerID uuid.UUID, date time.Time) ([]DaySlot, error) {
	provider, err := s.repo.GetProviderByID(ctx, providerID)
	if err != nil {
		return nil, err
	}

	occupied, err := s.repo.ListOccupiedStarts(ctx, providerID, DateOnly(date))
	if err != nil {
		return nil, fmt.Errorf("list occupied slots: %w", err)
	}

	taken := make(map[ClockMinute]bool, len(occupied))
	for _, m := range occupied {
		taken[m] = true
	}

	grid := SlotGrid(provider.Open, provider.Close)
	result := make([]DaySlot, 0, len(grid))
	for _, slot := range grid {
		result = append(result, DaySlot{
			Start:     slot.Start,
			End:       slot.End,
			Available: !taken[slot.Start],
		})
	}
	return result, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetAppointmentByID(ctx, id)
}

func (s *Service) ListOwned(ctx context.Context, owner uuid.UUID, f AppointmentFilter) ([]Appointment, error) {
	return s.repo.ListByOwner(ctx, owner, f)
}

func (s *Service) ListForProvider(ctx context.Context, providerID uuid.UUID, f AppointmentFilter) ([]Appointment, error) {
	return s.repo.ListByProvider(ctx, providerID, f)
}

func (s *Service) SearchProviders(ctx context.Context, f ProviderFilter) ([]Provider, error) {
	return s.repo.SearchProviders(ctx, f)
}

func (s *Service) GetProvider(ctx context.Context, id uuid.UUID) (*Provider, error) {
	return s.repo.GetProviderByID(ctx, id)
}

// Dashboard aggregates a provider's bookings for a year; year <= 0
// picks the most recent year with data, falling back to the current
// one.
func (s *Service) Dashboard(ctx context.Context, providerID uuid.UUID, year int) (*DashboardStats, error) {
	if _, err := s.repo.GetProviderByID(ctx, providerID); err != nil {
		return nil, err
	}

	if year <= 0 {
		stats, err := s.repo.DashboardStats(ctx, providerID, time.Now().UTC().Year())
		if err != nil {
			return nil, err
		}
		if len(stats.Years) == 0 || stats.Years[0] == stats.Year {
			return stats, nil
		}
		return s.repo.DashboardStats(ctx, providerID, stats.Years[0])
	}

	return s.repo.DashboardStats(ctx, providerID, year)
}

func (s *Service) notifyAppointment(kind notify.Kind, a *Appointment, p *Provider) {
	if a.OwnerEmail == "" {
		return
	}
	s.notifier.Dispatch(kind, a.OwnerEmail, map[string]string{
		"patient_name":  a.PatientName,
		"provider_name": p.Name,
		"date":          a.Date.Format("2006-01-02"),
		"time":          a.Start.String(),
	})
}
