package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carebook/clinic-booking/internal/booking"
	redisclient "github.com/carebook/clinic-booking/internal/redis"
)

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

func parseID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+param, param+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func createAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}

		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		providerID, err := uuid.Parse(req.ProviderID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_provider_id", "provider_id must be a valid UUID")
			return
		}
		date, err := parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		start, err := booking.ParseClock(req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be HH:MM")
			return
		}
		if req.PatientName == "" || req.PatientMobile == "" || req.PatientAge <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_patient", "patient_name, patient_age and patient_mobile are required")
			return
		}

		appt, err := svc.Create(r.Context(), booking.CreateParams{
			ProviderID:    providerID,
			Date:          date,
			Start:         start,
			PatientName:   req.PatientName,
			PatientAge:    req.PatientAge,
			PatientMobile: req.PatientMobile,
			OwnerID:       actor.ID,
			OwnerEmail:    actor.Email,
			Disease:       req.Disease,
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func rescheduleAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		id, ok := parseID(w, r, "id")
		if !ok {
			return
		}

		var req RescheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		date, err := parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		start, err := booking.ParseClock(req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be HH:MM")
			return
		}

		appt, err := svc.Reschedule(r.Context(), id, actor.ID, date, start)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		id, ok := parseID(w, r, "id")
		if !ok {
			return
		}

		if err := svc.Cancel(r.Context(), id, actor.ID); err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": string(booking.StatusCancelled)})
	}
}

func providerDecisionHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireRole(w, r, RoleProvider)
		if !ok {
			return
		}
		id, ok := parseID(w, r, "id")
		if !ok {
			return
		}

		var req DecisionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.ProviderDecision(r.Context(), id, actor.ID, booking.Status(req.Decision))
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		id, ok := parseID(w, r, "id")
		if !ok {
			return
		}

		appt, err := svc.Get(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		owned := appt.BookedBy != nil && *appt.BookedBy == actor.ID
		if !owned && appt.ProviderID != actor.ID && actor.Role != RoleAdmin {
			writeError(w, http.StatusForbidden, "not_authorized", "appointment belongs to another account")
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func listOwnedAppointmentsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}

		f := booking.AppointmentFilter{Status: booking.Status(r.URL.Query().Get("status"))}
		if f.Status != "" && !f.Status.Valid() {
			writeError(w, http.StatusBadRequest, "invalid_status", "unknown appointment status")
			return
		}

		appts, err := svc.ListOwned(r.Context(), actor.ID, f)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		result := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			result = append(result, toAppointmentResponse(&appts[i]))
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func listProviderAppointmentsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireRole(w, r, RoleProvider)
		if !ok {
			return
		}
		providerID, ok := parseID(w, r, "id")
		if !ok {
			return
		}
		// Providers only see their own roster.
		if actor.ID != providerID && actor.Role != RoleAdmin {
			writeError(w, http.StatusForbidden, "not_authorized", "appointments belong to another provider")
			return
		}

		f := booking.AppointmentFilter{Status: booking.Status(r.URL.Query().Get("status"))}
		if f.Status != "" && !f.Status.Valid() {
			writeError(w, http.StatusBadRequest, "invalid_status", "unknown appointment status")
			return
		}
		if ds := r.URL.Query().Get("date"); ds != "" {
			date, err := parseDate(ds)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
				return
			}
			f.Date = &date
		}

		appts, err := svc.ListForProvider(r.Context(), providerID, f)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		result := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			result = append(result, toAppointmentResponse(&appts[i]))
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func searchProvidersHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providers, err := svc.SearchProviders(r.Context(), booking.ProviderFilter{
			Specialty: r.URL.Query().Get("specialty"),
			Location:  r.URL.Query().Get("location"),
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		result := make([]ProviderResponse, 0, len(providers))
		for i := range providers {
			result = append(result, toProviderResponse(&providers[i]))
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func listDaySlotsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID, ok := parseID(w, r, "id")
		if !ok {
			return
		}

		ds := r.URL.Query().Get("date")
		if ds == "" {
			ds = time.Now().UTC().Format("2006-01-02")
		}
		date, err := parseDate(ds)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		slots, err := svc.ListDaySlots(r.Context(), providerID, date)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		result := make([]SlotResponse, 0, len(slots))
		for _, s := range slots {
			result = append(result, SlotResponse{
				Start:     s.Start.String(),
				End:       s.End.String(),
				Available: s.Available,
			})
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func dashboardHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireRole(w, r, RoleProvider)
		if !ok {
			return
		}
		providerID, ok := parseID(w, r, "id")
		if !ok {
			return
		}
		if actor.ID != providerID && actor.Role != RoleAdmin {
			writeError(w, http.StatusForbidden, "not_authorized", "dashboard belongs to another provider")
			return
		}

		year := 0
		if ys := r.URL.Query().Get("year"); ys != "" {
			parsed, err := time.Parse("2006", ys)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_year", "year must be a four-digit year")
				return
			}
			year = parsed.Year()
		}

		stats, err := svc.Dashboard(r.Context(), providerID, year)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		byStatus := make(map[string]int, len(stats.ByStatus))
		for k, v := range stats.ByStatus {
			byStatus[string(k)] = v
		}
		writeJSON(w, http.StatusOK, DashboardResponse{
			Year:     stats.Year,
			Years:    stats.Years,
			Total:    stats.Total,
			ByStatus: byStatus,
			Monthly:  stats.Monthly[:],
		})
	}
}

func sweepHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireRole(w, r, RoleAdmin); !ok {
			return
		}

		n, err := svc.SweepCompletions(r.Context(), time.Now().UTC())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, SweepResponse{Completed: n})
	}
}

func handleBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrProviderNotFound):
		writeError(w, http.StatusNotFound, "provider_not_found", err.Error())
	case errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, booking.ErrSlotNotOffered):
		writeError(w, http.StatusBadRequest, "slot_not_offered", err.Error())
	case errors.Is(err, booking.ErrInvalidDecision):
		writeError(w, http.StatusBadRequest, "invalid_decision", err.Error())
	case errors.Is(err, booking.ErrSlotAlreadyTaken):
		writeError(w, http.StatusConflict, "slot_already_taken", err.Error())
	case errors.Is(err, booking.ErrSlotContended),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, booking.ErrNotReschedulable),
		errors.Is(err, booking.ErrAlreadyFinal):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, booking.ErrNotOwner),
		errors.Is(err, booking.ErrNotProvider):
		writeError(w, http.StatusForbidden, "not_authorized", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
