package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carebook/clinic-booking/internal/booking"
	"github.com/carebook/clinic-booking/internal/directory"
	"github.com/carebook/clinic-booking/internal/labtest"
	"github.com/carebook/clinic-booking/internal/notify"
)

// In-memory backends so the handlers can be exercised through the real
// router without Postgres or Redis.

type fakeBookingRepo struct {
	mu           sync.Mutex
	providers    map[uuid.UUID]*booking.Provider
	appointments map[uuid.UUID]*booking.Appointment
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{
		providers:    make(map[uuid.UUID]*booking.Provider),
		appointments: make(map[uuid.UUID]*booking.Appointment),
	}
}

func (r *fakeBookingRepo) GetProviderByID(ctx context.Context, id uuid.UUID) (*booking.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[id]
	if !ok {
		return nil, booking.ErrProviderNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeBookingRepo) SearchProviders(ctx context.Context, f booking.ProviderFilter) ([]booking.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []booking.Provider
	for _, p := range r.providers {
		if f.Specialty != "" && f.Specialty != "Other" && p.Specialty != f.Specialty {
			continue
		}
		if f.Location != "" && p.Location != f.Location {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakeBookingRepo) DistinctLocations(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, p := range r.providers {
		if !seen[p.Location] {
			seen[p.Location] = true
			out = append(out, p.Location)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*booking.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, booking.ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeBookingRepo) ListOccupiedStarts(ctx context.Context, providerID uuid.UUID, date time.Time) ([]booking.ClockMinute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []booking.ClockMinute
	for _, a := range r.appointments {
		if a.ProviderID == providerID && a.Date.Equal(date) && a.Status != booking.StatusCancelled {
			out = append(out, a.Start)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) SlotTaken(ctx context.Context, providerID uuid.UUID, date time.Time, start booking.ClockMinute, exclude uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.appointments {
		if a.ID == exclude {
			continue
		}
		if a.ProviderID == providerID && a.Date.Equal(date) && a.Start == start && a.Status != booking.StatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeBookingRepo) CreateAppointment(ctx context.Context, a *booking.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	cp.CreatedAt = time.Now().UTC()
	r.appointments[cp.ID] = &cp
	return nil
}

func (r *fakeBookingRepo) MoveAppointment(ctx context.Context, id uuid.UUID, date time.Time, start booking.ClockMinute) (*booking.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok || a.Status.Terminal() {
		return nil, booking.ErrAppointmentNotFound
	}
	a.Date = date
	a.Start = start
	a.Status = booking.StatusPending
	cp := *a
	return &cp, nil
}

func (r *fakeBookingRepo) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to booking.Status) (*booking.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok || a.Status != from {
		return nil, booking.ErrAppointmentNotFound
	}
	a.Status = to
	cp := *a
	return &cp, nil
}

func (r *fakeBookingRepo) SweepCompletions(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, a := range r.appointments {
		if a.Status == booking.StatusConfirmed && a.EndsAt().Before(now) {
			a.Status = booking.StatusCompleted
			n++
		}
	}
	return n, nil
}

func (r *fakeBookingRepo) ListByOwner(ctx context.Context, owner uuid.UUID, f booking.AppointmentFilter) ([]booking.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []booking.Appointment
	for _, a := range r.appointments {
		if a.BookedBy == nil || *a.BookedBy != owner {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (r *fakeBookingRepo) ListByProvider(ctx context.Context, providerID uuid.UUID, f booking.AppointmentFilter) ([]booking.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []booking.Appointment
	for _, a := range r.appointments {
		if a.ProviderID != providerID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (r *fakeBookingRepo) DashboardStats(ctx context.Context, providerID uuid.UUID, year int) (*booking.DashboardStats, error) {
	return &booking.DashboardStats{Year: year, ByStatus: make(map[booking.Status]int)}, nil
}

type fakeLabRepo struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*labtest.Request
}

func newFakeLabRepo() *fakeLabRepo {
	return &fakeLabRepo{requests: make(map[uuid.UUID]*labtest.Request)}
}

func (r *fakeLabRepo) GetByID(ctx context.Context, id uuid.UUID) (*labtest.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, labtest.ErrRequestNotFound
	}
	cp := *req
	return &cp, nil
}

func (r *fakeLabRepo) Create(ctx context.Context, req *labtest.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *req
	cp.CreatedAt = time.Now().UTC()
	r.requests[cp.ID] = &cp
	return nil
}

func (r *fakeLabRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to labtest.Status) (*labtest.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok || req.Status != from {
		return nil, labtest.ErrRequestNotFound
	}
	req.Status = to
	cp := *req
	return &cp, nil
}

func (r *fakeLabRepo) ListByOwner(ctx context.Context, owner uuid.UUID, status labtest.Status) ([]labtest.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []labtest.Request
	for _, req := range r.requests {
		if req.BookedBy != owner {
			continue
		}
		if status != "" && req.Status != status {
			continue
		}
		out = append(out, *req)
	}
	return out, nil
}

type passLocker struct{}

func (passLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type nopNotifier struct{}

func (nopNotifier) Dispatch(kind notify.Kind, recipient string, data map[string]string) {}

type testServer struct {
	handler     http.Handler
	bookingRepo *fakeBookingRepo
	provider    *booking.Provider
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	bookingRepo := newFakeBookingRepo()
	open, _ := booking.ParseClock("09:00")
	close, _ := booking.ParseClock("17:00")
	provider := &booking.Provider{
		ID:        uuid.New(),
		Name:      "Asha Kulkarni",
		Specialty: "Dermatology",
		Location:  "Latur",
		Open:      open,
		Close:     close,
	}
	bookingRepo.providers[provider.ID] = provider

	bookingSvc := booking.NewService(bookingRepo, passLocker{}, nopNotifier{}, zerolog.Nop())
	labSvc := labtest.NewService(newFakeLabRepo(), nopNotifier{}, zerolog.Nop())
	dirSvc := directory.NewService(bookingRepo)

	handler := NewRouter(RouterConfig{
		Booking:   bookingSvc,
		LabTests:  labSvc,
		Directory: dirSvc,
		Logger:    zerolog.Nop(),
		Env:       "test",
		Version:   "test",
	})

	return &testServer{handler: handler, bookingRepo: bookingRepo, provider: provider}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, actor *Actor) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set("X-Actor-ID", actor.ID.String())
		req.Header.Set("X-Actor-Email", actor.Email)
		req.Header.Set("X-Actor-Role", actor.Role)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func patientActor() *Actor {
	return &Actor{ID: uuid.New(), Email: "ravi@example.com", Role: RolePatient}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func validBooking(ts *testServer) CreateAppointmentRequest {
	return CreateAppointmentRequest{
		ProviderID:    ts.provider.ID.String(),
		Date:          "2026-06-01",
		StartTime:     "09:00",
		PatientName:   "Ravi Patil",
		PatientAge:    34,
		PatientMobile: "9876543210",
		Disease:       "Skin Rash",
	}
}

func TestCreateAppointmentEndpoint(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(t, http.MethodPost, "/appointments", validBooking(ts), patientActor())
		if rec.Code != http.StatusCreated {
			t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
		}

		resp := decode[AppointmentResponse](t, rec)
		if resp.Status != "pending" {
			t.Fatalf("status %q, want pending", resp.Status)
		}
		if resp.StartTime != "09:00" || resp.EndTime != "09:30" {
			t.Fatalf("slot %s-%s", resp.StartTime, resp.EndTime)
		}
	})

	t.Run("MissingActor", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.do(t, http.MethodPost, "/appointments", validBooking(ts), nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status %d, want 401", rec.Code)
		}
	})

	t.Run("UnknownProvider", func(t *testing.T) {
		ts := newTestServer(t)
		body := validBooking(ts)
		body.ProviderID = uuid.New().String()

		rec := ts.do(t, http.MethodPost, "/appointments", body, patientActor())
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status %d, want 404", rec.Code)
		}
	})

	t.Run("BadDate", func(t *testing.T) {
		ts := newTestServer(t)
		body := validBooking(ts)
		body.Date = "01-06-2026"

		rec := ts.do(t, http.MethodPost, "/appointments", body, patientActor())
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", rec.Code)
		}
		resp := decode[ErrorResponse](t, rec)
		if resp.Error != "invalid_date" {
			t.Fatalf("error code %q", resp.Error)
		}
	})

	t.Run("OffGridStart", func(t *testing.T) {
		ts := newTestServer(t)
		body := validBooking(ts)
		body.StartTime = "09:10"

		rec := ts.do(t, http.MethodPost, "/appointments", body, patientActor())
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", rec.Code)
		}
		resp := decode[ErrorResponse](t, rec)
		if resp.Error != "slot_not_offered" {
			t.Fatalf("error code %q", resp.Error)
		}
	})

	t.Run("TakenSlotConflicts", func(t *testing.T) {
		ts := newTestServer(t)

		if rec := ts.do(t, http.MethodPost, "/appointments", validBooking(ts), patientActor()); rec.Code != http.StatusCreated {
			t.Fatalf("first booking: status %d", rec.Code)
		}
		rec := ts.do(t, http.MethodPost, "/appointments", validBooking(ts), patientActor())
		if rec.Code != http.StatusConflict {
			t.Fatalf("status %d, want 409", rec.Code)
		}
		resp := decode[ErrorResponse](t, rec)
		if resp.Error != "slot_already_taken" {
			t.Fatalf("error code %q", resp.Error)
		}
	})

	t.Run("MissingPatientFields", func(t *testing.T) {
		ts := newTestServer(t)
		body := validBooking(ts)
		body.PatientName = ""

		rec := ts.do(t, http.MethodPost, "/appointments", body, patientActor())
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", rec.Code)
		}
	})
}

func TestAppointmentLifecycleEndpoints(t *testing.T) {
	ts := newTestServer(t)
	owner := patientActor()

	rec := ts.do(t, http.MethodPost, "/appointments", validBooking(ts), owner)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d", rec.Code)
	}
	created := decode[AppointmentResponse](t, rec)

	t.Run("ProviderConfirms", func(t *testing.T) {
		providerActor := &Actor{ID: ts.provider.ID, Role: RoleProvider}
		rec := ts.do(t, http.MethodPost, fmt.Sprintf("/appointments/%s/decision", created.ID),
			DecisionRequest{Decision: "confirmed"}, providerActor)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
		}
		resp := decode[AppointmentResponse](t, rec)
		if resp.Status != "confirmed" {
			t.Fatalf("status %q", resp.Status)
		}
	})

	t.Run("PatientCannotDecide", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, fmt.Sprintf("/appointments/%s/decision", created.ID),
			DecisionRequest{Decision: "cancelled"}, owner)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status %d, want 403", rec.Code)
		}
	})

	t.Run("StrangerCannotRead", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/appointments/"+created.ID.String(), nil, patientActor())
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status %d, want 403", rec.Code)
		}
	})

	t.Run("AdminCanRead", func(t *testing.T) {
		admin := &Actor{ID: uuid.New(), Role: RoleAdmin}
		rec := ts.do(t, http.MethodGet, "/appointments/"+created.ID.String(), nil, admin)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("OwnerReschedules", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, fmt.Sprintf("/appointments/%s/reschedule", created.ID),
			RescheduleRequest{Date: "2026-06-02", StartTime: "10:00"}, owner)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
		}
		resp := decode[AppointmentResponse](t, rec)
		if resp.Status != "pending" {
			t.Fatalf("rescheduled status %q, want pending", resp.Status)
		}
		if resp.Date != "2026-06-02" || resp.StartTime != "10:00" {
			t.Fatalf("moved to %s %s", resp.Date, resp.StartTime)
		}
	})

	t.Run("OwnerCancels", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, fmt.Sprintf("/appointments/%s/cancel", created.ID), nil, owner)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("CancelAgainConflicts", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, fmt.Sprintf("/appointments/%s/cancel", created.ID), nil, owner)
		if rec.Code != http.StatusConflict {
			t.Fatalf("status %d, want 409", rec.Code)
		}
		resp := decode[ErrorResponse](t, rec)
		if resp.Error != "invalid_status_transition" {
			t.Fatalf("error code %q", resp.Error)
		}
	})

	t.Run("UnknownAppointment", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/appointments/"+uuid.New().String(), nil, owner)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status %d, want 404", rec.Code)
		}
	})

	t.Run("MalformedID", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/appointments/not-a-uuid", nil, owner)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", rec.Code)
		}
	})
}

func TestDaySlotsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	owner := patientActor()

	if rec := ts.do(t, http.MethodPost, "/appointments", validBooking(ts), owner); rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d", rec.Code)
	}

	rec := ts.do(t, http.MethodGet,
		fmt.Sprintf("/providers/%s/slots?date=2026-06-01", ts.provider.ID), nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	slots := decode[[]SlotResponse](t, rec)
	if len(slots) != 16 {
		t.Fatalf("expected 16 slots for a 09:00-17:00 day, got %d", len(slots))
	}
	for _, s := range slots {
		wantAvail := s.Start != "09:00"
		if s.Available != wantAvail {
			t.Fatalf("slot %s available=%v, want %v", s.Start, s.Available, wantAvail)
		}
	}
}

func TestProviderSearchEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/providers?specialty=Dermatology", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	providers := decode[[]ProviderResponse](t, rec)
	if len(providers) != 1 {
		t.Fatalf("got %d providers", len(providers))
	}

	rec = ts.do(t, http.MethodGet, "/providers?specialty=Cardiology", nil, nil)
	if got := decode[[]ProviderResponse](t, rec); len(got) != 0 {
		t.Fatalf("got %d cardiologists, want 0", len(got))
	}

	// "Other" matches any specialty.
	rec = ts.do(t, http.MethodGet, "/providers?specialty=Other", nil, nil)
	if got := decode[[]ProviderResponse](t, rec); len(got) != 1 {
		t.Fatalf("got %d providers for Other, want 1", len(got))
	}
}

func TestProviderScopedReads(t *testing.T) {
	ts := newTestServer(t)
	owner := patientActor()

	if rec := ts.do(t, http.MethodPost, "/appointments", validBooking(ts), owner); rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d", rec.Code)
	}

	listPath := fmt.Sprintf("/providers/%s/appointments", ts.provider.ID)
	dashPath := fmt.Sprintf("/providers/%s/dashboard", ts.provider.ID)

	t.Run("OwnRoster", func(t *testing.T) {
		providerActor := &Actor{ID: ts.provider.ID, Role: RoleProvider}
		rec := ts.do(t, http.MethodGet, listPath, nil, providerActor)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
		}
		if got := decode[[]AppointmentResponse](t, rec); len(got) != 1 {
			t.Fatalf("got %d appointments", len(got))
		}
	})

	t.Run("OtherProviderForbidden", func(t *testing.T) {
		other := &Actor{ID: uuid.New(), Role: RoleProvider}
		rec := ts.do(t, http.MethodGet, listPath, nil, other)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status %d, want 403", rec.Code)
		}
		resp := decode[ErrorResponse](t, rec)
		if resp.Error != "not_authorized" {
			t.Fatalf("error code %q", resp.Error)
		}
	})

	t.Run("OtherProviderDashboardForbidden", func(t *testing.T) {
		other := &Actor{ID: uuid.New(), Role: RoleProvider}
		rec := ts.do(t, http.MethodGet, dashPath, nil, other)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status %d, want 403", rec.Code)
		}
	})

	t.Run("OwnDashboard", func(t *testing.T) {
		providerActor := &Actor{ID: ts.provider.ID, Role: RoleProvider}
		rec := ts.do(t, http.MethodGet, dashPath, nil, providerActor)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("AdminReadsAnyRoster", func(t *testing.T) {
		admin := &Actor{ID: uuid.New(), Role: RoleAdmin}
		rec := ts.do(t, http.MethodGet, listPath, nil, admin)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestLabTestEndpoints(t *testing.T) {
	ts := newTestServer(t)
	owner := patientActor()

	rec := ts.do(t, http.MethodPost, "/lab-tests",
		CreateLabTestRequest{TestType: "Blood Test", Location: "Latur"}, owner)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[LabTestResponse](t, rec)
	if created.Status != "pending" {
		t.Fatalf("status %q", created.Status)
	}

	t.Run("MissingTestType", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/lab-tests",
			CreateLabTestRequest{Location: "Latur"}, owner)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", rec.Code)
		}
	})

	t.Run("OperatorSchedules", func(t *testing.T) {
		admin := &Actor{ID: uuid.New(), Role: RoleAdmin}
		rec := ts.do(t, http.MethodPost, fmt.Sprintf("/lab-tests/%s/status", created.ID),
			LabTestStatusRequest{Status: "scheduled"}, admin)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
		}
		resp := decode[LabTestResponse](t, rec)
		if resp.Status != "scheduled" {
			t.Fatalf("status %q", resp.Status)
		}
	})

	t.Run("PatientCannotSetStatus", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, fmt.Sprintf("/lab-tests/%s/status", created.ID),
			LabTestStatusRequest{Status: "completed"}, owner)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status %d, want 403", rec.Code)
		}
	})

	t.Run("OwnerLists", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/lab-tests", nil, owner)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d", rec.Code)
		}
		if got := decode[[]LabTestResponse](t, rec); len(got) != 1 {
			t.Fatalf("got %d requests", len(got))
		}
	})

	t.Run("OwnerCancels", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, fmt.Sprintf("/lab-tests/%s/cancel", created.ID), nil, owner)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("CancelAfterTerminalConflicts", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, fmt.Sprintf("/lab-tests/%s/cancel", created.ID), nil, owner)
		if rec.Code != http.StatusConflict {
			t.Fatalf("status %d, want 409", rec.Code)
		}
	})
}

func TestDirectoryEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/directory/diseases?term=fever", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	resp := decode[CatalogResponse](t, rec)
	if len(resp.Results) != 1 || resp.Results[0] != "Fever" {
		t.Fatalf("results %v", resp.Results)
	}

	rec = ts.do(t, http.MethodGet, "/directory/lab-tests", nil, nil)
	if got := decode[CatalogResponse](t, rec); len(got.Results) != 5 {
		t.Fatalf("lab test catalog has %d entries", len(got.Results))
	}

	rec = ts.do(t, http.MethodGet, "/directory/lab-locations?term=bee", nil, nil)
	if got := decode[CatalogResponse](t, rec); len(got.Results) != 1 || got.Results[0] != "Beed" {
		t.Fatalf("results %v", got.Results)
	}

	rec = ts.do(t, http.MethodGet, "/directory/locations", nil, nil)
	if got := decode[CatalogResponse](t, rec); len(got.Results) != 1 || got.Results[0] != "Latur" {
		t.Fatalf("provider locations %v", got.Results)
	}
}

func TestSweepEndpoint(t *testing.T) {
	ts := newTestServer(t)

	t.Run("AdminOnly", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/admin/sweep", nil, patientActor())
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status %d, want 403", rec.Code)
		}
	})

	t.Run("RunsSweep", func(t *testing.T) {
		owner := patientActor()
		body := validBooking(ts)
		body.Date = "2020-01-06"

		rec := ts.do(t, http.MethodPost, "/appointments", body, owner)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create: status %d", rec.Code)
		}
		created := decode[AppointmentResponse](t, rec)

		providerActor := &Actor{ID: ts.provider.ID, Role: RoleProvider}
		if rec := ts.do(t, http.MethodPost, fmt.Sprintf("/appointments/%s/decision", created.ID),
			DecisionRequest{Decision: "confirmed"}, providerActor); rec.Code != http.StatusOK {
			t.Fatalf("confirm: status %d", rec.Code)
		}

		admin := &Actor{ID: uuid.New(), Role: RoleAdmin}
		rec = ts.do(t, http.MethodPost, "/admin/sweep", nil, admin)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
		}
		resp := decode[SweepResponse](t, rec)
		if resp.Completed != 1 {
			t.Fatalf("swept %d, want 1", resp.Completed)
		}
	})
}
