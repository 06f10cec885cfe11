package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/carebook/clinic-booking/internal/booking"
	"github.com/carebook/clinic-booking/internal/labtest"
)

type CreateAppointmentRequest struct {
	ProviderID    string `json:"provider_id"`
	Date          string `json:"date"`       // YYYY-MM-DD
	StartTime     string `json:"start_time"` // HH:MM
	PatientName   string `json:"patient_name"`
	PatientAge    int    `json:"patient_age"`
	PatientMobile string `json:"patient_mobile"`
	Disease       string `json:"disease,omitempty"`
}

type RescheduleRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
}

type DecisionRequest struct {
	Decision string `json:"decision"` // confirmed or cancelled
}

type CreateLabTestRequest struct {
	TestType string `json:"test_type"`
	Location string `json:"location"`
}

type LabTestStatusRequest struct {
	Status string `json:"status"`
}

type AppointmentResponse struct {
	ID            uuid.UUID `json:"id"`
	ProviderID    uuid.UUID `json:"provider_id"`
	PatientName   string    `json:"patient_name"`
	PatientAge    int       `json:"patient_age"`
	PatientMobile string    `json:"patient_mobile"`
	Disease       string    `json:"disease"`
	Status        string    `json:"status"`
	Date          string    `json:"date"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	CreatedAt     time.Time `json:"created_at"`
}

func toAppointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:            a.ID,
		ProviderID:    a.ProviderID,
		PatientName:   a.PatientName,
		PatientAge:    a.PatientAge,
		PatientMobile: a.PatientMobile,
		Disease:       a.Disease,
		Status:        string(a.Status),
		Date:          a.Date.Format("2006-01-02"),
		StartTime:     a.Start.String(),
		EndTime:       a.End().String(),
		CreatedAt:     a.CreatedAt,
	}
}

type ProviderResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Specialty   string    `json:"specialty"`
	Location    string    `json:"location"`
	Gender      string    `json:"gender"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Rating      float64   `json:"rating"`
	OpenTime    string    `json:"open_time"`
	CloseTime   string    `json:"close_time"`
}

func toProviderResponse(p *booking.Provider) ProviderResponse {
	return ProviderResponse{
		ID:          p.ID,
		Name:        p.Name,
		Specialty:   p.Specialty,
		Location:    p.Location,
		Gender:      p.Gender,
		Description: p.Description,
		Price:       p.Price,
		Rating:      p.Rating,
		OpenTime:    p.Open.String(),
		CloseTime:   p.Close.String(),
	}
}

type SlotResponse struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`
}

type LabTestResponse struct {
	ID        uuid.UUID `json:"id"`
	TestType  string    `json:"test_type"`
	Location  string    `json:"location"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func toLabTestResponse(r *labtest.Request) LabTestResponse {
	return LabTestResponse{
		ID:        r.ID,
		TestType:  r.TestType,
		Location:  r.Location,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt,
	}
}

type DashboardResponse struct {
	Year     int            `json:"year"`
	Years    []int          `json:"years"`
	Total    int            `json:"total_bookings"`
	ByStatus map[string]int `json:"by_status"`
	Monthly  []int          `json:"monthly_bookings"`
}

type SweepResponse struct {
	Completed int64 `json:"completed"`
}

type CatalogResponse struct {
	Results []string `json:"results"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
