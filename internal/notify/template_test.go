package notify

import (
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	engine := NewTemplateEngine()

	t.Run("BookingConfirmation", func(t *testing.T) {
		subject, body, err := engine.Render(KindBookingConfirmation, map[string]string{
			"patient_name":  "Ravi Patil",
			"provider_name": "Asha Kulkarni",
			"date":          "2026-06-01",
			"time":          "09:00",
		})
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		if subject != "Your Appointment Request with Dr. Asha Kulkarni" {
			t.Fatalf("subject %q", subject)
		}
		if !strings.Contains(body, "Ravi Patil") || !strings.Contains(body, "2026-06-01 at 09:00") {
			t.Fatalf("body %q", body)
		}
		if strings.Contains(subject+body, "{{") {
			t.Fatalf("unsubstituted placeholder in %q / %q", subject, body)
		}
	})

	t.Run("LabTestStatus", func(t *testing.T) {
		subject, _, err := engine.Render(KindLabTestStatus, map[string]string{
			"patient_name": "ravi@example.com",
			"test_type":    "Blood Test",
			"status":       "scheduled",
		})
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		if subject != "Your Blood Test Lab Test is scheduled" {
			t.Fatalf("subject %q", subject)
		}
	})

	t.Run("UnknownKind", func(t *testing.T) {
		if _, _, err := engine.Render(Kind("parcel_shipped"), nil); err == nil {
			t.Fatal("expected error for unregistered kind")
		}
	})

	t.Run("MissingDataLeavesPlaceholder", func(t *testing.T) {
		subject, _, err := engine.Render(KindBookingConfirmation, map[string]string{
			"patient_name": "Ravi Patil",
		})
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		if !strings.Contains(subject, "{{provider_name}}") {
			t.Fatalf("subject %q should keep the unfilled placeholder", subject)
		}
	})

	t.Run("RegisterOverrides", func(t *testing.T) {
		engine.Register(Template{
			Kind:    KindCancellation,
			Subject: "Cancelled: {{date}}",
			Body:    "See you another time.",
		})
		subject, body, err := engine.Render(KindCancellation, map[string]string{"date": "2026-06-01"})
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		if subject != "Cancelled: 2026-06-01" || body != "See you another time." {
			t.Fatalf("got %q / %q", subject, body)
		}
	})
}

func TestBuiltInTemplatesComplete(t *testing.T) {
	engine := NewTemplateEngine()
	kinds := []Kind{
		KindBookingConfirmation,
		KindReschedule,
		KindCancellation,
		KindProviderConfirmed,
		KindLabTestConfirmation,
		KindLabTestCancellation,
		KindLabTestStatus,
	}
	for _, k := range kinds {
		if _, _, err := engine.Render(k, nil); err != nil {
			t.Fatalf("kind %q has no built-in template: %v", k, err)
		}
	}
}
