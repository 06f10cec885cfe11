// Package notify delivers transactional notifications (booking
// confirmations, cancellations, lab-test updates) without ever making
// the triggering operation wait on, or fail because of, delivery.
// Every attempt leaves exactly one row in the delivery log.
package notify

import (
	"context"
	"time"
)

// Kind selects the template used for a notification.
type Kind string

const (
	KindBookingConfirmation Kind = "booking_confirmation"
	KindReschedule          Kind = "reschedule_confirmation"
	KindCancellation        Kind = "appointment_cancellation"
	KindProviderConfirmed   Kind = "provider_confirmation"
	KindLabTestConfirmation Kind = "lab_test_confirmation"
	KindLabTestCancellation Kind = "lab_test_cancellation"
	KindLabTestStatus       Kind = "lab_test_status"
)

type Outcome string

const (
	OutcomeSent   Outcome = "sent"
	OutcomeFailed Outcome = "failed"
)

// LogEntry is the append-only record of one delivery attempt.
type LogEntry struct {
	ID        int64
	Recipient string
	Subject   string
	Body      string
	Outcome   Outcome
	Detail    string
	CreatedAt time.Time
}

// LogStore persists delivery log entries.
type LogStore interface {
	Append(ctx context.Context, e LogEntry) error
}

// Transport moves a rendered message to its recipient. The dispatcher
// does not care whether that means SMTP, a queue, or a log line.
type Transport interface {
	Send(ctx context.Context, recipient, subject, body string) error
}
