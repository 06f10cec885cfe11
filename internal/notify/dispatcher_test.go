package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type memLogStore struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (s *memLogStore) Append(ctx context.Context, e LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *memLogStore) Entries() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

type stubTransport struct {
	mu    sync.Mutex
	err   error
	delay time.Duration
	sent  int
}

func (t *stubTransport) Send(ctx context.Context, recipient, subject, body string) error {
	if t.delay > 0 {
		select {
		case <-time.After(t.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if t.err != nil {
		return t.err
	}
	t.mu.Lock()
	t.sent++
	t.mu.Unlock()
	return nil
}

func (t *stubTransport) Sent() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sent
}

func bookingData() map[string]string {
	return map[string]string{
		"patient_name":  "Ravi Patil",
		"provider_name": "Asha Kulkarni",
		"date":          "2026-06-01",
		"time":          "09:00",
	}
}

func TestDispatcher(t *testing.T) {
	t.Run("DeliveryLogsSent", func(t *testing.T) {
		transport := &stubTransport{}
		logs := &memLogStore{}
		d := NewDispatcher(transport, logs, 2, 16, time.Second, zerolog.Nop())

		d.Dispatch(KindBookingConfirmation, "ravi@example.com", bookingData())
		d.Close()

		if transport.Sent() != 1 {
			t.Fatalf("transport sent %d messages, want 1", transport.Sent())
		}
		entries := logs.Entries()
		if len(entries) != 1 {
			t.Fatalf("expected exactly 1 log entry, got %d", len(entries))
		}
		e := entries[0]
		if e.Outcome != OutcomeSent {
			t.Fatalf("outcome %q, want sent", e.Outcome)
		}
		if e.Recipient != "ravi@example.com" {
			t.Fatalf("recipient %q", e.Recipient)
		}
		if !strings.Contains(e.Subject, "Asha Kulkarni") {
			t.Fatalf("subject %q was not rendered", e.Subject)
		}
		if e.CreatedAt.IsZero() {
			t.Fatal("log entry has no timestamp")
		}
	})

	t.Run("TransportFailureLogsFailed", func(t *testing.T) {
		transport := &stubTransport{err: errors.New("smtp: connection refused")}
		logs := &memLogStore{}
		d := NewDispatcher(transport, logs, 1, 16, time.Second, zerolog.Nop())

		d.Dispatch(KindCancellation, "ravi@example.com", bookingData())
		d.Close()

		entries := logs.Entries()
		if len(entries) != 1 {
			t.Fatalf("expected exactly 1 log entry, got %d", len(entries))
		}
		if entries[0].Outcome != OutcomeFailed {
			t.Fatalf("outcome %q, want failed", entries[0].Outcome)
		}
		if !strings.Contains(entries[0].Detail, "connection refused") {
			t.Fatalf("detail %q", entries[0].Detail)
		}
	})

	t.Run("SendTimeoutLogsFailed", func(t *testing.T) {
		transport := &stubTransport{delay: 200 * time.Millisecond}
		logs := &memLogStore{}
		d := NewDispatcher(transport, logs, 1, 16, 10*time.Millisecond, zerolog.Nop())

		d.Dispatch(KindBookingConfirmation, "ravi@example.com", bookingData())
		d.Close()

		entries := logs.Entries()
		if len(entries) != 1 {
			t.Fatalf("expected exactly 1 log entry, got %d", len(entries))
		}
		if entries[0].Outcome != OutcomeFailed {
			t.Fatalf("outcome %q, want failed", entries[0].Outcome)
		}
	})

	t.Run("UnknownKindLogsFailed", func(t *testing.T) {
		transport := &stubTransport{}
		logs := &memLogStore{}
		d := NewDispatcher(transport, logs, 1, 16, time.Second, zerolog.Nop())

		d.Dispatch(Kind("parcel_shipped"), "ravi@example.com", nil)
		d.Close()

		if transport.Sent() != 0 {
			t.Fatal("nothing should reach the transport for an unknown kind")
		}
		entries := logs.Entries()
		if len(entries) != 1 {
			t.Fatalf("expected exactly 1 log entry, got %d", len(entries))
		}
		if entries[0].Outcome != OutcomeFailed {
			t.Fatalf("outcome %q, want failed", entries[0].Outcome)
		}
	})

	t.Run("QueueOverflowStillDelivers", func(t *testing.T) {
		transport := &stubTransport{delay: 5 * time.Millisecond}
		logs := &memLogStore{}
		d := NewDispatcher(transport, logs, 1, 1, time.Second, zerolog.Nop())

		const total = 20
		for i := 0; i < total; i++ {
			d.Dispatch(KindBookingConfirmation, "ravi@example.com", bookingData())
		}
		d.Close()

		entries := logs.Entries()
		if len(entries) != total {
			t.Fatalf("expected %d log entries, got %d", total, len(entries))
		}
	})

	t.Run("DispatchDoesNotBlock", func(t *testing.T) {
		transport := &stubTransport{delay: 100 * time.Millisecond}
		logs := &memLogStore{}
		d := NewDispatcher(transport, logs, 1, 1, time.Second, zerolog.Nop())

		start := time.Now()
		for i := 0; i < 10; i++ {
			d.Dispatch(KindBookingConfirmation, "ravi@example.com", bookingData())
		}
		if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
			t.Fatalf("dispatch loop took %s, should return immediately", elapsed)
		}
		d.Close()
	})
}
