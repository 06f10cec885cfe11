package notify

import (
	"fmt"
	"strings"
	"sync"
)

// Template is a reusable subject/body pair with {{placeholder}} fields.
type Template struct {
	Kind    Kind
	Subject string
	Body    string
}

// TemplateEngine holds the registered templates and renders them with
// per-notification data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[Kind]Template
}

// NewTemplateEngine creates an engine with the built-in transactional
// templates pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[Kind]Template)}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			Kind:    KindBookingConfirmation,
			Subject: "Your Appointment Request with Dr. {{provider_name}}",
			Body: "Dear {{patient_name}}, your appointment request with Dr. {{provider_name}} " +
				"on {{date}} at {{time}} has been submitted and is awaiting confirmation.",
		},
		{
			Kind:    KindReschedule,
			Subject: "Your Appointment with Dr. {{provider_name}} has been Rescheduled",
			Body: "Dear {{patient_name}}, your appointment with Dr. {{provider_name}} has been " +
				"moved to {{date}} at {{time}}. The doctor will re-confirm the new time.",
		},
		{
			Kind:    KindCancellation,
			Subject: "Your Appointment with Dr. {{provider_name}} has been Cancelled",
			Body: "Dear {{patient_name}}, your appointment with Dr. {{provider_name}} " +
				"on {{date}} at {{time}} has been cancelled.",
		},
		{
			Kind:    KindProviderConfirmed,
			Subject: "Your Appointment with Dr. {{provider_name}} is Confirmed!",
			Body: "Dear {{patient_name}}, Dr. {{provider_name}} has confirmed your appointment " +
				"on {{date}} at {{time}}. Please arrive a few minutes early.",
		},
		{
			Kind:    KindLabTestConfirmation,
			Subject: "Your Lab Test Request for a {{test_type}}",
			Body: "Dear {{patient_name}}, your {{test_type}} request at {{location}} has been " +
				"received and is awaiting scheduling.",
		},
		{
			Kind:    KindLabTestCancellation,
			Subject: "Your Lab Test Request for a {{test_type}} has been Cancelled",
			Body:    "Dear {{patient_name}}, your {{test_type}} request at {{location}} has been cancelled.",
		},
		{
			Kind:    KindLabTestStatus,
			Subject: "Your {{test_type}} Lab Test is {{status}}",
			Body:    "Dear {{patient_name}}, the status of your {{test_type}} request is now {{status}}.",
		},
	}

	for _, t := range builtIn {
		e.templates[t.Kind] = t
	}
}

// Register adds or replaces a template.
func (e *TemplateEngine) Register(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.Kind] = t
}

// Render produces the subject and body for a kind, substituting every
// {{key}} with its value from data. Unknown placeholders are left
// in place so a half-filled message is visible in the delivery log.
func (e *TemplateEngine) Render(kind Kind, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[kind]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("no template registered for kind %q", kind)
	}

	return substitute(t.Subject, data), substitute(t.Body, data), nil
}

func substitute(s string, data map[string]string) string {
	for k, v := range data {
		s = strings.ReplaceAll(s, "{{"+k+"}}", v)
	}
	return s
}
