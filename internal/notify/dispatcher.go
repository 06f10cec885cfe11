package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type job struct {
	kind      Kind
	recipient string
	data      map[string]string
}

// Dispatcher renders and delivers notifications on a small worker pool.
// Dispatch never blocks and never reports failure to the caller; the
// delivery log is the only durable record of an attempt.
type Dispatcher struct {
	templates *TemplateEngine
	transport Transport
	logs      LogStore
	queue     chan job
	timeout   time.Duration
	log       zerolog.Logger
	wg        sync.WaitGroup
}

// NewDispatcher starts workers goroutines draining the queue. Callers
// must Close the dispatcher on shutdown to flush in-flight deliveries,
// and must not Dispatch afterwards.
func NewDispatcher(transport Transport, logs LogStore, workers, queueSize int, sendTimeout time.Duration, log zerolog.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}

	d := &Dispatcher{
		templates: NewTemplateEngine(),
		transport: transport,
		logs:      logs,
		queue:     make(chan job, queueSize),
		timeout:   sendTimeout,
		log:       log,
	}

	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for j := range d.queue {
				d.deliver(j)
			}
		}()
	}

	return d
}

// Dispatch queues one notification, fire-and-forget. If the queue is
// full the job is handed to a one-off goroutine instead of making the
// caller wait.
func (d *Dispatcher) Dispatch(kind Kind, recipient string, data map[string]string) {
	j := job{kind: kind, recipient: recipient, data: data}

	select {
	case d.queue <- j:
	default:
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.deliver(j)
		}()
	}
}

// Close stops accepting work and waits for queued deliveries.
func (d *Dispatcher) Close() {
	close(d.queue)
	d.wg.Wait()
}

func (d *Dispatcher) deliver(j job) {
	subject, body, err := d.templates.Render(j.kind, j.data)
	if err != nil {
		d.appendLog(LogEntry{
			Recipient: j.recipient,
			Subject:   string(j.kind),
			Body:      "",
			Outcome:   OutcomeFailed,
			Detail:    err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	entry := LogEntry{
		Recipient: j.recipient,
		Subject:   subject,
		Body:      body,
	}

	if err := d.transport.Send(ctx, j.recipient, subject, body); err != nil {
		entry.Outcome = OutcomeFailed
		entry.Detail = err.Error()
	} else {
		entry.Outcome = OutcomeSent
	}

	d.appendLog(entry)
}

func (d *Dispatcher) appendLog(e LogEntry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := d.logs.Append(ctx, e); err != nil {
		d.log.Error().Err(err).
			Str("recipient", e.Recipient).
			Str("subject", e.Subject).
			Msg("failed to write notification log entry")
	}
}
