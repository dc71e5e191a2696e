package mailer

import (
	"context"
	"sync"
	"time"

	"github.com/twitteroauth/auth-service/internal/models"
	"github.com/twitteroauth/auth-service/pkg/logger"
	"github.com/twitteroauth/auth-service/pkg/metrics"
)

// sendTimeout bounds a single delivery attempt.
const sendTimeout = 30 * time.Second

type job struct {
	kind string
	user *models.User
	url  string
}

// Dispatcher runs deliveries on a background worker. Scheduling never
// blocks the caller: when the queue is full the job is dropped and logged.
// The triggering request has already succeeded by then, so a lost email is
// an operational signal, not a request failure.
type Dispatcher struct {
	notifier Notifier
	jobs     chan job
	wg       sync.WaitGroup
	once     sync.Once
}

// NewDispatcher starts a dispatcher with the given queue depth.
func NewDispatcher(n Notifier, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	d := &Dispatcher{notifier: n, jobs: make(chan job, queueSize)}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for j := range d.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		var err error
		switch j.kind {
		case "welcome":
			err = d.notifier.SendWelcome(ctx, j.user, j.url)
		case "recovery":
			err = d.notifier.SendPasswordRecovery(ctx, j.user, j.url)
		}
		cancel()
		if err != nil {
			metrics.EmailsFailed.WithLabelValues(j.kind).Inc()
			logger.Errorf("email delivery failed (kind=%s to=%s): %v", j.kind, j.user.Email, err)
			continue
		}
		metrics.EmailsSent.WithLabelValues(j.kind).Inc()
	}
}

func (d *Dispatcher) enqueue(j job) {
	select {
	case d.jobs <- j:
	default:
		metrics.EmailsFailed.WithLabelValues(j.kind).Inc()
		logger.Warnf("email queue full, dropping %s email for %s", j.kind, j.user.Email)
	}
}

// SendWelcome schedules a welcome email; fire-and-forget.
func (d *Dispatcher) SendWelcome(u *models.User, activationURL string) {
	cp := *u
	d.enqueue(job{kind: "welcome", user: &cp, url: activationURL})
}

// SendPasswordRecovery schedules a password recovery email; fire-and-forget.
func (d *Dispatcher) SendPasswordRecovery(u *models.User, resetURL string) {
	cp := *u
	d.enqueue(job{kind: "recovery", user: &cp, url: resetURL})
}

// Close stops accepting jobs and waits for in-flight deliveries.
func (d *Dispatcher) Close() {
	d.once.Do(func() { close(d.jobs) })
	d.wg.Wait()
}
