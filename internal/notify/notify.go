// Package notify sends email alerts for supervision events.
//
// A Mailer formats and delivers deviation alerts, zone failure notices
// and run summaries over SMTP. Delivery is best-effort: a failed send is
// logged and never affects supervision. Deviation alerts are rate-limited
// per zone so a persistently drifting thermostat does not flood inboxes.
package notify

import (
	"fmt"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"github.com/thermosentry/thermosentry/internal/infrastructure/config"
	"github.com/thermosentry/thermosentry/internal/site"
	"github.com/thermosentry/thermosentry/internal/supervise"
)

// defaultCooldown is the minimum interval between deviation alerts for
// the same zone.
const defaultCooldown = 15 * time.Minute

// Logger is the minimal logging interface the mailer needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// sendFunc matches smtp.SendMail and exists so tests can capture
// outgoing mail without a live server.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer delivers alert emails using the configured SMTP relay.
type Mailer struct {
	cfg      config.EmailConfig
	logger   Logger
	send     sendFunc
	now      func() time.Time
	cooldown time.Duration

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// NewMailer builds a Mailer from the email configuration.
// A disabled configuration yields a mailer whose sends are all no-ops.
func NewMailer(cfg config.EmailConfig) *Mailer {
	return &Mailer{
		cfg:      cfg,
		logger:   noopLogger{},
		send:     smtp.SendMail,
		now:      time.Now,
		cooldown: defaultCooldown,
		lastSent: make(map[string]time.Time),
	}
}

// SetLogger replaces the no-op logger.
func (m *Mailer) SetLogger(l Logger) {
	if l != nil {
		m.logger = l
	}
}

// Enabled reports whether the mailer will actually deliver anything.
func (m *Mailer) Enabled() bool {
	return m.cfg.Enabled && m.cfg.Host != "" && m.cfg.From != "" && len(m.cfg.To) > 0
}

// SendDeviation emails a tolerance-band violation for a zone. Alerts for
// a zone inside the cooldown window are dropped silently.
func (m *Mailer) SendDeviation(zoneKey string, meas supervise.Measurement, tolerance float64) {
	if !m.Enabled() {
		return
	}
	if !m.shouldAlert(zoneKey) {
		return
	}

	subject := fmt.Sprintf("ThermoSentry deviation: %s", zoneKey)
	body := fmt.Sprintf(
		"Zone %s read %.1fF at %s (measurement %d, worker %s).\n"+
			"The reading is outside the scheduled setpoint by more than %.1fF.\n",
		zoneKey, meas.Temperature, meas.Timestamp.Format(time.RFC1123),
		meas.Index, meas.WorkerID, tolerance,
	)
	m.deliver(subject, body)
}

// SendZoneFailure emails a terminal supervision error for a zone.
func (m *Mailer) SendZoneFailure(zoneKey string, zerr error) {
	if !m.Enabled() {
		return
	}
	subject := fmt.Sprintf("ThermoSentry zone failure: %s", zoneKey)
	body := fmt.Sprintf("Supervision of zone %s ended with an error:\n\n%v\n", zoneKey, zerr)
	m.deliver(subject, body)
}

// SendRunSummary emails an end-of-run digest built from the report.
func (m *Mailer) SendRunSummary(siteName string, report *site.Report) {
	if !m.Enabled() || report == nil {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Supervision run for site %q finished at %s.\n\n",
		siteName, report.FinishedAt.Format(time.RFC1123))
	results := report.Results()
	errs := report.Errors()
	for _, key := range report.ZoneKeys() {
		if ms, ok := results[key]; ok {
			fmt.Fprintf(&b, "  %s: %d measurements", key, len(ms))
			if len(ms) > 0 {
				fmt.Fprintf(&b, ", last %.1fF", ms[len(ms)-1].Temperature)
			}
			b.WriteString("\n")
		}
		if zerr, ok := errs[key]; ok {
			fmt.Fprintf(&b, "  %s: FAILED: %s\n", key, zerr.Message)
		}
	}

	status := "OK"
	if !report.Success() {
		status = "DEGRADED"
	}
	m.deliver(fmt.Sprintf("ThermoSentry run summary [%s]: %s", status, siteName), b.String())
}

func (m *Mailer) shouldAlert(zoneKey string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if last, ok := m.lastSent[zoneKey]; ok && now.Sub(last) < m.cooldown {
		return false
	}
	m.lastSent[zoneKey] = now
	return true
}

func (m *Mailer) deliver(subject, body string) {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		m.cfg.From, strings.Join(m.cfg.To, ", "), subject, body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := m.send(addr, auth, m.cfg.From, m.cfg.To, []byte(msg)); err != nil {
		m.logger.Error("alert email delivery failed", "subject", subject, "error", err)
		return
	}
	m.logger.Info("alert email sent", "subject", subject, "recipients", len(m.cfg.To))
}
