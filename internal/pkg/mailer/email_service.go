package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"ai-finance-assistant-be/internal/config"
	"ai-finance-assistant-be/internal/pkg/logger"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	// Send delivers a plain-text message.
	Send(ctx context.Context, to, subject, body string) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailService struct {
	cfg     config.SMTPConfig
	timeout time.Duration
	logger  logger.ILogger
	dial    func(cfg config.SMTPConfig) dialer
}

func NewEmailService(cfg config.SMTPConfig, timeout time.Duration, log logger.ILogger) IEmailService {
	return &emailService{
		cfg:     cfg,
		timeout: timeout,
		logger:  log,
		dial:    newDialer,
	}
}

// newDialer uses implicit TLS when TLS is enabled on port 465. Otherwise
// it dials in plain text and upgrades with STARTTLS when the server offers it.
func newDialer(cfg config.SMTPConfig) dialer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.TLS && cfg.Port == 465
	if cfg.TLS {
		d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	}
	return d
}

// ErrNotConfigured wraps configuration problems detected before any delivery attempt.
var ErrNotConfigured = errors.New("mailer not configured")

func (s *emailService) Send(ctx context.Context, to, subject, body string) error {
	if err := s.cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		done <- s.dial(s.cfg).DialAndSend(m)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = fmt.Errorf("smtp delivery aborted: %w", ctx.Err())
	}

	if err != nil {
		s.logger.Error("MAILER", "Failed to send email", map[string]interface{}{
			"to":    to,
			"host":  s.cfg.Host,
			"port":  s.cfg.Port,
			"error": err.Error(),
		})
		return err
	}

	s.logger.Info("MAILER", "Email sent", map[string]interface{}{"to": to, "subject": subject})
	return nil
}
