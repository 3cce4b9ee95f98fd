package mailer

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"ai-finance-assistant-be/internal/config"
	"ai-finance-assistant-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeDialer struct {
	err   error
	delay time.Duration
	sent  []*gomail.Message
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.sent = append(f.sent, m...)
	return f.err
}

func fullConfig(port int) config.SMTPConfig {
	return config.SMTPConfig{Host: "smtp.example.com", Port: port, Username: "bot", Password: "secret", From: "bot@example.com", TLS: true}
}

func newService(cfg config.SMTPConfig, d *fakeDialer, timeout time.Duration) *emailService {
	return &emailService{
		cfg:     cfg,
		timeout: timeout,
		logger:  logger.NewNopLogger(),
		dial:    func(config.SMTPConfig) dialer { return d },
	}
}

func TestSend_MissingConfigFailsBeforeDial(t *testing.T) {
	d := &fakeDialer{}
	svc := newService(config.SMTPConfig{Port: 587}, d, time.Second)

	err := svc.Send(context.Background(), "a@b.com", "s", "b")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotConfigured))
	assert.Contains(t, err.Error(), "SMTP_HOST")
	assert.Empty(t, d.sent)
}

func TestSend_Success(t *testing.T) {
	d := &fakeDialer{}
	svc := newService(fullConfig(587), d, time.Second)

	err := svc.Send(context.Background(), "cfo@example.com", "Q3", "Numbers attached.")
	require.NoError(t, err)
	require.Len(t, d.sent, 1)

	assert.Equal(t, []string{"bot@example.com"}, d.sent[0].GetHeader("From"))
	assert.Equal(t, []string{"cfo@example.com"}, d.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"Q3"}, d.sent[0].GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = d.sent[0].WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Numbers attached.")
}

func TestSend_TransportFailure(t *testing.T) {
	d := &fakeDialer{err: errors.New("535 authentication failed")}
	svc := newService(fullConfig(465), d, time.Second)

	err := svc.Send(context.Background(), "x@example.com", "s", "b")
	assert.ErrorContains(t, err, "535")
}

func TestSend_Timeout(t *testing.T) {
	d := &fakeDialer{delay: 200 * time.Millisecond}
	svc := newService(fullConfig(587), d, 20*time.Millisecond)

	err := svc.Send(context.Background(), "x@example.com", "s", "b")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewDialer_TLSMode(t *testing.T) {
	implicit := newDialer(fullConfig(465)).(*gomail.Dialer)
	assert.True(t, implicit.SSL)

	starttls := newDialer(fullConfig(587)).(*gomail.Dialer)
	assert.False(t, starttls.SSL)
	require.NotNil(t, starttls.TLSConfig)
	assert.Equal(t, "smtp.example.com", starttls.TLSConfig.ServerName)
}

func TestNewDialer_TLSDisabled(t *testing.T) {
	cfg := fullConfig(465)
	cfg.TLS = false
	plain := newDialer(cfg).(*gomail.Dialer)
	assert.False(t, plain.SSL)
	assert.Nil(t, plain.TLSConfig)
}
