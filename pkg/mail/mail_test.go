package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pr-poehali-dev/cad-engineer-website/pkg/config"
	"github.com/pr-poehali-dev/cad-engineer-website/pkg/metrics"
)

func testDelivery(port int) config.Delivery {
	return config.Delivery{
		Host:      "127.0.0.1",
		Port:      port,
		User:      relayUser,
		Password:  relayPassword,
		Recipient: "office@example.com",
		Timeout:   5 * time.Second,
	}
}

func testMessage() Message {
	return Message{
		From:     relayUser,
		FromName: "Городской кадастр недвижимости",
		To:       []string{"office@example.com"},
		ReplyTo:  "ivan@example.com",
		Subject:  "Новая заявка с сайта от Ivan",
		HTML:     `<p>Ivan <a href="tel:+71234567890">+71234567890</a></p><p>Hello</p>`,
		Text:     "Ivan +71234567890\nHello",
	}
}

func trustingSender(t *testing.T, cfg config.Delivery, pool *x509.CertPool) *SMTPSender {
	t.Helper()
	return NewSender(cfg, zaptest.NewLogger(t).Sugar(), WithTLSConfig(&tls.Config{
		ServerName: "127.0.0.1",
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}))
}

func requireDeliveryError(t *testing.T, err error, op string) *DeliveryError {
	t.Helper()
	require.Error(t, err)
	var de *DeliveryError
	require.True(t, errors.As(err, &de), "expected *DeliveryError, got %T", err)
	assert.Equal(t, op, de.Op)
	assert.NotEmpty(t, de.Detail)
	assert.Equal(t, de.Detail, err.Error())
	return de
}

func TestNewSenderDefaults(t *testing.T) {
	s := NewSender(config.Delivery{Host: "smtp.example.com"}, zaptest.NewLogger(t).Sugar())

	assert.Equal(t, "smtp.example.com", s.GetHost())
	assert.Equal(t, config.DefaultSMTPPort, s.GetPort())
	assert.Equal(t, config.DefaultSMTPTimeout, s.cfg.Timeout)
	assert.Equal(t, "smtp.example.com", s.tlsConfig.ServerName)
	assert.False(t, s.tlsConfig.InsecureSkipVerify)
	assert.Implements(t, (*Sender)(nil), s)
}

func TestNewSenderInsecureSkipVerify(t *testing.T) {
	s := NewSender(config.Delivery{Host: "smtp.internal", InsecureSkipVerify: true}, zaptest.NewLogger(t).Sugar())
	assert.True(t, s.tlsConfig.InsecureSkipVerify)
}

func TestSMTPSenderDelivers(t *testing.T) {
	relay, port, pool := startRelay(t, true)
	s := trustingSender(t, testDelivery(port), pool)
	before := testutil.ToFloat64(metrics.MailSendSuccess.WithLabelValues("127.0.0.1"))

	err := s.Send(context.Background(), testMessage())
	require.NoError(t, err)

	msgs := relay.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, relayUser, msgs[0].From)
	assert.Equal(t, []string{"office@example.com"}, msgs[0].To)

	raw := string(msgs[0].Data)
	assert.Contains(t, raw, "multipart/alternative")
	assert.Contains(t, raw, "text/html")
	assert.Contains(t, raw, "To: office@example.com")
	assert.Contains(t, raw, "Reply-To: ivan@example.com")
	assert.Contains(t, raw, "<robot@example.com>")
	assert.Contains(t, raw, "+71234567890")
	assert.Contains(t, raw, "Hello")

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.MailSendSuccess.WithLabelValues("127.0.0.1")))
}

func TestSMTPSenderSendsTwiceWithoutDeduplication(t *testing.T) {
	relay, port, pool := startRelay(t, true)
	s := trustingSender(t, testDelivery(port), pool)

	require.NoError(t, s.Send(context.Background(), testMessage()))
	require.NoError(t, s.Send(context.Background(), testMessage()))

	assert.Len(t, relay.Messages(), 2)
}

func TestSMTPSenderRequiresStartTLS(t *testing.T) {
	relay, port, _ := startRelay(t, false)
	s := NewSender(testDelivery(port), zaptest.NewLogger(t).Sugar())

	err := s.Send(context.Background(), testMessage())

	de := requireDeliveryError(t, err, OpStartTLS)
	assert.ErrorIs(t, de, ErrStartTLSUnsupported)
	assert.Empty(t, relay.Messages())
}

func TestSMTPSenderRejectsUntrustedCertificate(t *testing.T) {
	relay, port, _ := startRelay(t, true)
	s := NewSender(testDelivery(port), zaptest.NewLogger(t).Sugar())

	err := s.Send(context.Background(), testMessage())

	requireDeliveryError(t, err, OpStartTLS)
	assert.Empty(t, relay.Messages())
}

func TestSMTPSenderAuthFailure(t *testing.T) {
	relay, port, pool := startRelay(t, true)
	cfg := testDelivery(port)
	cfg.Password = "wrong"
	s := trustingSender(t, cfg, pool)
	before := testutil.ToFloat64(metrics.MailSendFailure.WithLabelValues("127.0.0.1"))

	err := s.Send(context.Background(), testMessage())

	requireDeliveryError(t, err, OpAuth)
	assert.Empty(t, relay.Messages())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.MailSendFailure.WithLabelValues("127.0.0.1")))
}

func TestSMTPSenderConnectionRefused(t *testing.T) {
	s := NewSender(testDelivery(closedPort(t)), zaptest.NewLogger(t).Sugar())

	err := s.Send(context.Background(), testMessage())

	de := requireDeliveryError(t, err, OpDial)
	assert.Contains(t, strings.ToLower(de.Detail), "refused")
	assert.False(t, de.Timeout())
}

func TestSMTPSenderTimeout(t *testing.T) {
	cfg := testDelivery(startSilentServer(t))
	cfg.Timeout = 200 * time.Millisecond
	s := NewSender(cfg, zaptest.NewLogger(t).Sugar())

	start := time.Now()
	err := s.Send(context.Background(), testMessage())

	de := requireDeliveryError(t, err, OpGreeting)
	assert.True(t, de.Timeout())
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSMTPSenderTimeoutReportsElapsedTime(t *testing.T) {
	cfg := testDelivery(startSilentServer(t))
	cfg.Timeout = 5 * time.Second
	s := NewSender(cfg, zaptest.NewLogger(t).Sugar())

	// The caller's deadline is shorter than the configured timeout.
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err := s.Send(ctx, testMessage())

	de := requireDeliveryError(t, err, OpGreeting)
	assert.True(t, de.Timeout())
	assert.NotContains(t, de.Detail, "after 5s")
	assert.Contains(t, de.Detail, "SMTP greeting timed out after ")
}

func TestSMTPSenderNoRecipients(t *testing.T) {
	s := NewSender(testDelivery(closedPort(t)), zaptest.NewLogger(t).Sugar())
	m := testMessage()
	m.To = nil

	err := s.Send(context.Background(), m)

	requireDeliveryError(t, err, OpCompose)
}

func TestMessageWriteTo(t *testing.T) {
	t.Run("html with text alternative", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := testMessage().WriteTo(&buf)
		require.NoError(t, err)

		raw := buf.String()
		assert.Contains(t, raw, "Mime-Version: 1.0")
		assert.Contains(t, raw, "multipart/alternative")
		plain := strings.Index(raw, "text/plain")
		html := strings.Index(raw, "text/html")
		require.NotEqual(t, -1, plain)
		require.NotEqual(t, -1, html)
		assert.Less(t, plain, html, "plain text must precede the preferred HTML part")
		assert.Equal(t, 1, strings.Count(raw, "Content-Type: text/html"))
		assert.Contains(t, raw, "charset=UTF-8")
		assert.Contains(t, raw, "Subject: =?UTF-8?")
	})

	t.Run("html only", func(t *testing.T) {
		m := testMessage()
		m.Text = ""
		m.ReplyTo = ""
		m.FromName = ""

		var buf bytes.Buffer
		_, err := m.WriteTo(&buf)
		require.NoError(t, err)

		raw := buf.String()
		assert.NotContains(t, raw, "multipart/alternative")
		assert.NotContains(t, raw, "Reply-To")
		assert.Contains(t, raw, "From: robot@example.com")
		assert.Contains(t, raw, "Content-Type: text/html; charset=UTF-8")
	})
}

func TestDeliveryErrorTimeout(t *testing.T) {
	assert.True(t, newTimeoutError(OpSend, time.Second, errors.New("i/o")).Timeout())
	assert.False(t, newDeliveryError(OpSend, errors.New("550 rejected")).Timeout())

	de := newTimeoutError(OpAuth, 30*time.Second, errors.New("i/o"))
	assert.Equal(t, "SMTP auth timed out after 30s", de.Error())
	assert.ErrorIs(t, de, context.DeadlineExceeded)
}
