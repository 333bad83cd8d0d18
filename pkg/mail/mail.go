/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/smtp"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/pr-poehali-dev/cad-engineer-website/pkg/config"
	"github.com/pr-poehali-dev/cad-engineer-website/pkg/metrics"
)

// Message is a fully composed notification ready to be handed to a Sender.
type Message struct {
	From     string
	FromName string
	To       []string
	ReplyTo  string
	Subject  string
	HTML     string
	// Text is the optional plain-text alternative. When set the message is
	// multipart/alternative with Text first and HTML last.
	Text string
}

// WriteTo serialises the message as RFC 5322 MIME.
func (m Message) WriteTo(w io.Writer) (int64, error) {
	return m.build().WriteTo(w)
}

func (m Message) build() *gomail.Message {
	msg := gomail.NewMessage(gomail.SetCharset("UTF-8"))
	if m.FromName != "" {
		msg.SetAddressHeader("From", m.From, m.FromName)
	} else {
		msg.SetHeader("From", m.From)
	}
	msg.SetHeader("To", m.To...)
	if m.ReplyTo != "" {
		msg.SetHeader("Reply-To", m.ReplyTo)
	}
	msg.SetHeader("Subject", m.Subject)
	if m.Text != "" {
		msg.SetBody("text/plain", m.Text)
		msg.AddAlternative("text/html", m.HTML)
	} else {
		msg.SetBody("text/html", m.HTML)
	}
	return msg
}

// Sender delivers one message. A non-nil error is always a *DeliveryError.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// DialContextFunc opens the TCP connection to the relay.
type DialContextFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Option customises an SMTPSender.
type Option func(*SMTPSender)

// WithTLSConfig replaces the TLS configuration used for STARTTLS.
func WithTLSConfig(c *tls.Config) Option {
	return func(s *SMTPSender) {
		s.tlsConfig = c
	}
}

// WithDialer replaces the function used to reach the relay.
func WithDialer(dial DialContextFunc) Option {
	return func(s *SMTPSender) {
		s.dial = dial
	}
}

// SMTPSender delivers messages through an authenticated STARTTLS session.
// Each Send opens and closes its own connection; the sender holds no session state.
type SMTPSender struct {
	cfg       config.Delivery
	tlsConfig *tls.Config
	dial      DialContextFunc
	log       *zap.SugaredLogger
}

func NewSender(cfg config.Delivery, log *zap.SugaredLogger, opts ...Option) *SMTPSender {
	cfg.Defaults()
	s := &SMTPSender{
		cfg: cfg,
		tlsConfig: &tls.Config{
			ServerName:         cfg.Host,
			InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // opt-in for relays with private certificates
			MinVersion:         tls.VersionTLS12,
		},
		dial: (&net.Dialer{Timeout: cfg.Timeout}).DialContext,
		log:  log.Named("mail"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.InsecureSkipVerify {
		s.log.Warnw("InsecureSkipVerify is enabled for the SMTP TLS connection", "host", cfg.Host)
	}
	return s
}

func (s *SMTPSender) GetHost() string {
	return s.cfg.Host
}

func (s *SMTPSender) GetPort() int {
	return s.cfg.Port
}

// Send runs connect, STARTTLS, authentication and transmission as one scoped
// exchange bounded by the configured timeout. The connection is released on every path.
func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	err := s.deliver(ctx, start, m)
	metrics.MailSendDuration.WithLabelValues(s.GetHost()).Observe(time.Since(start).Seconds())
	if err != nil {
		s.log.Warnw("Mail delivery failed",
			"host", s.GetHost(),
			"port", s.GetPort(),
			"stage", err.Op,
			"error", err.Detail)
		metrics.MailSendFailure.WithLabelValues(s.GetHost()).Inc()
		return err
	}
	s.log.Infow("Mail delivered",
		"host", s.GetHost(),
		"recipients", len(m.To),
		"duration", time.Since(start))
	metrics.MailSendSuccess.WithLabelValues(s.GetHost()).Inc()
	return nil
}

func (s *SMTPSender) deliver(ctx context.Context, start time.Time, m Message) *DeliveryError {
	if len(m.To) == 0 {
		return newDeliveryError(OpCompose, errors.New("message has no recipients"))
	}

	conn, err := s.dial(ctx, "tcp", s.cfg.Addr())
	if err != nil {
		return s.wrap(ctx, start, OpDial, err)
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	// Unblock any pending read or write as soon as the context ends.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return s.wrap(ctx, start, OpGreeting, err)
	}
	defer func() { _ = c.Close() }()

	if ok, _ := c.Extension("STARTTLS"); !ok {
		return newDeliveryError(OpStartTLS, ErrStartTLSUnsupported)
	}
	if err := c.StartTLS(s.tlsConfig.Clone()); err != nil {
		return s.wrap(ctx, start, OpStartTLS, err)
	}
	if err := c.Auth(smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)); err != nil {
		return s.wrap(ctx, start, OpAuth, err)
	}

	if err := c.Mail(m.From); err != nil {
		return s.wrap(ctx, start, OpSend, err)
	}
	for _, rcpt := range m.To {
		if err := c.Rcpt(rcpt); err != nil {
			return s.wrap(ctx, start, OpSend, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return s.wrap(ctx, start, OpSend, err)
	}
	if _, err := m.WriteTo(w); err != nil {
		_ = w.Close()
		return s.wrap(ctx, start, OpSend, err)
	}
	if err := w.Close(); err != nil {
		return s.wrap(ctx, start, OpSend, err)
	}

	// The relay accepted the message once DATA completed; a failed QUIT does not undo that.
	if err := c.Quit(); err != nil {
		s.log.Debugw("SMTP QUIT failed after successful delivery", "error", err)
	}
	return nil
}

// wrap reports the time spent since start, which is shorter than the configured
// timeout when the caller's deadline fired first.
func (s *SMTPSender) wrap(ctx context.Context, start time.Time, op string, err error) *DeliveryError {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return newTimeoutError(op, time.Since(start), err)
	case ctx.Err() != nil:
		return &DeliveryError{Op: op, Detail: "SMTP " + op + " interrupted: " + ctx.Err().Error(), Err: errors.Join(ctx.Err(), err)}
	}
	return newDeliveryError(op, err)
}
