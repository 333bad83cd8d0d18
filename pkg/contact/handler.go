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

package contact

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/pr-poehali-dev/cad-engineer-website/pkg/apiresponses"
	"github.com/pr-poehali-dev/cad-engineer-website/pkg/config"
	"github.com/pr-poehali-dev/cad-engineer-website/pkg/mail"
	"github.com/pr-poehali-dev/cad-engineer-website/pkg/metrics"
	"github.com/pr-poehali-dev/cad-engineer-website/pkg/system"
)

// Request is one inbound invocation, independent of the hosting platform.
type Request struct {
	Method  string
	Body    string
	Headers map[string]string
	// IsBase64Encoded marks a Body that must be base64-decoded before parsing.
	IsBase64Encoded bool
}

func (r Request) payload() ([]byte, error) {
	if !r.IsBase64Encoded {
		return []byte(r.Body), nil
	}
	b, err := base64.StdEncoding.DecodeString(r.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return b, nil
}

// Handler turns contact requests into responses. It is safe for concurrent
// use; the configuration is read-only after construction.
type Handler struct {
	cfg    config.Delivery
	sender mail.Sender
	log    *zap.SugaredLogger
}

// NewHandler returns a Handler delivering through sender. A nil sender selects
// an SMTPSender built from cfg.
func NewHandler(cfg config.Delivery, sender mail.Sender, log *zap.SugaredLogger) *Handler {
	cfg.Defaults()
	if sender == nil {
		sender = mail.NewSender(cfg, log)
	}
	return &Handler{cfg: cfg, sender: sender, log: log.Named("contact")}
}

// Handle dispatches on the request method and maps every outcome to a
// response. It never fails; errors become JSON error bodies.
func (h *Handler) Handle(ctx context.Context, req Request) apiresponses.Response {
	log := system.LoggerFromContext(ctx, h.log)

	// HTTP methods are case-sensitive; "post" is not POST.
	switch req.Method {
	case http.MethodOptions:
		record(metrics.OutcomePreflight)
		return apiresponses.Preflight()
	case http.MethodPost:
	default:
		log.Debugw("Rejected contact request method", "method", req.Method)
		record(metrics.OutcomeMethodNotAllowed)
		return apiresponses.MethodNotAllowed()
	}

	body, err := req.payload()
	if err != nil {
		log.Infow("Rejected undecodable contact request", "error", err)
		record(metrics.OutcomeMalformed)
		return apiresponses.MalformedBody()
	}
	sub, err := ParseSubmission(body)
	if err != nil {
		log.Infow("Rejected malformed contact request", "error", err)
		record(metrics.OutcomeMalformed)
		return apiresponses.MalformedBody()
	}
	if err := sub.Validate(); err != nil {
		log.Infow("Rejected incomplete contact request", "missing", sub.Missing())
		record(metrics.OutcomeInvalid)
		return apiresponses.MissingFields()
	}

	return h.deliver(ctx, log, sub)
}

func (h *Handler) deliver(ctx context.Context, log *zap.SugaredLogger, sub Submission) apiresponses.Response {
	if err := h.cfg.Validate(); err != nil {
		log.Errorw("Email delivery is not configured", "error", err)
		record(metrics.OutcomeNotConfigured)
		return apiresponses.NotConfigured()
	}

	msg, err := Compose(h.cfg, sub)
	if err != nil {
		log.Errorw("Failed to compose contact notification", "error", err)
		record(metrics.OutcomeSendFailed)
		return apiresponses.SendFailed(err.Error())
	}

	if err := h.sender.Send(ctx, msg); err != nil {
		fields := []interface{}{"host", h.cfg.Host, "error", err.Error()}
		var de *mail.DeliveryError
		if errors.As(err, &de) {
			fields = append(fields, "stage", de.Op, "timeout", de.Timeout())
		}
		log.Warnw("Failed to deliver contact notification", fields...)
		record(metrics.OutcomeSendFailed)
		return apiresponses.SendFailed(err.Error())
	}

	log.Infow("Contact notification delivered",
		"recipient", h.cfg.Recipient,
		"hasEmail", sub.Email != "")
	record(metrics.OutcomeSent)
	return apiresponses.Sent()
}

func record(outcome string) {
	metrics.Submissions.WithLabelValues(outcome).Inc()
}
