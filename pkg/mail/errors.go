package mail

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Delivery stages reported in DeliveryError.Op.
const (
	OpCompose  = "compose"
	OpDial     = "dial"
	OpGreeting = "greeting"
	OpStartTLS = "starttls"
	OpAuth     = "auth"
	OpSend     = "send"
)

// ErrStartTLSUnsupported is returned when the relay does not offer STARTTLS.
var ErrStartTLSUnsupported = errors.New("SMTP server does not support STARTTLS")

// DeliveryError is the failure result of Sender.Send. Detail is the
// human-readable description surfaced to the caller.
type DeliveryError struct {
	Op     string
	Detail string
	Err    error
}

func (e *DeliveryError) Error() string {
	return e.Detail
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the exchange ran out of time.
func (e *DeliveryError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(e.Err, &te) && te.Timeout()
}

func newDeliveryError(op string, err error) *DeliveryError {
	return &DeliveryError{Op: op, Detail: err.Error(), Err: err}
}

func newTimeoutError(op string, elapsed time.Duration, err error) *DeliveryError {
	return &DeliveryError{
		Op:     op,
		Detail: fmt.Sprintf("SMTP %s timed out after %s", op, elapsed.Round(time.Millisecond)),
		Err:    errors.Join(context.DeadlineExceeded, err),
	}
}
