package email

import (
	"context"
	"errors"
	"time"
)

// ErrDisabled se devuelve cuando no hay SMTP configurado.
var ErrDisabled = errors.New("email sender disabled")

// Sender define la interfaz para avisos transaccionales al usuario.
type Sender interface {
	SendProActivated(ctx context.Context, toEmail string, until time.Time) error
	SendVerificationOTP(ctx context.Context, toEmail string, code string, expiresAt time.Time) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendProActivated(_ context.Context, _ string, _ time.Time) error {
	if s.reason == "" {
		return ErrDisabled
	}
	return errors.Join(ErrDisabled, errors.New(s.reason))
}

func (s *disabledSender) SendVerificationOTP(_ context.Context, _ string, _ string, _ time.Time) error {
	if s.reason == "" {
		return ErrDisabled
	}
	return errors.Join(ErrDisabled, errors.New(s.reason))
}
