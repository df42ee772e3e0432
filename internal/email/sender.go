package email

import (
	"context"
	"errors"
)

// Sender define la interfaz para avisar a soporte cuando una sesion escala.
type Sender interface {
	SendEscalationNote(ctx context.Context, toEmail, sessionToken, note string) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendEscalationNote(_ context.Context, _ string, _ string, _ string) error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}
