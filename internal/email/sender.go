package email

import (
	"context"
	"errors"
)

// Sender define la interfaz para correos transaccionales de cuentas.
type Sender interface {
	SendWelcome(ctx context.Context, toEmail, firstName string) error
}

type disabledSender struct {
	reason string
}

// NewDisabledSender devuelve un Sender que siempre falla con el motivo dado.
func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendWelcome(_ context.Context, _, _ string) error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}
