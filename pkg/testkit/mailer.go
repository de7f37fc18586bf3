package testkit

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/shashiranjanraj/bazaar/pkg/mail"
)

// Mailer is a mail.Mailer backed by testify/mock that also keeps every
// message it was asked to send.
//
//	m := testkit.NewMailer()
//	mail.Use(m)
//	...
//	m.AssertNumberOfCalls(t, "Send", 1)
type Mailer struct {
	mock.Mock

	mu   sync.Mutex
	sent []mail.Message
}

// NewMailer accepts every message.
func NewMailer() *Mailer {
	m := &Mailer{}
	m.On("Send", mock.Anything, mock.Anything).Return(nil).Maybe()
	return m
}

func (m *Mailer) Send(ctx context.Context, msg *mail.Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, *msg)
	m.mu.Unlock()
	return m.Called(ctx, msg).Error(0)
}

// Sent returns a copy of the delivered messages.
func (m *Mailer) Sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}
