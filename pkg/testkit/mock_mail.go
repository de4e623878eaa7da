package testkit

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/shashiranjanraj/pehnawa/pkg/mail"
)

// MockMailer is a testify-backed mail.Mailer. It accepts every message
// unless the test sets its own expectation:
//
//	m := testkit.NewMockMailer()
//	m.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down"))
type MockMailer struct {
	mock.Mock

	mu   sync.Mutex
	sent []mail.Message
	auto bool
}

func NewMockMailer() *MockMailer { return &MockMailer{auto: true} }

// On replaces the default accept-all behaviour with explicit expectations.
func (m *MockMailer) On(method string, args ...interface{}) *mock.Call {
	m.mu.Lock()
	m.auto = false
	m.mu.Unlock()
	return m.Mock.On(method, args...)
}

func (m *MockMailer) Send(ctx context.Context, msg mail.Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	auto := m.auto
	m.mu.Unlock()

	if auto {
		return nil
	}
	return m.Called(ctx, msg).Error(0)
}

// Sent returns every message handed to Send.
func (m *MockMailer) Sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}
