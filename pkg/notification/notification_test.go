package notification

import (
	"context"
	"encoding/json"
	gohttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/pehnawa/pkg/http"
	"github.com/shashiranjanraj/pehnawa/pkg/mail"
)

type mockMailer struct{ mock.Mock }

func (m *mockMailer) Send(ctx context.Context, msg mail.Message) error {
	return m.Called(msg).Error(0)
}

type digest struct{}

func (digest) Via() []string { return []string{ChannelMail, ChannelSlack} }
func (digest) ToMail() MailData {
	return MailData{Subject: "Low stock", Text: "3 products"}
}
func (digest) ToSlack() SlackData { return SlackData{Text: "3 products low"} }

func TestSend_MailAndSlack(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	m := &mockMailer{}
	m.On("Send", mock.MatchedBy(func(msg mail.Message) bool {
		return msg.Subject == "Low stock" && msg.To[0] == "ops@pehnawa.pk"
	})).Return(nil).Once()

	nt := New(m, http.NewClient(http.Options{}), srv.URL)
	require.NoError(t, nt.Send(context.Background(), "ops@pehnawa.pk", digest{}))

	m.AssertExpectations(t)
	assert.Equal(t, "3 products low", got["text"])
}

func TestSend_SlackSkippedWithoutWebhook(t *testing.T) {
	m := &mockMailer{}
	m.On("Send", mock.Anything).Return(nil)

	nt := New(m, http.NewClient(http.Options{}), "")
	assert.NoError(t, nt.Send(context.Background(), "ops@pehnawa.pk", digest{}))
}

func TestSend_MissingRecipient(t *testing.T) {
	nt := New(&mockMailer{}, nil, "")
	err := nt.Send(context.Background(), "", digest{})
	assert.ErrorContains(t, err, "no recipient")
}
