package mail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fastygo/accounts/internal/config"
	"github.com/fastygo/accounts/usecase"
)

func TestNew_SelectsDriver(t *testing.T) {
	n, err := New(config.MailConfig{Driver: "log"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LogNotifier{}, n)

	n, err = New(config.MailConfig{Driver: "smtp", Host: "localhost", Port: 25, From: "noreply@x.com"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SMTPNotifier{}, n)

	_, err = New(config.MailConfig{Driver: "smtp"}, nil)
	assert.Error(t, err)

	_, err = New(config.MailConfig{Driver: "pigeon"}, nil)
	assert.Error(t, err)

	_, err = New(config.MailConfig{}, nil)
	assert.Error(t, err, "an unset driver must not fall back to the log notifier")
}

func TestLogNotifier_LogsMessage(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	err := n.Send(context.Background(), usecase.Message{To: "a@x.com", Subject: "s", Body: "b"})
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "a@x.com", entries[0].ContextMap()["to"])
	assert.Equal(t, "b", entries[0].ContextMap()["body"])
}

func TestSMTPNotifier_RejectsBadRecipient(t *testing.T) {
	n := NewSMTPNotifier(config.MailConfig{Host: "localhost", Port: 25, From: "noreply@x.com"}, nil)

	err := n.Send(context.Background(), usecase.Message{To: "", Subject: "s", Body: "b"})
	assert.Error(t, err)
}
