package lark

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sentMessage struct {
	idType string
	id     string
	text   string
}

type mockSender struct {
	sent []sentMessage
	err  error
}

func (m *mockSender) SendText(ctx context.Context, receiveIDType, receiveID, text string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.sent = append(m.sent, sentMessage{receiveIDType, receiveID, text})
	return "om_1", nil
}

func TestNotifier_NotifyUser(t *testing.T) {
	sender := &mockSender{}
	n := newNotifier(sender, Config{UserIDType: "email"}, zap.NewNop())

	require.NoError(t, n.NotifyUser(context.Background(), "anna@example.com", "Trip approved"))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, sentMessage{"email", "anna@example.com", "Trip approved"}, sender.sent[0])
}

func TestNotifier_NotifyApprovers(t *testing.T) {
	sender := &mockSender{}
	n := newNotifier(sender, Config{ApproverChatID: "oc_123"}, zap.NewNop())

	require.NoError(t, n.NotifyApprovers(context.Background(), "New trip to Berlin"))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "chat_id", sender.sent[0].idType)
	assert.Equal(t, "oc_123", sender.sent[0].id)
	assert.Equal(t, "user_id", n.userIDType, "default id type")
}

func TestNotifier_NoApproverChat(t *testing.T) {
	sender := &mockSender{}
	n := newNotifier(sender, Config{}, zap.NewNop())

	require.NoError(t, n.NotifyApprovers(context.Background(), "dropped"))
	assert.Empty(t, sender.sent)
}

func TestNotifier_SendError(t *testing.T) {
	boom := errors.New("API error: code=230001")
	n := newNotifier(&mockSender{err: boom}, Config{}, zap.NewNop())

	assert.ErrorIs(t, n.NotifyUser(context.Background(), "u1", "hi"), boom)
}

func TestMessenger_RejectsEmpty(t *testing.T) {
	m := NewMessenger(NewSDKClient(Config{AppID: "cli_x", AppSecret: "s"}, zap.NewNop()), zap.NewNop())

	_, err := m.SendText(context.Background(), "user_id", "", "hi")
	assert.Error(t, err)
	_, err = m.SendText(context.Background(), "user_id", "u1", "")
	assert.Error(t, err)
}
