package lark

import (
	"context"

	"github.com/garyjia/business-trip/internal/application/port"
	"go.uber.org/zap"
)

// textSender is the part of Messenger the notifier needs
type textSender interface {
	SendText(ctx context.Context, receiveIDType, receiveID, text string) (string, error)
}

// Notifier implements port.Notifier over Lark IM
type Notifier struct {
	sender         textSender
	userIDType     string
	approverChatID string
	logger         *zap.Logger
}

// NewNotifier creates a Lark-backed notifier
func NewNotifier(sdk *SDKClient, logger *zap.Logger) *Notifier {
	return newNotifier(NewMessenger(sdk, logger), sdk.cfg, logger)
}

func newNotifier(sender textSender, cfg Config, logger *zap.Logger) *Notifier {
	userIDType := cfg.UserIDType
	if userIDType == "" {
		userIDType = "user_id"
	}
	return &Notifier{
		sender:         sender,
		userIDType:     userIDType,
		approverChatID: cfg.ApproverChatID,
		logger:         logger,
	}
}

// NotifyUser messages one employee
func (n *Notifier) NotifyUser(ctx context.Context, userID string, text string) error {
	_, err := n.sender.SendText(ctx, n.userIDType, userID, text)
	return err
}

// NotifyApprovers posts to the approver chat. Without a configured chat the
// message is dropped with a warning.
func (n *Notifier) NotifyApprovers(ctx context.Context, text string) error {
	if n.approverChatID == "" {
		n.logger.Warn("No approver chat configured, dropping notification")
		return nil
	}
	_, err := n.sender.SendText(ctx, "chat_id", n.approverChatID, text)
	return err
}

// Verify interface compliance
var _ port.Notifier = (*Notifier)(nil)
