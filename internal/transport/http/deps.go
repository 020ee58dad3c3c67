package http

import (
	"context"

	"github.com/atcloud/message-center/internal/domain"
)

// MessageRepository is the minimal interface the router requires from the
// message store.
type MessageRepository interface {
	Put(ctx context.Context, m *domain.Message) error
	Get(ctx context.Context, messageID string) (*domain.Message, error)
	HasRecipient(ctx context.Context, messageID, recipientID string) (bool, error)
	ListForRecipient(ctx context.Context, recipientID string) ([]domain.Message, error)
	UpdateRecipientState(ctx context.Context, messageID, recipientID string, updates map[string]interface{}) error
	AppendRecipients(ctx context.Context, messageID string, recipientIDs []string) error
	SetActive(ctx context.Context, messageID string, active bool) error
}

// UserRepository is the minimal interface the audience resolver requires
// from the user store.
type UserRepository interface {
	ListActive(ctx context.Context) ([]domain.User, error)
}
