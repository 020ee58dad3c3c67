package fanout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/atcloud/message-center/internal/application/push"
	"github.com/atcloud/message-center/internal/domain"
	"github.com/atcloud/message-center/internal/pkg/id"
	"github.com/atcloud/message-center/internal/pkg/metrics"
	"github.com/atcloud/message-center/internal/pkg/retry"
	"github.com/atcloud/message-center/internal/pkg/validate"
)

// Service creates broadcast messages and fans knowledge of them out to the
// resolved audience. It is the only writer of shared message fields besides
// the admin deactivation path.
type Service interface {
	Broadcast(ctx context.Context, creatorID string, req domain.CreateMessageRequest) (*domain.Message, error)
	AppendRecipients(ctx context.Context, messageID string, recipientIDs []string) (int, error)
	Deactivate(ctx context.Context, messageID string) error
}

type messageStore interface {
	Put(ctx context.Context, m *domain.Message) error
	Get(ctx context.Context, messageID string) (*domain.Message, error)
	AppendRecipients(ctx context.Context, messageID string, recipientIDs []string) error
	SetActive(ctx context.Context, messageID string, active bool) error
}

type userStore interface {
	ListActive(ctx context.Context) ([]domain.User, error)
}

type service struct {
	messages messageStore
	users    userStore
	gateway  push.Gateway
}

func NewService(messages messageStore, users userStore, gateway push.Gateway) Service {
	return &service{messages: messages, users: users, gateway: gateway}
}

// Broadcast resolves the audience, persists the message with one seeded
// unread state per recipient, and dispatches the push events. Recipients
// created after this moment never gain an entry unless explicitly appended.
//
// "Do not notify the actor of their own action" is the caller's job: pass
// the actor in ExcludeRecipients. It is never inferred here.
func (s *service) Broadcast(ctx context.Context, creatorID string, req domain.CreateMessageRequest) (*domain.Message, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}

	audience, err := s.resolveAudience(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(audience) == 0 {
		return nil, fmt.Errorf("resolved audience is empty: %w", domain.ErrInvalidAudience)
	}

	now := time.Now().UTC()
	m := &domain.Message{
		MessageID:       id.New(),
		Title:           req.Title,
		Content:         req.Content,
		Type:            req.Type,
		Priority:        req.Priority,
		CreatorID:       creatorID,
		IsActive:        true,
		RecipientStates: make(map[string]domain.RecipientState, len(audience)),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, rid := range audience {
		m.RecipientStates[rid] = domain.RecipientState{}
	}

	if err := retry.Once(ctx, func(ctx context.Context) error {
		return s.messages.Put(ctx, m)
	}); err != nil {
		return nil, err
	}

	metrics.BroadcastsTotal.Inc()
	metrics.BroadcastAudienceSize.Observe(float64(len(audience)))

	// Push delivery is fire-and-forget relative to this request: the
	// persisted record is authoritative and a client that misses the push
	// recovers correct state on its next list call.
	go s.notifyAdded(m, audience)

	return m, nil
}

// AppendRecipients seeds state for recipients not yet on the message and
// pushes the added event to exactly those. Existing entries are untouched.
// Returns how many recipients were actually new.
func (s *service) AppendRecipients(ctx context.Context, messageID string, recipientIDs []string) (int, error) {
	m, err := s.messages.Get(ctx, messageID)
	if err != nil {
		return 0, err
	}

	fresh := make([]string, 0, len(recipientIDs))
	for _, rid := range dedupe(recipientIDs) {
		if _, ok := m.RecipientStates[rid]; !ok {
			fresh = append(fresh, rid)
		}
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	if err := retry.Once(ctx, func(ctx context.Context) error {
		return s.messages.AppendRecipients(ctx, messageID, fresh)
	}); err != nil {
		return 0, err
	}

	go s.notifyAdded(m, fresh)
	return len(fresh), nil
}

// Deactivate hides the message from every recipient at once without
// touching individual recipient entries.
func (s *service) Deactivate(ctx context.Context, messageID string) error {
	return retry.Once(ctx, func(ctx context.Context) error {
		return s.messages.SetActive(ctx, messageID, false)
	})
}

// resolveAudience turns the request's audience intent into a finite, unique
// recipient id list before any state is written.
func (s *service) resolveAudience(ctx context.Context, req domain.CreateMessageRequest) ([]string, error) {
	if !req.SendToAllActive {
		return dedupe(req.Recipients), nil
	}

	users, err := s.users.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	excluded := make(map[string]struct{}, len(req.ExcludeRecipients))
	for _, rid := range req.ExcludeRecipients {
		excluded[rid] = struct{}{}
	}
	audience := make([]string, 0, len(users))
	for _, u := range users {
		if _, skip := excluded[u.UserID]; skip {
			continue
		}
		audience = append(audience, u.UserID)
	}
	return audience, nil
}

func (s *service) notifyAdded(m *domain.Message, recipients []string) {
	if s.gateway == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	payload := push.AddedPayload{
		MessageID: m.MessageID,
		Title:     m.Title,
		Priority:  string(m.Priority),
	}
	for _, rid := range recipients {
		if err := s.gateway.Emit(ctx, rid, push.EventAdded, payload); err != nil {
			metrics.PushEventsTotal.WithLabelValues(push.EventAdded, "error").Inc()
			slog.Warn("fanout: push emit failed", "message", m.MessageID, "recipient", rid, "err", err)
			continue
		}
		metrics.PushEventsTotal.WithLabelValues(push.EventAdded, "ok").Inc()
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
