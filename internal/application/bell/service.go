package bell

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/atcloud/message-center/internal/application/push"
	"github.com/atcloud/message-center/internal/domain"
	"github.com/atcloud/message-center/internal/pkg/metrics"
	"github.com/atcloud/message-center/internal/pkg/retry"
)

// Service is the bell surface: the transient dropdown alert feed. Every
// operation is scoped to the calling recipient's own entries.
type Service interface {
	List(ctx context.Context, recipientID string) ([]domain.SurfaceEntry, int, error)
	MarkRead(ctx context.Context, recipientID, messageID string) error
	MarkAllRead(ctx context.Context, recipientID string) (int, error)
	Remove(ctx context.Context, recipientID, messageID string) error
}

type messageStore interface {
	Get(ctx context.Context, messageID string) (*domain.Message, error)
	ListForRecipient(ctx context.Context, recipientID string) ([]domain.Message, error)
	UpdateRecipientState(ctx context.Context, messageID, recipientID string, updates map[string]interface{}) error
}

type service struct {
	repo    messageStore
	gateway push.Gateway
}

func NewService(repo messageStore, gateway push.Gateway) Service {
	return &service{repo: repo, gateway: gateway}
}

// List returns the recipient's visible bell entries, newest first, plus the
// unread count. The remove button is only offered once an entry is read.
func (s *service) List(ctx context.Context, recipientID string) ([]domain.SurfaceEntry, int, error) {
	messages, err := s.repo.ListForRecipient(ctx, recipientID)
	if err != nil {
		return nil, 0, err
	}

	entries := make([]domain.SurfaceEntry, 0, len(messages))
	unread := 0
	for i := range messages {
		m := &messages[i]
		if !m.VisibleInBell(recipientID) {
			continue
		}
		st, _ := m.StateFor(recipientID)
		if !st.IsReadInBell {
			unread++
		}
		entries = append(entries, domain.SurfaceEntry{
			MessageID:        m.MessageID,
			Title:            m.Title,
			Type:             m.Type,
			Priority:         m.Priority,
			IsRead:           st.IsReadInBell,
			CreatedAt:        m.CreatedAt,
			ShowRemoveButton: st.IsReadInBell,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, unread, nil
}

func (s *service) MarkRead(ctx context.Context, recipientID, messageID string) error {
	m, err := s.repo.Get(ctx, messageID)
	if err != nil {
		return err
	}
	updates, err := domain.BellRead(m, recipientID, time.Now().UTC())
	if err != nil {
		return err
	}
	if err := retry.Once(ctx, func(ctx context.Context) error {
		return s.repo.UpdateRecipientState(ctx, messageID, recipientID, updates)
	}); err != nil {
		return err
	}
	metrics.SurfaceMutationsTotal.WithLabelValues("bell", "read").Inc()
	s.notifyUpdated(recipientID, messageID)
	return nil
}

// MarkAllRead applies the single-item read transition to every message that
// is currently visible and unread for this recipient, and returns how many
// were mutated. It touches no other recipient's entries, and a second
// immediate call returns 0.
func (s *service) MarkAllRead(ctx context.Context, recipientID string) (int, error) {
	messages, err := s.repo.ListForRecipient(ctx, recipientID)
	if err != nil {
		return 0, err
	}
	marked := 0
	now := time.Now().UTC()
	for i := range messages {
		m := &messages[i]
		if !m.VisibleInBell(recipientID) {
			continue
		}
		st, _ := m.StateFor(recipientID)
		if st.IsReadInBell {
			continue
		}
		updates, err := domain.BellRead(m, recipientID, now)
		if err != nil {
			// Entry disappeared since the list read; skip it.
			continue
		}
		if err := retry.Once(ctx, func(ctx context.Context) error {
			return s.repo.UpdateRecipientState(ctx, m.MessageID, recipientID, updates)
		}); err != nil {
			return marked, err
		}
		marked++
		metrics.SurfaceMutationsTotal.WithLabelValues("bell", "read").Inc()
	}
	if marked > 0 {
		s.notifyUpdated(recipientID, "")
	}
	return marked, nil
}

// Remove hides the message from the recipient's bell feed permanently.
// Unread entries cannot be removed; the handler surfaces that as 409.
func (s *service) Remove(ctx context.Context, recipientID, messageID string) error {
	m, err := s.repo.Get(ctx, messageID)
	if err != nil {
		return err
	}
	updates, err := domain.BellRemove(m, recipientID, time.Now().UTC())
	if err != nil {
		return err
	}
	if err := retry.Once(ctx, func(ctx context.Context) error {
		return s.repo.UpdateRecipientState(ctx, messageID, recipientID, updates)
	}); err != nil {
		return err
	}
	metrics.SurfaceMutationsTotal.WithLabelValues("bell", "remove").Inc()
	s.notifyUpdated(recipientID, messageID)
	return nil
}

// notifyUpdated tells the recipient's other clients to refresh their badge.
// Failures are logged and never surfaced; persisted state is authoritative.
func (s *service) notifyUpdated(recipientID, messageID string) {
	if s.gateway == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := s.gateway.Emit(ctx, recipientID, push.EventUpdated, push.UpdatedPayload{
		MessageID: messageID,
		Surface:   "bell",
	})
	if err != nil {
		metrics.PushEventsTotal.WithLabelValues(push.EventUpdated, "error").Inc()
		slog.Warn("bell: push emit failed", "recipient", recipientID, "err", err)
		return
	}
	metrics.PushEventsTotal.WithLabelValues(push.EventUpdated, "ok").Inc()
}
