package system

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/atcloud/message-center/internal/application/push"
	"github.com/atcloud/message-center/internal/domain"
	"github.com/atcloud/message-center/internal/pkg/metrics"
	"github.com/atcloud/message-center/internal/pkg/retry"
)

// Service is the system surface: the persistent message inbox. It mirrors
// the bell surface with one intentional difference — delete has no
// "must be read first" gate.
type Service interface {
	List(ctx context.Context, recipientID string) ([]domain.SurfaceEntry, int, error)
	MarkRead(ctx context.Context, recipientID, messageID string) error
	MarkAllRead(ctx context.Context, recipientID string) (int, error)
	Delete(ctx context.Context, recipientID, messageID string) error
	DeleteAll(ctx context.Context, recipientID string) (int, error)
}

type messageStore interface {
	Get(ctx context.Context, messageID string) (*domain.Message, error)
	HasRecipient(ctx context.Context, messageID, recipientID string) (bool, error)
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

// List returns the recipient's visible inbox entries, newest first, plus
// the unread count. Content is included here: the inbox renders the full
// message body, unlike the bell dropdown.
func (s *service) List(ctx context.Context, recipientID string) ([]domain.SurfaceEntry, int, error) {
	messages, err := s.repo.ListForRecipient(ctx, recipientID)
	if err != nil {
		return nil, 0, err
	}

	entries := make([]domain.SurfaceEntry, 0, len(messages))
	unread := 0
	for i := range messages {
		m := &messages[i]
		if !m.VisibleInSystem(recipientID) {
			continue
		}
		st, _ := m.StateFor(recipientID)
		if !st.IsReadInSystem {
			unread++
		}
		entries = append(entries, domain.SurfaceEntry{
			MessageID: m.MessageID,
			Title:     m.Title,
			Content:   m.Content,
			Type:      m.Type,
			Priority:  m.Priority,
			IsRead:    st.IsReadInSystem,
			CreatedAt: m.CreatedAt,
			// Deletion is always offered on this surface.
			ShowRemoveButton: true,
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
	updates, err := domain.SystemRead(m, recipientID, time.Now().UTC())
	if err != nil {
		return err
	}
	if err := retry.Once(ctx, func(ctx context.Context) error {
		return s.repo.UpdateRecipientState(ctx, messageID, recipientID, updates)
	}); err != nil {
		return err
	}
	metrics.SurfaceMutationsTotal.WithLabelValues("system", "read").Inc()
	s.notifyUpdated(recipientID, messageID)
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, recipientID string) (int, error) {
	return s.bulk(ctx, recipientID, "read", func(m *domain.Message, now time.Time) (map[string]interface{}, bool) {
		st, _ := m.StateFor(recipientID)
		if st.IsReadInSystem {
			return nil, false
		}
		updates, err := domain.SystemRead(m, recipientID, now)
		return updates, err == nil
	})
}

// Delete hides the message from the recipient's inbox permanently. Unread
// messages may be deleted — this asymmetry with the bell surface is
// intentional product behavior. Since no current-state check applies, a
// projection existence check stands in for a full read.
func (s *service) Delete(ctx context.Context, recipientID, messageID string) error {
	ok, err := s.repo.HasRecipient(ctx, messageID, recipientID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("recipient %s has no entry on message %s: %w", recipientID, messageID, domain.ErrNotEligible)
	}
	updates := domain.SystemDeleteFields(time.Now().UTC())
	if err := retry.Once(ctx, func(ctx context.Context) error {
		return s.repo.UpdateRecipientState(ctx, messageID, recipientID, updates)
	}); err != nil {
		return err
	}
	metrics.SurfaceMutationsTotal.WithLabelValues("system", "delete").Inc()
	s.notifyUpdated(recipientID, messageID)
	return nil
}

func (s *service) DeleteAll(ctx context.Context, recipientID string) (int, error) {
	return s.bulk(ctx, recipientID, "delete", func(m *domain.Message, now time.Time) (map[string]interface{}, bool) {
		updates, err := domain.SystemDelete(m, recipientID, now)
		return updates, err == nil
	})
}

// bulk applies a single-item transition to every message currently visible
// to the recipient on this surface, one targeted write per message, and
// returns the count mutated. Other recipients' entries are never touched.
func (s *service) bulk(ctx context.Context, recipientID, op string, transition func(m *domain.Message, now time.Time) (map[string]interface{}, bool)) (int, error) {
	messages, err := s.repo.ListForRecipient(ctx, recipientID)
	if err != nil {
		return 0, err
	}
	mutated := 0
	now := time.Now().UTC()
	for i := range messages {
		m := &messages[i]
		if !m.VisibleInSystem(recipientID) {
			continue
		}
		updates, ok := transition(m, now)
		if !ok {
			continue
		}
		if err := retry.Once(ctx, func(ctx context.Context) error {
			return s.repo.UpdateRecipientState(ctx, m.MessageID, recipientID, updates)
		}); err != nil {
			return mutated, err
		}
		mutated++
		metrics.SurfaceMutationsTotal.WithLabelValues("system", op).Inc()
	}
	if mutated > 0 {
		s.notifyUpdated(recipientID, "")
	}
	return mutated, nil
}

func (s *service) notifyUpdated(recipientID, messageID string) {
	if s.gateway == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := s.gateway.Emit(ctx, recipientID, push.EventUpdated, push.UpdatedPayload{
		MessageID: messageID,
		Surface:   "system",
	})
	if err != nil {
		metrics.PushEventsTotal.WithLabelValues(push.EventUpdated, "error").Inc()
		slog.Warn("system: push emit failed", "recipient", recipientID, "err", err)
		return
	}
	metrics.PushEventsTotal.WithLabelValues(push.EventUpdated, "ok").Inc()
}
