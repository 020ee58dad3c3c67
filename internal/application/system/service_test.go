package system

import (
	"context"
	"testing"
	"time"

	"github.com/atcloud/message-center/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockMessageStore struct{ mock.Mock }

func (m *mockMessageStore) Get(ctx context.Context, messageID string) (*domain.Message, error) {
	args := m.Called(ctx, messageID)
	if msg, _ := args.Get(0).(*domain.Message); msg != nil {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockMessageStore) HasRecipient(ctx context.Context, messageID, recipientID string) (bool, error) {
	args := m.Called(ctx, messageID, recipientID)
	return args.Bool(0), args.Error(1)
}
func (m *mockMessageStore) ListForRecipient(ctx context.Context, recipientID string) ([]domain.Message, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).([]domain.Message), args.Error(1)
}
func (m *mockMessageStore) UpdateRecipientState(ctx context.Context, messageID, recipientID string, updates map[string]interface{}) error {
	return m.Called(ctx, messageID, recipientID, updates).Error(0)
}

// --- helpers ---

func inboxMessage(id string, createdAt time.Time, states map[string]domain.RecipientState) domain.Message {
	return domain.Message{
		MessageID:       id,
		Title:           "title " + id,
		Content:         "content " + id,
		Type:            domain.TypeUpdate,
		Priority:        domain.PriorityLow,
		IsActive:        true,
		RecipientStates: states,
		CreatedAt:       createdAt,
	}
}

// --- tests ---

func TestList_ExcludesDeletedIncludesContent(t *testing.T) {
	repo := new(mockMessageStore)
	svc := NewService(repo, nil)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	visible := inboxMessage("m1", base, map[string]domain.RecipientState{"user-a": {}})
	deleted := inboxMessage("m2", base.Add(time.Hour), map[string]domain.RecipientState{"user-a": {IsDeletedFromSystem: true}})

	repo.On("ListForRecipient", mock.Anything, "user-a").
		Return([]domain.Message{visible, deleted}, nil)

	entries, unread, err := svc.List(context.Background(), "user-a")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "m1", entries[0].MessageID)
	assert.Equal(t, "content m1", entries[0].Content)
	assert.Equal(t, 1, unread)
}

// A message removed from the bell stays in the inbox: the surfaces do not
// interfere.
func TestList_BellRemovalLeavesInboxVisible(t *testing.T) {
	repo := new(mockMessageStore)
	svc := NewService(repo, nil)

	m := inboxMessage("m1", time.Now(), map[string]domain.RecipientState{
		"user-a": {IsReadInBell: true, IsRemovedFromBell: true},
	})
	repo.On("ListForRecipient", mock.Anything, "user-a").Return([]domain.Message{m}, nil)

	entries, _, err := svc.List(context.Background(), "user-a")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "m1", entries[0].MessageID)
}

func TestMarkRead_AppliesTargetedUpdate(t *testing.T) {
	repo := new(mockMessageStore)
	svc := NewService(repo, nil)

	m := inboxMessage("m1", time.Now(), map[string]domain.RecipientState{"user-a": {}})
	repo.On("Get", mock.Anything, "m1").Return(&m, nil)
	repo.On("UpdateRecipientState", mock.Anything, "m1", "user-a", mock.MatchedBy(func(u map[string]interface{}) bool {
		return u[domain.FieldReadInSystem] == true
	})).Return(nil)

	require.NoError(t, svc.MarkRead(context.Background(), "user-a", "m1"))
	repo.AssertExpectations(t)
}

// Deleting an unread inbox message must succeed: the bell surface's
// read-first gate is intentionally absent here.
func TestDelete_UnreadIsAllowed(t *testing.T) {
	repo := new(mockMessageStore)
	svc := NewService(repo, nil)

	repo.On("HasRecipient", mock.Anything, "m1", "user-a").Return(true, nil)
	repo.On("UpdateRecipientState", mock.Anything, "m1", "user-a", mock.MatchedBy(func(u map[string]interface{}) bool {
		return u[domain.FieldDeletedFromSystem] == true
	})).Return(nil)

	require.NoError(t, svc.Delete(context.Background(), "user-a", "m1"))
	repo.AssertExpectations(t)
}

func TestDelete_AbsentRecipientIsNotEligible(t *testing.T) {
	repo := new(mockMessageStore)
	svc := NewService(repo, nil)

	repo.On("HasRecipient", mock.Anything, "m1", "user-b").Return(false, nil)

	err := svc.Delete(context.Background(), "user-b", "m1")
	assert.ErrorIs(t, err, domain.ErrNotEligible)
	repo.AssertNotCalled(t, "UpdateRecipientState", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDelete_UnknownMessage(t *testing.T) {
	repo := new(mockMessageStore)
	svc := NewService(repo, nil)

	repo.On("HasRecipient", mock.Anything, "missing", "user-a").Return(false, domain.ErrNotFound)

	err := svc.Delete(context.Background(), "user-a", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMarkAllRead_SkipsAlreadyRead(t *testing.T) {
	repo := new(mockMessageStore)
	svc := NewService(repo, nil)

	msgs := []domain.Message{
		inboxMessage("m1", time.Now(), map[string]domain.RecipientState{"user-a": {}}),
		inboxMessage("m2", time.Now(), map[string]domain.RecipientState{"user-a": {IsReadInSystem: true}}),
	}
	repo.On("ListForRecipient", mock.Anything, "user-a").Return(msgs, nil)
	repo.On("UpdateRecipientState", mock.Anything, "m1", "user-a", mock.Anything).Return(nil).Once()

	marked, err := svc.MarkAllRead(context.Background(), "user-a")
	require.NoError(t, err)
	assert.Equal(t, 1, marked)
	repo.AssertExpectations(t)
}

func TestDeleteAll_DeletesUnreadToo(t *testing.T) {
	repo := new(mockMessageStore)
	svc := NewService(repo, nil)

	msgs := []domain.Message{
		inboxMessage("m1", time.Now(), map[string]domain.RecipientState{"user-a": {}}),
		inboxMessage("m2", time.Now(), map[string]domain.RecipientState{"user-a": {IsReadInSystem: true}}),
		inboxMessage("m3", time.Now(), map[string]domain.RecipientState{"user-a": {IsDeletedFromSystem: true}}),
	}
	repo.On("ListForRecipient", mock.Anything, "user-a").Return(msgs, nil)
	repo.On("UpdateRecipientState", mock.Anything, "m1", "user-a", mock.Anything).Return(nil).Once()
	repo.On("UpdateRecipientState", mock.Anything, "m2", "user-a", mock.Anything).Return(nil).Once()

	deleted, err := svc.DeleteAll(context.Background(), "user-a")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	repo.AssertExpectations(t)
}

func TestDeleteAll_SecondCallReturnsZero(t *testing.T) {
	repo := new(mockMessageStore)
	svc := NewService(repo, nil)

	msgs := []domain.Message{
		inboxMessage("m1", time.Now(), map[string]domain.RecipientState{"user-a": {IsDeletedFromSystem: true}}),
	}
	repo.On("ListForRecipient", mock.Anything, "user-a").Return(msgs, nil)

	deleted, err := svc.DeleteAll(context.Background(), "user-a")
	require.NoError(t, err)
	assert.Zero(t, deleted)
	repo.AssertNotCalled(t, "UpdateRecipientState", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
