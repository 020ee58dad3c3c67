package fanout

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/atcloud/message-center/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockMessageStore struct{ mock.Mock }

func (m *mockMessageStore) Put(ctx context.Context, msg *domain.Message) error {
	return m.Called(ctx, msg).Error(0)
}
func (m *mockMessageStore) Get(ctx context.Context, messageID string) (*domain.Message, error) {
	args := m.Called(ctx, messageID)
	if msg, _ := args.Get(0).(*domain.Message); msg != nil {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockMessageStore) AppendRecipients(ctx context.Context, messageID string, recipientIDs []string) error {
	return m.Called(ctx, messageID, recipientIDs).Error(0)
}
func (m *mockMessageStore) SetActive(ctx context.Context, messageID string, active bool) error {
	return m.Called(ctx, messageID, active).Error(0)
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) ListActive(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

type recorderGateway struct {
	mu   sync.Mutex
	err  error
	sent map[string][]string // recipient -> events
}

func newRecorderGateway() *recorderGateway {
	return &recorderGateway{sent: make(map[string][]string)}
}

func (g *recorderGateway) Emit(_ context.Context, recipientID, event string, _ interface{}) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent[recipientID] = append(g.sent[recipientID], event)
	return g.err
}

func (g *recorderGateway) recipients() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.sent))
	for rid := range g.sent {
		out = append(out, rid)
	}
	sort.Strings(out)
	return out
}

func validRequest() domain.CreateMessageRequest {
	return domain.CreateMessageRequest{
		Title:    "deployment tonight",
		Content:  "expect a brief outage",
		Type:     domain.TypeMaintenance,
		Priority: domain.PriorityHigh,
	}
}

// --- tests ---

func TestBroadcast_SeedsExactlyTheExplicitAudience(t *testing.T) {
	msgs := new(mockMessageStore)
	gw := newRecorderGateway()
	svc := NewService(msgs, new(mockUserStore), gw)

	var stored *domain.Message
	msgs.On("Put", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*domain.Message)
	}).Return(nil)

	req := validRequest()
	req.Recipients = []string{"user-a", "user-b", "user-c", "user-b"} // dup collapses

	m, err := svc.Broadcast(context.Background(), "admin-1", req)
	require.NoError(t, err)

	require.NotNil(t, stored)
	assert.Equal(t, m.MessageID, stored.MessageID)
	assert.True(t, stored.IsActive)
	assert.Equal(t, "admin-1", stored.CreatorID)
	require.Len(t, stored.RecipientStates, 3)
	for _, rid := range []string{"user-a", "user-b", "user-c"} {
		st, ok := stored.RecipientStates[rid]
		require.True(t, ok, rid)
		assert.Equal(t, domain.RecipientState{}, st, "seeded state must be fresh unread")
	}
	// user-d never targeted: no entry, no push.
	_, ok := stored.RecipientStates["user-d"]
	assert.False(t, ok)

	assert.Eventually(t, func() bool {
		return len(gw.recipients()) == 3
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"user-a", "user-b", "user-c"}, gw.recipients())
}

func TestBroadcast_EmptyAudienceIsRejected(t *testing.T) {
	msgs := new(mockMessageStore)
	svc := NewService(msgs, new(mockUserStore), nil)

	req := validRequest()
	req.Recipients = nil

	_, err := svc.Broadcast(context.Background(), "admin-1", req)
	assert.ErrorIs(t, err, domain.ErrInvalidAudience)
	msgs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestBroadcast_AllActiveMinusExclusions(t *testing.T) {
	msgs := new(mockMessageStore)
	users := new(mockUserStore)
	svc := NewService(msgs, users, nil)

	users.On("ListActive", mock.Anything).Return([]domain.User{
		{UserID: "user-a"}, {UserID: "user-b"}, {UserID: "actor"},
	}, nil)

	var stored *domain.Message
	msgs.On("Put", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*domain.Message)
	}).Return(nil)

	req := validRequest()
	req.SendToAllActive = true
	req.ExcludeRecipients = []string{"actor"}

	_, err := svc.Broadcast(context.Background(), "actor", req)
	require.NoError(t, err)

	require.NotNil(t, stored)
	assert.Len(t, stored.RecipientStates, 2)
	_, actorSeeded := stored.RecipientStates["actor"]
	assert.False(t, actorSeeded, "the excluded actor must not be seeded")
}

func TestBroadcast_InvalidRequestIsBadRequest(t *testing.T) {
	svc := NewService(new(mockMessageStore), new(mockUserStore), nil)

	req := validRequest()
	req.Type = "chain-letter"
	req.Recipients = []string{"user-a"}

	_, err := svc.Broadcast(context.Background(), "admin-1", req)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestBroadcast_PushFailureDoesNotRollBack(t *testing.T) {
	msgs := new(mockMessageStore)
	gw := newRecorderGateway()
	gw.err = errors.New("gateway down")
	svc := NewService(msgs, new(mockUserStore), gw)

	msgs.On("Put", mock.Anything, mock.Anything).Return(nil)

	req := validRequest()
	req.Recipients = []string{"user-a"}

	m, err := svc.Broadcast(context.Background(), "admin-1", req)
	require.NoError(t, err, "persisted state is authoritative; push failures stay internal")
	assert.NotEmpty(t, m.MessageID)
}

func TestAppendRecipients_OnlySeedsAndNotifiesNewOnes(t *testing.T) {
	msgs := new(mockMessageStore)
	gw := newRecorderGateway()
	svc := NewService(msgs, new(mockUserStore), gw)

	existing := &domain.Message{
		MessageID:       "m1",
		Title:           "old broadcast",
		Priority:        domain.PriorityLow,
		IsActive:        true,
		RecipientStates: map[string]domain.RecipientState{"user-a": {IsReadInBell: true}},
	}
	msgs.On("Get", mock.Anything, "m1").Return(existing, nil)
	msgs.On("AppendRecipients", mock.Anything, "m1", []string{"user-b"}).Return(nil)

	added, err := svc.AppendRecipients(context.Background(), "m1", []string{"user-a", "user-b"})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	assert.Eventually(t, func() bool {
		return len(gw.recipients()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"user-b"}, gw.recipients())
	msgs.AssertExpectations(t)
}

func TestAppendRecipients_AllPresentIsNoop(t *testing.T) {
	msgs := new(mockMessageStore)
	svc := NewService(msgs, new(mockUserStore), nil)

	existing := &domain.Message{
		MessageID:       "m1",
		RecipientStates: map[string]domain.RecipientState{"user-a": {}},
	}
	msgs.On("Get", mock.Anything, "m1").Return(existing, nil)

	added, err := svc.AppendRecipients(context.Background(), "m1", []string{"user-a"})
	require.NoError(t, err)
	assert.Zero(t, added)
	msgs.AssertNotCalled(t, "AppendRecipients", mock.Anything, mock.Anything, mock.Anything)
}

func TestAppendRecipients_UnknownMessage(t *testing.T) {
	msgs := new(mockMessageStore)
	svc := NewService(msgs, new(mockUserStore), nil)

	msgs.On("Get", mock.Anything, "missing").Return(nil, domain.ErrNotFound)

	_, err := svc.AppendRecipients(context.Background(), "missing", []string{"user-a"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeactivate_FlipsGlobalToggle(t *testing.T) {
	msgs := new(mockMessageStore)
	svc := NewService(msgs, new(mockUserStore), nil)

	msgs.On("SetActive", mock.Anything, "m1", false).Return(nil)

	require.NoError(t, svc.Deactivate(context.Background(), "m1"))
	msgs.AssertExpectations(t)
}
