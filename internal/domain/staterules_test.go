package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage(recipients ...string) *Message {
	states := make(map[string]RecipientState, len(recipients))
	for _, rid := range recipients {
		states[rid] = RecipientState{}
	}
	return &Message{
		MessageID:       "01JTESTMSG",
		Title:           "planned maintenance",
		Content:         "the platform will be offline briefly",
		Type:            TypeMaintenance,
		Priority:        PriorityHigh,
		IsActive:        true,
		RecipientStates: states,
		CreatedAt:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestStateFor_AbsentRecipient(t *testing.T) {
	m := testMessage("user-a")
	_, ok := m.StateFor("user-b")
	assert.False(t, ok)
}

func TestVisibility_AbsentRecipientNeverVisible(t *testing.T) {
	m := testMessage("user-a")
	// user-b joined after the broadcast: no entry, no fallback.
	assert.False(t, m.VisibleInBell("user-b"))
	assert.False(t, m.VisibleInSystem("user-b"))
}

func TestVisibility_TargetedRecipientSeesBothSurfaces(t *testing.T) {
	m := testMessage("user-a")
	assert.True(t, m.VisibleInBell("user-a"))
	assert.True(t, m.VisibleInSystem("user-a"))
}

func TestVisibility_InactiveHidesFromEveryone(t *testing.T) {
	m := testMessage("user-a", "user-b")
	st := m.RecipientStates["user-a"]
	st.IsReadInBell = true
	m.RecipientStates["user-a"] = st

	m.IsActive = false
	for _, rid := range []string{"user-a", "user-b"} {
		assert.False(t, m.VisibleInBell(rid), rid)
		assert.False(t, m.VisibleInSystem(rid), rid)
	}
}

func TestVisibility_SurfacesAreIndependent(t *testing.T) {
	m := testMessage("user-a")
	st := m.RecipientStates["user-a"]
	st.IsReadInBell = true
	st.IsRemovedFromBell = true
	m.RecipientStates["user-a"] = st

	assert.False(t, m.VisibleInBell("user-a"))
	assert.True(t, m.VisibleInSystem("user-a"))

	st.IsDeletedFromSystem = true
	st.IsRemovedFromBell = false
	m.RecipientStates["user-a"] = st

	assert.True(t, m.VisibleInBell("user-a"))
	assert.False(t, m.VisibleInSystem("user-a"))
}

func TestBellRead_SetsOnlyBellFields(t *testing.T) {
	m := testMessage("user-a")
	now := time.Now().UTC()

	updates, err := BellRead(m, "user-a", now)
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{
		FieldReadInBell:        true,
		FieldReadInBellAt:      now,
		FieldLastInteractionAt: now,
	}, updates)
	// No system-surface field may appear.
	assert.NotContains(t, updates, FieldReadInSystem)
	assert.NotContains(t, updates, FieldDeletedFromSystem)
}

func TestBellRead_AbsentRecipient(t *testing.T) {
	m := testMessage("user-a")
	_, err := BellRead(m, "user-b", time.Now())
	assert.ErrorIs(t, err, ErrNotEligible)
}

func TestBellRead_Idempotent(t *testing.T) {
	m := testMessage("user-a")
	now := time.Now().UTC()

	first, err := BellRead(m, "user-a", now)
	require.NoError(t, err)

	st := m.RecipientStates["user-a"]
	st.IsReadInBell = true
	m.RecipientStates["user-a"] = st

	second, err := BellRead(m, "user-a", now)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBellRemove_UnreadIsConflict(t *testing.T) {
	m := testMessage("user-a")
	_, err := BellRemove(m, "user-a", time.Now())
	assert.ErrorIs(t, err, ErrConflict)
}

func TestBellRemove_AfterRead(t *testing.T) {
	m := testMessage("user-a")
	st := m.RecipientStates["user-a"]
	st.IsReadInBell = true
	m.RecipientStates["user-a"] = st

	now := time.Now().UTC()
	updates, err := BellRemove(m, "user-a", now)
	require.NoError(t, err)
	assert.Equal(t, true, updates[FieldRemovedFromBell])
	assert.Equal(t, now, updates[FieldLastInteractionAt])
	assert.NotContains(t, updates, FieldDeletedFromSystem)
}

func TestBellRemove_AbsentRecipient(t *testing.T) {
	m := testMessage("user-a")
	_, err := BellRemove(m, "user-b", time.Now())
	assert.ErrorIs(t, err, ErrNotEligible)
}

func TestSystemRead_SetsOnlySystemFields(t *testing.T) {
	m := testMessage("user-a")
	now := time.Now().UTC()

	updates, err := SystemRead(m, "user-a", now)
	require.NoError(t, err)
	assert.Equal(t, true, updates[FieldReadInSystem])
	assert.Equal(t, now, updates[FieldReadInSystemAt])
	assert.NotContains(t, updates, FieldReadInBell)
}

// System delete must work while unread — the bell surface's read-first gate
// deliberately does not exist here.
func TestSystemDelete_UnreadIsAllowed(t *testing.T) {
	m := testMessage("user-a")
	now := time.Now().UTC()

	updates, err := SystemDelete(m, "user-a", now)
	require.NoError(t, err)
	assert.Equal(t, true, updates[FieldDeletedFromSystem])
	assert.NotContains(t, updates, FieldRemovedFromBell)
}

func TestSystemDelete_AbsentRecipient(t *testing.T) {
	m := testMessage("user-a")
	_, err := SystemDelete(m, "user-b", time.Now())
	assert.ErrorIs(t, err, ErrNotEligible)
}
