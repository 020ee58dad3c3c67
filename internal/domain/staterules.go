package domain

import "time"

// Attribute names of the RecipientState fields, matching the dynamodbav
// tags above. Transitions return updates keyed by these names so the store
// can translate them 1:1 into document paths inside recipient_states.
const (
	FieldReadInBell          = "is_read_in_bell"
	FieldRemovedFromBell     = "is_removed_from_bell"
	FieldReadInBellAt        = "read_in_bell_at"
	FieldRemovedFromBellAt   = "removed_from_bell_at"
	FieldReadInSystem        = "is_read_in_system"
	FieldDeletedFromSystem   = "is_deleted_from_system"
	FieldReadInSystemAt      = "read_in_system_at"
	FieldDeletedFromSystemAt = "deleted_from_system_at"
	FieldLastInteractionAt   = "last_interaction_at"
)

// StateFor returns the recipient's state entry and whether it exists.
// A missing entry means the recipient was never targeted; there is no
// default-visible fallback.
func (m *Message) StateFor(recipientID string) (RecipientState, bool) {
	st, ok := m.RecipientStates[recipientID]
	return st, ok
}

// VisibleInBell reports whether the recipient currently sees the message in
// the bell feed.
func (m *Message) VisibleInBell(recipientID string) bool {
	st, ok := m.StateFor(recipientID)
	return m.IsActive && ok && !st.IsRemovedFromBell
}

// VisibleInSystem reports whether the recipient currently sees the message
// in the system inbox.
func (m *Message) VisibleInSystem(recipientID string) bool {
	st, ok := m.StateFor(recipientID)
	return m.IsActive && ok && !st.IsDeletedFromSystem
}

// BellRead computes the field updates for marking the message read on the
// bell surface. Returns ErrNotEligible when the recipient has no entry.
// Reading an already-read message yields the same terminal flags, so the
// operation is idempotent.
func BellRead(m *Message, recipientID string, now time.Time) (map[string]interface{}, error) {
	if _, ok := m.StateFor(recipientID); !ok {
		return nil, ErrNotEligible
	}
	return map[string]interface{}{
		FieldReadInBell:        true,
		FieldReadInBellAt:      now,
		FieldLastInteractionAt: now,
	}, nil
}

// BellRemove computes the field updates for removing the message from the
// bell feed. Removal is only offered after reading: attempting it while the
// entry is still unread returns ErrConflict. Removed is terminal.
func BellRemove(m *Message, recipientID string, now time.Time) (map[string]interface{}, error) {
	st, ok := m.StateFor(recipientID)
	if !ok {
		return nil, ErrNotEligible
	}
	if !st.IsReadInBell {
		return nil, ErrConflict
	}
	return map[string]interface{}{
		FieldRemovedFromBell:   true,
		FieldRemovedFromBellAt: now,
		FieldLastInteractionAt: now,
	}, nil
}

// SystemRead computes the field updates for marking the message read in the
// system inbox.
func SystemRead(m *Message, recipientID string, now time.Time) (map[string]interface{}, error) {
	if _, ok := m.StateFor(recipientID); !ok {
		return nil, ErrNotEligible
	}
	return map[string]interface{}{
		FieldReadInSystem:      true,
		FieldReadInSystemAt:    now,
		FieldLastInteractionAt: now,
	}, nil
}

// SystemDelete computes the field updates for deleting the message from the
// system inbox. Unlike the bell surface there is no read-first gate: unread
// messages may be deleted. That asymmetry is intentional product behavior.
func SystemDelete(m *Message, recipientID string, now time.Time) (map[string]interface{}, error) {
	if _, ok := m.StateFor(recipientID); !ok {
		return nil, ErrNotEligible
	}
	return SystemDeleteFields(now), nil
}

// SystemDeleteFields is the field set SystemDelete persists. Callers that
// establish eligibility through the store's existence check instead of a
// full read use it directly; deletion needs no current-state inspection.
func SystemDeleteFields(now time.Time) map[string]interface{} {
	return map[string]interface{}{
		FieldDeletedFromSystem:   true,
		FieldDeletedFromSystemAt: now,
		FieldLastInteractionAt:   now,
	}
}
