package domain

import "time"

// MessageType categorises a broadcast message.
type MessageType string

const (
	TypeAnnouncement MessageType = "announcement"
	TypeMaintenance  MessageType = "maintenance"
	TypeUpdate       MessageType = "update"
	TypeWarning      MessageType = "warning"
)

// MessagePriority drives client-side ordering and styling.
type MessagePriority string

const (
	PriorityLow    MessagePriority = "low"
	PriorityMedium MessagePriority = "medium"
	PriorityHigh   MessagePriority = "high"
)

// Message is a single broadcast record shared by every recipient.
// Per-recipient read/removed tracking lives in RecipientStates, keyed by
// user id; the shared fields are written only at creation and by the
// admin deactivation path.
type Message struct {
	MessageID       string                    `json:"id" dynamodbav:"message_id"`
	Title           string                    `json:"title" dynamodbav:"title"`
	Content         string                    `json:"content" dynamodbav:"content"`
	Type            MessageType               `json:"type" dynamodbav:"message_type"`
	Priority        MessagePriority           `json:"priority" dynamodbav:"priority"`
	CreatorID       string                    `json:"creator_id" dynamodbav:"creator_id"`
	IsActive        bool                      `json:"is_active" dynamodbav:"is_active"`
	RecipientStates map[string]RecipientState `json:"-" dynamodbav:"recipient_states"`
	CreatedAt       time.Time                 `json:"created" dynamodbav:"created_at"`
	UpdatedAt       time.Time                 `json:"updated" dynamodbav:"updated_at"`
}

// RecipientState tracks one recipient's view of one message across the two
// display surfaces. The flags are always present; the timestamps are nil
// until the corresponding transition first happens. A recipient with no
// RecipientState entry at all was never targeted and must never see the
// message.
type RecipientState struct {
	IsReadInBell        bool       `json:"is_read_in_bell" dynamodbav:"is_read_in_bell"`
	IsRemovedFromBell   bool       `json:"is_removed_from_bell" dynamodbav:"is_removed_from_bell"`
	ReadInBellAt        *time.Time `json:"read_in_bell_at,omitempty" dynamodbav:"read_in_bell_at"`
	RemovedFromBellAt   *time.Time `json:"removed_from_bell_at,omitempty" dynamodbav:"removed_from_bell_at"`
	IsReadInSystem      bool       `json:"is_read_in_system" dynamodbav:"is_read_in_system"`
	IsDeletedFromSystem bool       `json:"is_deleted_from_system" dynamodbav:"is_deleted_from_system"`
	ReadInSystemAt      *time.Time `json:"read_in_system_at,omitempty" dynamodbav:"read_in_system_at"`
	DeletedFromSystemAt *time.Time `json:"deleted_from_system_at,omitempty" dynamodbav:"deleted_from_system_at"`
	LastInteractionAt   *time.Time `json:"last_interaction_at,omitempty" dynamodbav:"last_interaction_at"`
}

// CreateMessageRequest is the admin broadcast payload. Exactly one audience
// mode applies: an explicit Recipients list, or SendToAllActive with an
// optional ExcludeRecipients list ("do not notify the actor" is always an
// explicit exclusion supplied by the caller, never inferred here).
type CreateMessageRequest struct {
	Title             string          `json:"title" validate:"required,max=200"`
	Content           string          `json:"content" validate:"required"`
	Type              MessageType     `json:"type" validate:"required,oneof=announcement maintenance update warning"`
	Priority          MessagePriority `json:"priority" validate:"required,oneof=low medium high"`
	Recipients        []string        `json:"recipients"`
	SendToAllActive   bool            `json:"send_to_all_active"`
	ExcludeRecipients []string        `json:"exclude_recipients"`
}

// AppendRecipientsRequest adds recipients to an existing message.
type AppendRecipientsRequest struct {
	Recipients []string `json:"recipients" validate:"required,min=1"`
}

// SurfaceEntry is one row of a bell or system listing, already filtered and
// flattened for the calling recipient.
type SurfaceEntry struct {
	MessageID        string          `json:"id"`
	Title            string          `json:"title"`
	Content          string          `json:"content,omitempty"`
	Type             MessageType     `json:"type"`
	Priority         MessagePriority `json:"priority"`
	IsRead           bool            `json:"is_read"`
	CreatedAt        time.Time       `json:"created"`
	ShowRemoveButton bool            `json:"show_remove_button"`
}
