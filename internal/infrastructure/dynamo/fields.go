package dynamo

// DynamoDB attribute names used in update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldMessageID       = "message_id"
	fieldRecipientStates = "recipient_states"
	fieldIsActive        = "is_active"
	fieldUpdatedAt       = "updated_at"
	fieldEnable          = "enable"
)
