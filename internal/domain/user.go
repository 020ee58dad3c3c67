package domain

import "time"

// Roles carried in JWT claims. Only admins may broadcast.
const (
	RoleAdmin       = "admin"
	RoleParticipant = "participant"
)

// User is the audience resolver's read model. User CRUD and authentication
// live in a separate service; this record exists so "all active users minus
// exclusions" can be resolved into a finite recipient list at broadcast
// time.
type User struct {
	UserID    string     `json:"id" dynamodbav:"user_id"`
	Username  string     `json:"username" dynamodbav:"username"`
	Email     string     `json:"email" dynamodbav:"email"`
	Role      string     `json:"role" dynamodbav:"role"`
	Enable    int        `json:"enable" dynamodbav:"enable"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time  `json:"updated" dynamodbav:"updated_at"`
}
