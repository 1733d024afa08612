package entities

import "time"

type ActivityKind string

const (
	ActivityCreate      ActivityKind = "create"
	ActivityUpdate      ActivityKind = "update"
	ActivityDelete      ActivityKind = "delete"
	ActivityLoanRequest ActivityKind = "loan_request"
	ActivityLoanApprove ActivityKind = "loan_approve"
	ActivityLoanReject  ActivityKind = "loan_reject"
	ActivityLoanReturn  ActivityKind = "loan_return"
	ActivityLoanCancel  ActivityKind = "loan_cancel"
	ActivityStateChange ActivityKind = "state_change"
	ActivityReconcile   ActivityKind = "reconcile"
	ActivityAuth        ActivityKind = "auth"
)

// Activity is one entry of the activity log shown on the admin dashboard.
type Activity struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	ActorID     string       `gorm:"index;size:36" json:"actor_id,omitempty"`
	Kind        ActivityKind `gorm:"index;size:50" json:"kind"`
	EntityType  string       `gorm:"size:50" json:"entity_type"`
	EntityID    string       `gorm:"index;size:36" json:"entity_id,omitempty"`
	Description string       `gorm:"size:500" json:"description"`
	Metadata    string       `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt   time.Time    `gorm:"index" json:"created_at"`
}

func (Activity) TableName() string {
	return "activities"
}
