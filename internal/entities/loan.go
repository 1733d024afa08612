package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LoanStatus string

const (
	LoanStatusRequested LoanStatus = "requested"
	LoanStatusApproved  LoanStatus = "approved"
	LoanStatusRejected  LoanStatus = "rejected"
	LoanStatusReturned  LoanStatus = "returned"
	LoanStatusOverdue   LoanStatus = "overdue"
	LoanStatusCancelled LoanStatus = "cancelled"
)

// LoanStatuses lists every persisted status in lifecycle order.
var LoanStatuses = []LoanStatus{
	LoanStatusRequested,
	LoanStatusApproved,
	LoanStatusRejected,
	LoanStatusReturned,
	LoanStatusOverdue,
	LoanStatusCancelled,
}

func (s LoanStatus) Valid() bool {
	switch s {
	case LoanStatusRequested, LoanStatusApproved, LoanStatusRejected,
		LoanStatusReturned, LoanStatusOverdue, LoanStatusCancelled:
		return true
	}
	return false
}

// IsOpen reports whether a loan in this status still occupies its copy.
// A stored overdue status only arises from an administrative edit of an
// approved loan, and the copy is still out.
func (s LoanStatus) IsOpen() bool {
	switch s {
	case LoanStatusRequested, LoanStatusApproved, LoanStatusOverdue:
		return true
	case LoanStatusRejected, LoanStatusReturned, LoanStatusCancelled:
		return false
	}
	return false
}

// OpenLoanStatuses returns the statuses for which IsOpen is true.
func OpenLoanStatuses() []LoanStatus {
	open := make([]LoanStatus, 0, len(LoanStatuses))
	for _, s := range LoanStatuses {
		if s.IsOpen() {
			open = append(open, s)
		}
	}
	return open
}

// Loan binds one Copy to one User over a time window.
type Loan struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	CopyID     string     `gorm:"index;size:36;not null" json:"copy_id"`
	BookID     string     `gorm:"index;size:36" json:"book_id"`
	UserID     string     `gorm:"index;size:36;not null" json:"user_id"`
	LoanDate   time.Time  `json:"loan_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date"`
	Status     LoanStatus `gorm:"index;size:20;not null" json:"status"`
	Book       *Book      `gorm:"foreignKey:BookID" json:"book,omitempty"`
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// EffectiveStatus is computed at read time and never stored.
	EffectiveStatus LoanStatus `gorm:"-" json:"effective_status,omitempty"`
}

func (Loan) TableName() string {
	return "loans"
}

func (l *Loan) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// StatusAt derives the display status: an approved loan whose due day has
// passed without a return reads as overdue. Days are calendar days in loc.
func (l *Loan) StatusAt(now time.Time, loc *time.Location) LoanStatus {
	if l.Status == LoanStatusApproved && l.ReturnDate == nil && DayIn(now, loc).After(DayIn(l.DueDate, loc)) {
		return LoanStatusOverdue
	}
	return l.Status
}

// DayIn returns the calendar day of t as seen in loc, encoded as midnight UTC
// so that days from different zones compare directly. A nil loc means UTC.
func DayIn(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
