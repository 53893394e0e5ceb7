package profilechange

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Field describes how a requested value must look before it can be written
// to its users column.
type Field struct {
	Column string
	// MaxLen is the column's character limit; zero means unbounded.
	MaxLen   int
	Required bool
	Date     bool
}

const dateLayout = "2006-01-02"

// Editable is every field a user may ask to change.
var Editable = map[string]Field{
	"first_name":     {Column: "first_name", MaxLen: 100, Required: true},
	"last_name":      {Column: "last_name", MaxLen: 100, Required: true},
	"phone":          {Column: "phone", MaxLen: 50},
	"date_of_birth":  {Column: "date_of_birth", Date: true},
	"sport":          {Column: "sport", MaxLen: 100},
	"club":           {Column: "club", MaxLen: 150},
	"bio":            {Column: "bio"},
	"address":        {Column: "address"},
	"specialization": {Column: "specialization", MaxLen: 150},
}

// Accepts reports whether v can be stored in the field's column. A nil value
// clears the column and is refused for required fields.
func (f Field) Accepts(v *string) bool {
	if v == nil {
		return !f.Required
	}
	if f.Date {
		_, err := time.Parse(dateLayout, *v)
		return err == nil
	}
	if f.Required && strings.TrimSpace(*v) == "" {
		return false
	}
	return f.MaxLen == 0 || utf8.RuneCountInString(*v) <= f.MaxLen
}

// Changes is the requested field → new value bag. A nil value clears the
// field.
type Changes map[string]*string

// Validate checks the bag is non-empty, only names editable fields and that
// every value fits its column.
func (c Changes) Validate() error {
	if len(c) == 0 {
		return ErrNoChanges
	}
	var bad []string
	for k, v := range c {
		if f, ok := Editable[k]; !ok || !f.Accepts(v) {
			bad = append(bad, k)
		}
	}
	if len(bad) > 0 {
		slices.Sort(bad)
		return &FieldError{Fields: bad}
	}
	return nil
}

// Fields returns the requested keys in a stable order.
func (c Changes) Fields() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

type Request struct {
	ID      uuid.UUID `db:"id" json:"id"`
	UserID  uuid.UUID `db:"user_id" json:"user_id"`
	Changes Changes   `db:"changes" json:"changes"`
	Status  Status    `db:"status" json:"status"`

	RejectionReason *string    `db:"rejection_reason" json:"rejection_reason"`
	ReviewedBy      *uuid.UUID `db:"reviewed_by" json:"reviewed_by"`
	ReviewedAt      *time.Time `db:"reviewed_at" json:"reviewed_at"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// Review applies an official's decision to a pending request.
func (r *Request) Review(decision domain.Decision, reason string, by uuid.UUID, at time.Time) error {
	if r.Status != StatusPending {
		return ErrInvalidStatusTransition
	}

	switch decision {
	case domain.DecisionApprove:
		r.Status = StatusApproved
	case domain.DecisionReject:
		if reason == "" {
			return ErrReasonRequired
		}
		r.Status = StatusRejected
		r.RejectionReason = &reason
	default:
		return domain.ErrInvalidDecision
	}

	r.ReviewedBy = &by
	r.ReviewedAt = &at
	return nil
}

func (r *Request) Snapshot() map[string]any {
	return map[string]any{
		"status": string(r.Status),
		"fields": r.Changes.Fields(),
	}
}
