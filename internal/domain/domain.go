package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAthlete    Role = "athlete"
	RoleCoach      Role = "coach"
	RoleSpecialist Role = "specialist"
	// RoleOfficial doubles as the administrative role.
	RoleOfficial Role = "official"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAthlete, RoleCoach, RoleSpecialist, RoleOfficial:
		return true
	}
	return false
}

// AllRoles lists every role in a stable order.
func AllRoles() []Role {
	return []Role{RoleAthlete, RoleCoach, RoleSpecialist, RoleOfficial}
}

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending_verification"
	VerificationVerified VerificationStatus = "verified"
)

type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	Email     string `db:"email" json:"email"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Role      Role   `db:"role" json:"role"`

	// Registration decision fields. The two booleans are set independently so
	// a rejected user can still be approved after resubmitting.
	RegistrationVerified  bool       `db:"registration_verified" json:"registration_verified"`
	RegistrationRejected  bool       `db:"registration_rejected" json:"registration_rejected"`
	RejectionReason       *string    `db:"rejection_reason" json:"rejection_reason"`
	RegistrationDecidedBy *uuid.UUID `db:"registration_decided_by" json:"registration_decided_by"`
	RegistrationDecidedAt *time.Time `db:"registration_decided_at" json:"registration_decided_at"`

	ProfileVerified    bool               `db:"profile_verified" json:"profile_verified"`
	VerificationStatus VerificationStatus `db:"verification_status" json:"verification_status"`
}

// RegistrationSnapshot is the status-relevant subset recorded in audit entries.
func (u *User) RegistrationSnapshot() map[string]any {
	return map[string]any{
		"registration_verified": u.RegistrationVerified,
		"registration_rejected": u.RegistrationRejected,
		"profile_verified":      u.ProfileVerified,
		"role":                  string(u.Role),
	}
}

// Actor is the resolved identity of the caller for the duration of one request.
type Actor struct {
	ID    uuid.UUID
	Role  Role
	Email string
}

type AuditAction string

const (
	ActionPermissionDenied AuditAction = "PERMISSION_DENIED"
	ActionOwnershipDenied  AuditAction = "OWNERSHIP_DENIED"
	ActionApprovalGranted  AuditAction = "APPROVAL_GRANTED"
	ActionApprovalDenied   AuditAction = "APPROVAL_DENIED"
	ActionRejectionIssued  AuditAction = "REJECTION_ISSUED"

	ActionDocumentSubmitted AuditAction = "DOCUMENT_SUBMITTED"
	ActionDocumentReviewed  AuditAction = "DOCUMENT_REVIEWED"

	ActionMedicalLeaveSubmitted AuditAction = "MEDICAL_LEAVE_SUBMITTED"
	ActionMedicalLeaveReviewed  AuditAction = "MEDICAL_LEAVE_SPECIALIST_REVIEW"
	ActionMedicalLeaveDecided   AuditAction = "MEDICAL_LEAVE_COACH_DECISION"

	ActionProfileChangeRequested AuditAction = "PROFILE_CHANGE_REQUESTED"
	ActionProfileChangeReviewed  AuditAction = "PROFILE_CHANGE_REVIEWED"

	ActionSportRegistrationRequested AuditAction = "SPORT_REGISTRATION_REQUESTED"
	ActionSportRegistrationDecided   AuditAction = "SPORT_REGISTRATION_DECIDED"
	ActionSportRegistrationCancelled AuditAction = "SPORT_REGISTRATION_CANCELLED"

	ActionAuditLogsQueried AuditAction = "AUDIT_LOGS_QUERIED"
)

type AuditResult string

const (
	AuditSuccess AuditResult = "success"
	AuditDenied  AuditResult = "denied"
	AuditError   AuditResult = "error"
)

// AuditLog is append-only: rows are never updated or deleted once written.
type AuditLog struct {
	ID         uuid.UUID `db:"id" json:"id"`
	OccurredAt time.Time `db:"occurred_at" json:"occurred_at"`

	// Who
	ActorID   string `db:"actor_id" json:"actor_id"`
	ActorRole string `db:"actor_role" json:"actor_role"`
	IPAddress string `db:"ip_address" json:"ip_address"`
	RequestID string `db:"request_id" json:"request_id"`

	// What
	Action       AuditAction `db:"action" json:"action"`
	ResourceType string      `db:"resource_type" json:"resource_type"`
	ResourceID   *string     `db:"resource_id" json:"resource_id"`

	Result       AuditResult     `db:"result" json:"result"`
	DenialReason *string         `db:"denial_reason" json:"denial_reason"`
	StatusBefore json.RawMessage `db:"status_before" json:"status_before"`
	StatusAfter  json.RawMessage `db:"status_after" json:"status_after"`
	ErrorMessage *string         `db:"error_message" json:"error_message"`
}

type AuditFilter struct {
	ActorID      *string
	Action       *AuditAction
	ResourceType *string
	Result       *AuditResult
	From         *time.Time
	To           *time.Time
	Limit        int
}

// AnonymousActorID is recorded when no actor could be resolved.
const AnonymousActorID = "anonymous"
