package document

import (
	"errors"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
	"github.com/google/uuid"
)

func TestAggregate(t *testing.T) {
	doc := func(s Status) *Submission { return &Submission{Status: s} }

	tests := []struct {
		name         string
		docs         []*Submission
		wantVerified bool
		wantStatus   domain.VerificationStatus
	}{
		{"no documents", nil, false, domain.VerificationPending},
		{"single approved", []*Submission{doc(StatusApproved)}, true, domain.VerificationVerified},
		{"all approved", []*Submission{doc(StatusApproved), doc(StatusApproved)}, true, domain.VerificationVerified},
		{"one pending", []*Submission{doc(StatusApproved), doc(StatusPending)}, false, domain.VerificationPending},
		{"one rejected", []*Submission{doc(StatusRejected), doc(StatusApproved)}, false, domain.VerificationPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verified, status := Aggregate(tt.docs)
			if verified != tt.wantVerified || status != tt.wantStatus {
				t.Fatalf("Aggregate() = (%v, %q), want (%v, %q)", verified, status, tt.wantVerified, tt.wantStatus)
			}
		})
	}
}

func TestReview(t *testing.T) {
	official := uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("approve pending", func(t *testing.T) {
		s := &Submission{Status: StatusPending}
		if err := s.Review(domain.DecisionApprove, "", official, now); err != nil {
			t.Fatalf("Review() error = %v", err)
		}
		if s.Status != StatusApproved || *s.ReviewedBy != official || !s.ReviewedAt.Equal(now) {
			t.Fatalf("unexpected submission after approve: %+v", s)
		}
	})

	t.Run("reject needs reason", func(t *testing.T) {
		s := &Submission{Status: StatusPending}
		if err := s.Review(domain.DecisionReject, "", official, now); !errors.Is(err, ErrReasonRequired) {
			t.Fatalf("Review() error = %v, want ErrReasonRequired", err)
		}
		if s.Status != StatusPending {
			t.Fatal("status changed on failed review")
		}
	})

	t.Run("reviewed twice", func(t *testing.T) {
		s := &Submission{Status: StatusApproved}
		err := s.Review(domain.DecisionReject, "blurry", official, now)
		if !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("Review() error = %v, want invalid transition", err)
		}
	})

	t.Run("unknown decision", func(t *testing.T) {
		s := &Submission{Status: StatusPending}
		if err := s.Review("maybe", "", official, now); !errors.Is(err, domain.ErrInvalidDecision) {
			t.Fatalf("Review() error = %v", err)
		}
	})
}

func TestResubmitResetsReview(t *testing.T) {
	reason := "expired"
	by := uuid.New()
	at := time.Now()
	s := &Submission{Status: StatusRejected, RejectionReason: &reason, ReviewedBy: &by, ReviewedAt: &at}

	s.Resubmit("/uploads/new.pdf", domain.RoleCoach, at.Add(time.Hour))

	if s.Status != StatusPending || s.RejectionReason != nil || s.ReviewedBy != nil || s.ReviewedAt != nil {
		t.Fatalf("resubmission did not reset review state: %+v", s)
	}
	if s.FilePath != "/uploads/new.pdf" || s.Role != domain.RoleCoach {
		t.Fatalf("resubmission did not take new values: %+v", s)
	}
}
