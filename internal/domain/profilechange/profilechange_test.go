package profilechange

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
	"github.com/google/uuid"
)

func ptr(s string) *string { return &s }

func TestChangesValidate(t *testing.T) {
	if err := (Changes{}).Validate(); !errors.Is(err, ErrNoChanges) {
		t.Fatalf("empty bag: err = %v", err)
	}

	ok := Changes{"club": ptr("FC Nord"), "bio": nil}
	if err := ok.Validate(); err != nil {
		t.Fatalf("editable fields rejected: %v", err)
	}

	bad := Changes{"role": ptr("official"), "email": ptr("x@y"), "club": ptr("A")}
	var fe *FieldError
	if err := bad.Validate(); !errors.As(err, &fe) {
		t.Fatalf("expected FieldError, got %v", err)
	}
	if !slices.Equal(fe.Fields, []string{"email", "role"}) {
		t.Fatalf("fields = %v", fe.Fields)
	}
}

func TestReview(t *testing.T) {
	official := uuid.New()
	now := time.Now()

	r := &Request{Status: StatusPending, Changes: Changes{"phone": ptr("+100")}}
	if err := r.Review(domain.DecisionReject, "", official, now); !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("reject without reason: err = %v", err)
	}
	if r.Status != StatusPending {
		t.Fatal("status changed on failed review")
	}

	if err := r.Review(domain.DecisionApprove, "", official, now); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if r.Status != StatusApproved || *r.ReviewedBy != official {
		t.Fatalf("unexpected request after approve: %+v", r)
	}

	if err := r.Review(domain.DecisionReject, "late", official, now); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("second review: err = %v", err)
	}
}

func TestChangesValidateValues(t *testing.T) {
	tests := []struct {
		name    string
		changes Changes
		bad     []string
	}{
		{"valid date", Changes{"date_of_birth": ptr("1999-12-31")}, nil},
		{"cleared date", Changes{"date_of_birth": nil}, nil},
		{"malformed date", Changes{"date_of_birth": ptr("31/12/1999")}, []string{"date_of_birth"}},
		{"impossible date", Changes{"date_of_birth": ptr("2001-02-30")}, []string{"date_of_birth"}},
		{"null first name", Changes{"first_name": nil}, []string{"first_name"}},
		{"blank last name", Changes{"last_name": ptr("   ")}, []string{"last_name"}},
		{"cleared phone", Changes{"phone": nil}, nil},
		{"name at limit", Changes{"first_name": ptr(strings.Repeat("é", 100))}, nil},
		{"oversized name", Changes{"last_name": ptr(strings.Repeat("x", 101))}, []string{"last_name"}},
		{"oversized club", Changes{"club": ptr(strings.Repeat("x", 151))}, []string{"club"}},
		{"oversized phone", Changes{"phone": ptr(strings.Repeat("1", 51))}, []string{"phone"}},
		{"long bio", Changes{"bio": ptr(strings.Repeat("x", 5000))}, nil},
		{
			"several bad values",
			Changes{"first_name": nil, "date_of_birth": ptr("soon"), "sport": ptr("rowing")},
			[]string{"date_of_birth", "first_name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.changes.Validate()
			if tt.bad == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			var fe *FieldError
			if !errors.As(err, &fe) || !slices.Equal(fe.Fields, tt.bad) {
				t.Fatalf("Validate() = %v, want FieldError on %v", err, tt.bad)
			}
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatal("field errors must classify as invalid input")
			}
		})
	}
}
