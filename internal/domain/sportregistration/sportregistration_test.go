package sportregistration

import (
	"errors"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/athletehub/internal/domain"
)

func TestDecide(t *testing.T) {
	now := time.Now()

	r := &Registration{Status: StatusPending}
	if err := r.Decide(domain.DecisionApprove, "", now); err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if r.Status != StatusApproved || r.DecidedAt == nil || r.DecisionReason != nil {
		t.Fatalf("unexpected registration: %+v", r)
	}

	if err := r.Decide(domain.DecisionReject, "full squad", now); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("deciding twice: err = %v", err)
	}

	r = &Registration{Status: StatusPending}
	if err := r.Decide(domain.DecisionReject, "full squad", now); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if *r.DecisionReason != "full squad" {
		t.Fatalf("reason = %q", *r.DecisionReason)
	}
}

func TestCancel(t *testing.T) {
	tests := []struct {
		from    Status
		wantErr bool
	}{
		{StatusPending, false},
		{StatusApproved, true},
		{StatusRejected, true},
		{StatusCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			r := &Registration{Status: tt.from}
			err := r.Cancel(time.Now())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Cancel() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && r.Status != tt.from {
				t.Fatal("status changed on failed cancel")
			}
		})
	}
}
