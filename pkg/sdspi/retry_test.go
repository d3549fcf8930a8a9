package sdspi

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestPoller_Until(t *testing.T) {
	tests := []struct {
		name       string
		attempts   int
		succeedOn  int // 0 never
		wantErr    error
		wantCalls  int
		wantSleeps int
	}{
		{"First Attempt", 10, 1, nil, 1, 0},
		{"Third Attempt", 10, 3, nil, 3, 2},
		{"Last Attempt", 10, 10, nil, 10, 9},
		{"Exhausted", 10, 0, ErrTimeout, 10, 9},
		{"Zero Budget", 0, 1, ErrTimeout, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &sleeper{}
			p := Poller{Attempts: tt.attempts, Delay: 10 * time.Millisecond, Sleep: s.sleep}

			calls := 0
			err := p.Until(func() (bool, error) {
				calls++
				return calls == tt.succeedOn, nil
			})

			if !errors.Is(err, tt.wantErr) || (tt.wantErr == nil && err != nil) {
				t.Errorf("Until() error = %v, want %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if len(s.delays) != tt.wantSleeps {
				t.Errorf("sleeps = %d, want %d", len(s.delays), tt.wantSleeps)
			}
		})
	}
}

func TestPoller_ActionError(t *testing.T) {
	p := Poller{Attempts: 5}
	calls := 0
	err := p.Until(func() (bool, error) {
		calls++
		return false, errBus
	})

	if !errors.Is(err, errBus) {
		t.Errorf("Until() error = %v, want %v", err, errBus)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestPoller_NoDelayDoesNotSleep(t *testing.T) {
	s := &sleeper{}
	p := Poller{Attempts: 3, Sleep: s.sleep}
	_ = p.Until(func() (bool, error) { return false, nil })

	if diff := cmp.Diff([]time.Duration(nil), s.delays); diff != "" {
		t.Errorf("unexpected sleeps (-want +got):\n%s", diff)
	}
}
