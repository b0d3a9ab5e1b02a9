package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func TestPolicy_Do(t *testing.T) {
	tests := []struct {
		name        string
		maxAttempts int
		failures    int
		wantCalls   int
		wantSleeps  int
		wantErr     bool
	}{
		{name: "first try", maxAttempts: 4, failures: 0, wantCalls: 1, wantSleeps: 0},
		{name: "recovers", maxAttempts: 4, failures: 2, wantCalls: 3, wantSleeps: 2},
		{name: "last attempt succeeds", maxAttempts: 4, failures: 3, wantCalls: 4, wantSleeps: 3},
		{name: "exhausted", maxAttempts: 4, failures: 10, wantCalls: 4, wantSleeps: 3, wantErr: true},
		{name: "zero value runs once", maxAttempts: 0, failures: 10, wantCalls: 1, wantSleeps: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &sleepRecorder{}
			calls, afters, retries := 0, 0, 0
			p := Policy{
				MaxAttempts: tt.maxAttempts,
				Delay:       35 * time.Second,
				Sleep:       rec.sleep,
				After:       func() { afters++ },
				OnRetry:     func(int, time.Duration, error) { retries++ },
			}

			err := p.Do(context.Background(), func(context.Context) error {
				calls++
				if calls <= tt.failures {
					return fmt.Errorf("attempt %d failed", calls)
				}
				return nil
			})

			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if afters != calls {
				t.Errorf("After ran %d times, want %d", afters, calls)
			}
			if len(rec.delays) != tt.wantSleeps || retries != tt.wantSleeps {
				t.Errorf("sleeps = %d, retries = %d, want %d", len(rec.delays), retries, tt.wantSleeps)
			}
			for _, d := range rec.delays {
				if d != 35*time.Second {
					t.Errorf("delay = %v, want 35s", d)
				}
			}
		})
	}
}

func TestPolicy_Do_ReturnsLastError(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 3, Sleep: func(context.Context, time.Duration) error { return nil }}
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return fmt.Errorf("failure %d", calls)
	})
	if err == nil || err.Error() != "failure 3" {
		t.Fatalf("err = %v, want failure 3", err)
	}
}

func TestPolicy_Do_StopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cause := errors.New("down")
	calls := 0
	p := Policy{MaxAttempts: 4, Delay: time.Hour}

	err := p.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return cause
	})
	if !errors.Is(err, cause) {
		t.Fatalf("err = %v, want %v", err, cause)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestSleep(t *testing.T) {
	if err := Sleep(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("Sleep: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("Sleep(cancelled) = %v, want context.Canceled", err)
	}
}
