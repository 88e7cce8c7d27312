package admission

import (
	"errors"
	"testing"
	"time"

	"doorcheck/entity"
)

func TestCheckWindow(t *testing.T) {
	start := time.Date(2026, 10, 15, 19, 0, 0, 0, time.UTC)
	tests := []struct {
		name       string
		now        time.Time
		admissible bool
	}{
		{"61 minutes before", start.Add(-61 * time.Minute), false},
		{"one second before the window", start.Add(-Lead - time.Second), false},
		{"exactly 60 minutes before", start.Add(-60 * time.Minute), true},
		{"at start", start, true},
		{"5 hours after start", start.Add(5 * time.Hour), true},
		{"next week", start.Add(7 * 24 * time.Hour), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Check(&start, tc.now)
			if got.Admissible != tc.admissible {
				t.Errorf("Admissible = %v, want %v", got.Admissible, tc.admissible)
			}
			if got.Unscheduled {
				t.Error("timed event reported as unscheduled")
			}
			if got.OpensAt == nil || !got.OpensAt.Equal(start.Add(-Lead)) {
				t.Errorf("OpensAt = %v, want %v", got.OpensAt, start.Add(-Lead))
			}
		})
	}
}

func TestCheckUnscheduled(t *testing.T) {
	for _, now := range []time.Time{time.Time{}, time.Now(), time.Now().Add(-100 * 24 * time.Hour)} {
		got := Check(nil, now)
		if !got.Admissible {
			t.Errorf("Check(nil, %v) not admissible", now)
		}
		if !got.Unscheduled {
			t.Errorf("Check(nil, %v) should be flagged unscheduled", now)
		}
		if got.OpensAt != nil {
			t.Errorf("OpensAt = %v, want nil", got.OpensAt)
		}
	}
}

func TestErr(t *testing.T) {
	start := time.Date(2026, 10, 15, 19, 0, 0, 0, time.UTC)
	if err := Err(Check(&start, start)); err != nil {
		t.Fatalf("Err(admissible) = %v, want nil", err)
	}

	err := Err(Check(&start, start.Add(-2*time.Hour)))
	if !errors.Is(err, entity.ErrTooEarly) {
		t.Fatalf("Err() = %v, want ErrTooEarly", err)
	}
	var tooEarly *entity.TooEarlyError
	if !errors.As(err, &tooEarly) {
		t.Fatalf("Err() = %T, want *entity.TooEarlyError", err)
	}
	if want := start.Add(-Lead); !tooEarly.OpensAt.Equal(want) {
		t.Errorf("OpensAt = %v, want %v", tooEarly.OpensAt, want)
	}
}
