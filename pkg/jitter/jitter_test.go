package jitter

import (
	"testing"
	"time"
)

func TestBackoffDoublesUpToMax(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, time.Second},
		{200, time.Second},
	}

	for _, tt := range tests {
		if got := backoff(100*time.Millisecond, time.Second, tt.attempt); got != tt.want {
			t.Errorf("backoff(attempt=%d) = %s, want %s", tt.attempt, got, tt.want)
		}
	}
}

func TestDurationWithRandBounds(t *testing.T) {
	d := time.Second

	if got := DurationWithRand(d, 0.5, func() float64 { return 0 }); got != d {
		t.Errorf("lower bound = %s, want %s", got, d)
	}
	if got := DurationWithRand(d, 0.5, func() float64 { return 0.999999 }); got < d || got >= 1500*time.Millisecond {
		t.Errorf("upper bound = %s, want in [1s, 1.5s)", got)
	}
	if got := DurationWithRand(d, 0, func() float64 { return 0.9 }); got != d {
		t.Errorf("zero factor must not change duration, got %s", got)
	}
}

func TestExponentialBackoffWithinJitterRange(t *testing.T) {
	for i := 0; i < 100; i++ {
		got := ExponentialBackoff(time.Second, time.Minute, 2, DefaultJitter)
		if got < 4*time.Second || got > 6*time.Second {
			t.Fatalf("got %s, want in [4s, 6s]", got)
		}
	}
}
