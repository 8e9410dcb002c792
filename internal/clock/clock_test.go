package clock

import (
	"testing"
	"time"
)

func TestFixedAdvance(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFixed(base)

	if !c.Now().Equal(base) {
		t.Fatalf("expected %v, got %v", base, c.Now())
	}

	c.Advance(5 * time.Second)
	want := base.Add(5 * time.Second)
	if !c.Now().Equal(want) {
		t.Fatalf("expected %v, got %v", want, c.Now())
	}
}

func TestCrossedBoundary(t *testing.T) {
	dayStart := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		prev     time.Time
		now      time.Time
		interval time.Duration
		want     bool
	}{
		{
			name:     "crosses a 900s boundary",
			prev:     dayStart.Add(890 * time.Second),
			now:      dayStart.Add(905 * time.Second),
			interval: 900 * time.Second,
			want:     true,
		},
		{
			name:     "stays within the same period",
			prev:     dayStart.Add(100 * time.Second),
			now:      dayStart.Add(200 * time.Second),
			interval: 900 * time.Second,
			want:     false,
		},
		{
			name:     "zero interval never fires",
			prev:     dayStart,
			now:      dayStart.Add(time.Hour),
			interval: 0,
			want:     false,
		},
		{
			name:     "now not after prev",
			prev:     dayStart.Add(time.Minute),
			now:      dayStart.Add(time.Minute),
			interval: 900 * time.Second,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CrossedBoundary(tt.prev, tt.now, tt.interval)
			if got != tt.want {
				t.Errorf("CrossedBoundary() = %v, want %v", got, tt.want)
			}
		})
	}
}
