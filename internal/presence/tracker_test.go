package presence

import (
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		age  time.Duration
		want string
	}{
		{"just now", 0, "active now"},
		{"ninety seconds", 90 * time.Second, "active now"},
		{"two minutes", 2 * time.Minute, "2m ago"},
		{"forty-five minutes", 45 * time.Minute, "45m ago"},
		{"one hour", time.Hour, "1h ago"},
		{"three hours", 3 * time.Hour, "3h ago"},
		{"one day", 24 * time.Hour, ""},
		{"two days", 48 * time.Hour, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(now.Add(-tt.age), now)
			if got != tt.want {
				t.Errorf("Classify(now-%v) = %q, want %q", tt.age, got, tt.want)
			}
		})
	}
}

func TestRebuildKeepsFreshestPerUser(t *testing.T) {
	raw := []Beacon{
		{UserID: 1, Timestamp: 100},
		{UserID: 2, Timestamp: 300},
		{UserID: 1, Timestamp: 250},
		{UserID: 1, Timestamp: 180},
		{UserID: 2, Timestamp: 200},
	}

	peers := Rebuild(raw)

	if len(peers) != 2 {
		t.Fatalf("expected 2 peers, got %d", len(peers))
	}
	if peers[1].Timestamp != 250 {
		t.Errorf("user 1 beacon = %d, want 250", peers[1].Timestamp)
	}
	if peers[2].Timestamp != 300 {
		t.Errorf("user 2 beacon = %d, want 300", peers[2].Timestamp)
	}
}

func TestRebuildEmpty(t *testing.T) {
	if peers := Rebuild(nil); len(peers) != 0 {
		t.Errorf("expected empty map, got %d entries", len(peers))
	}
}
