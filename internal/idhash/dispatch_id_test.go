package idhash

import (
	"testing"
)

func TestComputeDispatchID(t *testing.T) {
	tests := []struct {
		name     string
		runID    string
		tick     int64
		strategy string
		walletID string
		action   string
	}{
		{
			name:     "stabilizer sell",
			runID:    "3f1c2a4e-run",
			tick:     12,
			strategy: "price-stabilizer",
			walletID: "main",
			action:   "sell",
		},
		{
			name:     "farmer buy",
			runID:    "3f1c2a4e-run",
			tick:     13,
			strategy: "volume-farmer",
			walletID: "farm-2",
			action:   "buy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDispatchID(tt.runID, tt.tick, tt.strategy, tt.walletID, tt.action)

			if len(got) != 64 {
				t.Errorf("ComputeDispatchID() length = %d, want 64", len(got))
			}

			// Same inputs should produce same output
			got2 := ComputeDispatchID(tt.runID, tt.tick, tt.strategy, tt.walletID, tt.action)
			if got != got2 {
				t.Errorf("ComputeDispatchID() not deterministic: %s != %s", got, got2)
			}
		})
	}
}

func TestComputeDispatchID_Uniqueness(t *testing.T) {
	base := ComputeDispatchID("run", 1, "volume-bot", "w1", "buy")

	variants := []string{
		ComputeDispatchID("run2", 1, "volume-bot", "w1", "buy"),
		ComputeDispatchID("run", 2, "volume-bot", "w1", "buy"),
		ComputeDispatchID("run", 1, "volume-farmer", "w1", "buy"),
		ComputeDispatchID("run", 1, "volume-bot", "w2", "buy"),
		ComputeDispatchID("run", 1, "volume-bot", "w1", "sell"),
	}

	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collides with base", i)
		}
	}
}

func TestShort(t *testing.T) {
	id := ComputeDispatchID("run", 1, "volume-bot", "w1", "buy")
	if got := Short(id); len(got) != 16 || got != id[:16] {
		t.Errorf("Short() = %q", got)
	}
	if got := Short("abc"); got != "abc" {
		t.Errorf("Short(abc) = %q", got)
	}
}
