package safety

import "testing"

func TestRandomDelayRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		d := RandomDelay(120)
		if d < 84 || d > 156 {
			t.Fatalf("delay %d outside [84, 156]", d)
		}
	}
}

func TestRandomDelayFloor(t *testing.T) {
	for i := 0; i < 1000; i++ {
		if d := RandomDelay(10); d != 60 {
			t.Fatalf("delay for tiny base should clamp to 60, got %d", d)
		}
		if d := RandomDelay(70); d < 60 {
			t.Fatalf("delay %d dipped under the 60s floor", d)
		}
	}
}
