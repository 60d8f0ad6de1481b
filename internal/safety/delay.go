// internal/safety/delay.go
package safety

import "math/rand"

// minDelaySeconds is the hard floor: perfectly periodic automation is
// detectable, but so is anything faster than a human could act.
const minDelaySeconds = 60

// RandomDelay returns baseSeconds +/- 30%, uniformly, floored at the hard
// minimum. Used to humanize the gap between consecutive automated actions.
func RandomDelay(baseSeconds int) int {
	jitter := float64(baseSeconds) * 0.3
	v := float64(baseSeconds) - jitter + rand.Float64()*2*jitter
	if v < minDelaySeconds {
		return minDelaySeconds
	}
	return int(v)
}
