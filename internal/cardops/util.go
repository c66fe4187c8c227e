package cardops

import "time"

// nowUTC is the single clock read point for row timestamps, kept as one
// function so a future test clock injection has one seam to patch.
func nowUTC() time.Time {
	return time.Now().UTC()
}
