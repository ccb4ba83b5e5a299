package mob

import "time"

// Kill records the death of a boss mob.
type Kill struct {
	ID       int64
	Species  string
	Instance string
	// Killer is the instance id of the character that landed the killing
	// blow; empty when the mob was recalled or killed by the world.
	Killer   string
	X, Y     int
	KilledAt time.Time
}
