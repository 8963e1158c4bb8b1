package timeutil

import "time"

// DurationPtr is a helper function to create a pointer to a time.Duration
func DurationPtr(d time.Duration) *time.Duration {
	return &d
}

// MaxDuration returns the largest of the given durations, or zero when none
// are given.
func MaxDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	largest := durations[0]
	for _, d := range durations[1:] {
		if d > largest {
			largest = d
		}
	}
	return largest
}

// Millis converts a millisecond count to a duration. Negative values
// become zero.
func Millis(ms int) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// Seconds converts a second count to a duration. Negative values become zero.
func Seconds(s int) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s) * time.Second
}
