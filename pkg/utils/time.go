package utils

import "time"

// AgeHours returns the age of a timestamp in fractional hours, never negative
func AgeHours(t time.Time, now time.Time) float64 {
	age := now.Sub(t).Hours()
	if age < 0 {
		return 0
	}
	return age
}
