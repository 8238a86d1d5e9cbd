// Package floatutils implements helper functions for working with
// float64
package floatutils

// Clip clips a floating point number to be in the interval [min, max]
func Clip(value, min, max float64) float64 {
	if min > max {
		panic("min should be less than max")
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
