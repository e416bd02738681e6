// Package common contains small helpers used throughout this engine: zero-value
// defaulting, integer math, and the searches the atlas layouter is built on.
package common

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// DivCeil returns a divided by b, rounded up. b must be non-zero.
//
// Parameters:
//   - a: the dividend
//   - b: the divisor
//
// Returns:
//   - uint32: ceil(a / b)
func DivCeil(a, b uint32) uint32 {
	return (a + b - 1) / b
}

// SearchSmallest binary-searches [lo, hi] for the smallest input on which attempt
// succeeds and returns that attempt's result. The attempt function must be monotone:
// once it succeeds for some input it must succeed for every larger input. If no
// input in the range succeeds, the failure from attempting hi is returned.
//
// Parameters:
//   - lo: the inclusive lower bound of the search range
//   - hi: the inclusive upper bound of the search range
//   - attempt: the monotone function to probe
//
// Returns:
//   - T: the result of the smallest succeeding attempt
//   - error: the failure from the upper bound if no input succeeds
func SearchSmallest[T any](lo, hi int, attempt func(int) (T, error)) (T, error) {
	best, err := attempt(hi)
	if err != nil {
		// even the upper bound fails, no smaller input can succeed
		return best, err
	}
	for lo < hi {
		mid := lo + (hi-lo)/2
		if res, midErr := attempt(mid); midErr == nil {
			best = res
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return best, nil
}

// searchUpwardLimit bounds the doubling phase of SearchUpward so a
// never-succeeding attempt cannot loop forever.
const searchUpwardLimit = 32

// SearchUpward searches for the smallest input >= start on which attempt succeeds,
// without a known upper bound. It doubles the probe until one succeeds, then
// binary-searches the bracketed range. The attempt function must be monotone in
// the same sense as SearchSmallest.
//
// Parameters:
//   - start: the inclusive lower bound of the search
//   - attempt: the monotone function to probe
//
// Returns:
//   - T: the result of the smallest succeeding attempt
//   - error: the last failure if no probe succeeds within the doubling limit
func SearchUpward[T any](start int, attempt func(int) (T, error)) (T, error) {
	var (
		res T
		err error
	)
	lo := start
	hi := start
	for i := 0; i < searchUpwardLimit; i++ {
		res, err = attempt(hi)
		if err == nil {
			if hi == start {
				return res, nil
			}
			return SearchSmallest(lo, hi, attempt)
		}
		lo = hi + 1
		hi *= 2
	}
	return res, err
}
