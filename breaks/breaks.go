// Package breaks implements the two break-of-structure predicates the rest
// of the pipeline is built on: whether a single candle validly breaks a
// horizontal price level to the upside or downside.
package breaks

// ValidHighBreak reports whether a candle (open, close, high) validly
// breaks a level to the upside: the wick must reach or exceed the level,
// and either the body closes strictly above it, or the body sits exactly
// on it with the wick strictly overshooting.
func ValidHighBreak(open, close, high, level float64) bool {
	if high < level {
		return false
	}
	body := max(open, close)
	if body > level {
		return true
	}
	return body == level && high > level
}

// ValidLowBreak reports whether a candle (open, close, low) validly breaks
// a level to the downside: the wick must reach or go below the level, and
// either the body closes strictly below it, or the body sits exactly on it
// with the wick strictly overshooting.
func ValidLowBreak(open, close, low, level float64) bool {
	if low > level {
		return false
	}
	body := min(open, close)
	if body < level {
		return true
	}
	return body == level && low < level
}
