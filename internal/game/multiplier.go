package game

// MultiplierAt maps elapsed flight time in seconds to the payout
// multiplier: m(t) = 1 + 0.5t + 0.1t^2. The curve is fixed and documented
// because it determines fairness perception; it is strictly increasing and
// convex for t >= 0, with m(0) = 1.0.
//
// Values are truncated to two decimals, matching what clients display and
// what cashouts settle at. Truncation of an increasing function stays
// non-decreasing.
func MultiplierAt(elapsedSeconds float64) float64 {
	if elapsedSeconds < 0 {
		elapsedSeconds = 0
	}
	m := 1.0 + 0.5*elapsedSeconds + 0.1*elapsedSeconds*elapsedSeconds
	return truncate2(m)
}

func truncate2(v float64) float64 {
	return float64(int64(v*100)) / 100.0
}
