// Package swing implements S1 (local-extremum detection) and S2 (external
// structure filtering) of the market structure pipeline.
package swing

import "github.com/evdnx/msengine/types"

// Detect scans high/low for 3-bar local extrema (S1). A swing-high at i
// requires high[i] to be at least as extreme as both neighbors with at
// least one strict inequality; a swing-low is the mirror condition on low.
// Both may fire at the same i. The result is sorted by Index ascending.
// For n < 3 it returns an empty slice.
func Detect(high, low []float64) []types.Swing {
	n := len(high)
	if n < 3 || len(low) != n {
		return nil
	}

	var swings []types.Swing
	for i := 1; i < n-1; i++ {
		if high[i] >= high[i-1] && high[i] >= high[i+1] && (high[i] > high[i-1] || high[i] > high[i+1]) {
			swings = append(swings, types.Swing{Index: i, Kind: types.SwingHighKind, Price: high[i]})
		}
		if low[i] <= low[i-1] && low[i] <= low[i+1] && (low[i] < low[i-1] || low[i] < low[i+1]) {
			swings = append(swings, types.Swing{Index: i, Kind: types.SwingLowKind, Price: low[i]})
		}
	}
	return swings
}
