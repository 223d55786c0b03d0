// Package bos implements S3: for each external swing, locate the first
// valid break-of-structure candle and record it in a break map, emitting
// the swing and BOS markers along the way.
package bos

import (
	"github.com/evdnx/msengine/breaks"
	"github.com/evdnx/msengine/types"
)

// NoBreak is the break-map sentinel for "no valid break found". Break
// indices are always > swing index (>= 0), so -1 is never a real value.
const NoBreak = -1

// Map is swing.Index -> break_index, 1:1 with the external swing list.
// A missing break is represented by NoBreak.
type Map map[int]int

// Scan walks the external swings in order, finds the first candle after
// each swing that validly breaks its price, and returns the break map
// together with the swing/BOS markers.
func Scan(ohlc types.OHLC, swings []types.Swing) (Map, []types.Marker) {
	n := ohlc.Len()
	breakMap := make(Map, len(swings))
	var markers []types.Marker

	for _, s := range swings {
		if s.Index >= n {
			breakMap[s.Index] = NoBreak
			continue
		}

		breakIndex := NoBreak
		switch s.Kind {
		case types.SwingHighKind:
			for j := s.Index + 1; j < n; j++ {
				if breaks.ValidHighBreak(ohlc.Open[j], ohlc.Close[j], ohlc.High[j], s.Price) {
					breakIndex = j
					markers = append(markers, types.Marker{Index: j, Kind: types.MarkerBosBullish, Value: ohlc.High[j]})
					break
				}
			}
		case types.SwingLowKind:
			for j := s.Index + 1; j < n; j++ {
				if breaks.ValidLowBreak(ohlc.Open[j], ohlc.Close[j], ohlc.Low[j], s.Price) {
					breakIndex = j
					markers = append(markers, types.Marker{Index: j, Kind: types.MarkerBosBearish, Value: ohlc.Low[j]})
					break
				}
			}
		}
		breakMap[s.Index] = breakIndex
	}

	for _, s := range swings {
		kind := types.MarkerSwingHigh
		if s.Kind == types.SwingLowKind {
			kind = types.MarkerSwingLow
		}
		markers = append(markers, types.Marker{Index: s.Index, Kind: kind, Value: s.Price})
	}

	return breakMap, markers
}

// BreakIndex returns the recorded break index for swingIndex and whether
// one exists.
func (m Map) BreakIndex(swingIndex int) (int, bool) {
	j, ok := m[swingIndex]
	if !ok || j == NoBreak {
		return 0, false
	}
	return j, true
}
