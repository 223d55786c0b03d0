// Package overlay implements S5: level capping, visibility filtering, and
// packaging the final series/marker/level overlay.
package overlay

import (
	"github.com/evdnx/msengine/metrics"
	"github.com/evdnx/msengine/types"
)

// PerKindLevelCap bounds how many levels of a given non-protected kind
// survive into the overlay. Protected-high and protected-low levels are
// never capped.
const PerKindLevelCap = 24

// Assemble applies the per-kind level cap and the visibility mode filter,
// and packages the result. The main price series is always stripped.
func Assemble(markers []types.Marker, levels []types.Level, mode types.VisibilityMode) types.Overlay {
	capped := capLevels(levels)
	markers, capped = applyVisibility(markers, capped, mode)
	metrics.OverlayMarkersEmitted.Set(float64(len(markers)))

	return types.Overlay{
		Series:  nil,
		Markers: markers,
		Levels:  capped,
	}
}

// capLevels keeps at most PerKindLevelCap levels per non-protected kind,
// retaining the most recent ones. It scans in reverse so the most recent
// levels of a kind are kept first, then restores chronological order.
func capLevels(levels []types.Level) []types.Level {
	counts := make(map[types.LevelKind]int, len(levels))
	keep := make([]bool, len(levels))

	for i := len(levels) - 1; i >= 0; i-- {
		kind := levels[i].Kind
		if isProtected(kind) {
			keep[i] = true
			continue
		}
		if counts[kind] < PerKindLevelCap {
			keep[i] = true
			counts[kind]++
		} else {
			metrics.LevelsTruncatedTotal.WithLabelValues(string(kind)).Inc()
		}
	}

	out := make([]types.Level, 0, len(levels))
	for i, lvl := range levels {
		if keep[i] {
			out = append(out, lvl)
		}
	}
	return out
}

func isProtected(kind types.LevelKind) bool {
	return kind == types.LevelProtectedHigh || kind == types.LevelProtectedLow
}

func markerIsProtected(kind types.MarkerKind) bool {
	return kind == types.MarkerProtectedHi || kind == types.MarkerProtectedLo
}

// applyVisibility filters markers and levels per the requested mode.
func applyVisibility(markers []types.Marker, levels []types.Level, mode types.VisibilityMode) ([]types.Marker, []types.Level) {
	switch mode {
	case types.VisibilityProtectedOnly:
		var m []types.Marker
		for _, mk := range markers {
			if markerIsProtected(mk.Kind) {
				m = append(m, mk)
			}
		}
		var l []types.Level
		for _, lv := range levels {
			if isProtected(lv.Kind) {
				l = append(l, lv)
			}
		}
		return m, l
	case types.VisibilityLevelsOnly:
		return nil, levels
	case types.VisibilityMarkersOnly:
		return markers, nil
	default:
		return markers, levels
	}
}
