package overlay

import (
	"testing"

	"github.com/evdnx/msengine/types"
)

func buildLevels(kind types.LevelKind, n int) []types.Level {
	var out []types.Level
	for i := 0; i < n; i++ {
		out = append(out, types.Level{From: i, To: i, Price: float64(i), Kind: kind})
	}
	return out
}

func TestCapLevelsKeepsMostRecentPerKind(t *testing.T) {
	levels := buildLevels(types.LevelHSH, 30)
	got := capLevels(levels)
	if len(got) != PerKindLevelCap {
		t.Fatalf("expected %d levels, got %d", PerKindLevelCap, len(got))
	}
	if got[0].From != 6 || got[len(got)-1].From != 29 {
		t.Fatalf("expected most recent 24 kept in order, got first=%d last=%d", got[0].From, got[len(got)-1].From)
	}
}

func TestCapLevelsProtectedUncapped(t *testing.T) {
	levels := buildLevels(types.LevelProtectedHigh, 30)
	got := capLevels(levels)
	if len(got) != 30 {
		t.Fatalf("expected protected levels uncapped, got %d", len(got))
	}
}

func TestAssembleVisibilityProtectedOnly(t *testing.T) {
	markers := []types.Marker{
		{Index: 1, Kind: types.MarkerSwingHigh, Value: 1},
		{Index: 2, Kind: types.MarkerProtectedHi, Value: 2},
	}
	levels := []types.Level{
		{From: 1, To: 2, Price: 1, Kind: types.LevelHSH},
		{From: 2, To: 3, Price: 2, Kind: types.LevelProtectedHigh},
	}

	got := Assemble(markers, levels, types.VisibilityProtectedOnly)
	if len(got.Markers) != 1 || got.Markers[0].Kind != types.MarkerProtectedHi {
		t.Fatalf("expected only protected marker, got %+v", got.Markers)
	}
	if len(got.Levels) != 1 || got.Levels[0].Kind != types.LevelProtectedHigh {
		t.Fatalf("expected only protected level, got %+v", got.Levels)
	}
	if got.Series != nil {
		t.Fatalf("expected series stripped, got %+v", got.Series)
	}
}

func TestAssembleVisibilityLevelsOnly(t *testing.T) {
	markers := []types.Marker{{Index: 1, Kind: types.MarkerSwingHigh, Value: 1}}
	levels := []types.Level{{From: 1, To: 2, Price: 1, Kind: types.LevelHSH}}

	got := Assemble(markers, levels, types.VisibilityLevelsOnly)
	if got.Markers != nil {
		t.Fatalf("expected no markers, got %+v", got.Markers)
	}
	if len(got.Levels) != 1 {
		t.Fatalf("expected levels retained, got %+v", got.Levels)
	}
}

func TestAssembleVisibilityMarkersOnly(t *testing.T) {
	markers := []types.Marker{{Index: 1, Kind: types.MarkerSwingHigh, Value: 1}}
	levels := []types.Level{{From: 1, To: 2, Price: 1, Kind: types.LevelHSH}}

	got := Assemble(markers, levels, types.VisibilityMarkersOnly)
	if got.Levels != nil {
		t.Fatalf("expected no levels, got %+v", got.Levels)
	}
	if len(got.Markers) != 1 {
		t.Fatalf("expected markers retained, got %+v", got.Markers)
	}
}
