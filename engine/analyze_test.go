package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/evdnx/msengine/types"
)

func TestAnalyzeBelowMinimumLength(t *testing.T) {
	ohlc := types.OHLC{
		Open:  []float64{1, 2},
		High:  []float64{1, 2},
		Low:   []float64{1, 2},
		Close: []float64{1, 2},
	}
	got, err := Analyze(ohlc, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := types.Overlay{Series: map[string][]float64{"main": {1, 2}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("overlay mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzeInputShapeMismatch(t *testing.T) {
	ohlc := types.OHLC{
		Open:  []float64{1, 2, 3},
		High:  []float64{1, 2, 3},
		Low:   []float64{1, 2},
		Close: []float64{1, 2, 3},
	}
	_, err := Analyze(ohlc, Options{})
	if err != ErrInputShape {
		t.Fatalf("expected ErrInputShape, got %v", err)
	}
}

func bullishTrendOHLC() types.OHLC {
	return types.OHLC{
		Open:  []float64{5, 4, 3, 4, 5, 7},
		High:  []float64{5, 4, 4, 6, 5, 8},
		Low:   []float64{5, 2, 4, 5, 5, 5},
		Close: []float64{5, 3, 4, 5, 5, 8},
	}
}

func TestAnalyzeProducesProtectedLowOnBullishBreak(t *testing.T) {
	got, err := Analyze(bullishTrendOHLC(), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Markers) != 6 {
		t.Fatalf("expected 6 markers, got %d: %+v", len(got.Markers), got.Markers)
	}
	if len(got.Levels) != 3 {
		t.Fatalf("expected 3 levels, got %d: %+v", len(got.Levels), got.Levels)
	}
	if got.Series != nil {
		t.Fatalf("expected series stripped, got %+v", got.Series)
	}

	var foundPL bool
	for _, m := range got.Markers {
		if m.Kind == types.MarkerProtectedLo {
			foundPL = true
			if m.Index != 1 || m.Value != 2 {
				t.Fatalf("unexpected protected-low marker: %+v", m)
			}
		}
	}
	if !foundPL {
		t.Fatal("expected a protected-low marker")
	}
}

func TestAnalyzeVisibilityModes(t *testing.T) {
	ohlc := bullishTrendOHLC()

	protectedOnly, err := Analyze(ohlc, Options{VisibilityMode: types.VisibilityProtectedOnly})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(protectedOnly.Markers) != 1 || len(protectedOnly.Levels) != 1 {
		t.Fatalf("expected exactly one protected marker/level, got %d/%d", len(protectedOnly.Markers), len(protectedOnly.Levels))
	}
	for _, m := range protectedOnly.Markers {
		if m.Kind != types.MarkerProtectedHi && m.Kind != types.MarkerProtectedLo {
			t.Fatalf("protected-only leaked non-protected marker: %+v", m)
		}
	}
	for _, l := range protectedOnly.Levels {
		if l.Kind != types.LevelProtectedHigh && l.Kind != types.LevelProtectedLow {
			t.Fatalf("protected-only leaked non-protected level: %+v", l)
		}
	}

	levelsOnly, err := Analyze(ohlc, Options{VisibilityMode: types.VisibilityLevelsOnly})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if levelsOnly.Markers != nil {
		t.Fatalf("expected no markers, got %+v", levelsOnly.Markers)
	}
	if len(levelsOnly.Levels) != 3 {
		t.Fatalf("expected 3 levels, got %d", len(levelsOnly.Levels))
	}

	markersOnly, err := Analyze(ohlc, Options{VisibilityMode: types.VisibilityMarkersOnly})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if markersOnly.Levels != nil {
		t.Fatalf("expected no levels, got %+v", markersOnly.Levels)
	}
	if len(markersOnly.Markers) != 6 {
		t.Fatalf("expected 6 markers, got %d", len(markersOnly.Markers))
	}
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	ohlc := bullishTrendOHLC()
	first, err := Analyze(ohlc, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Analyze(ohlc, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("expected idempotent overlays (-first +second):\n%s", diff)
	}
}
