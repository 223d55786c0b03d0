package swing

import (
	"testing"

	"github.com/evdnx/msengine/types"
)

func TestExternalFilterAlternates(t *testing.T) {
	in := []types.Swing{
		{Index: 1, Kind: types.SwingHighKind, Price: 10},
		{Index: 2, Kind: types.SwingHighKind, Price: 12}, // collapses with #1, more extreme wins
		{Index: 4, Kind: types.SwingLowKind, Price: 8},
		{Index: 6, Kind: types.SwingLowKind, Price: 8}, // exact tie: latest wins
		{Index: 9, Kind: types.SwingHighKind, Price: 11},
	}

	got := ExternalFilter(in)

	want := []types.Swing{
		{Index: 2, Kind: types.SwingHighKind, Price: 12},
		{Index: 6, Kind: types.SwingLowKind, Price: 8},
		{Index: 9, Kind: types.SwingHighKind, Price: 11},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d swings, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("swing %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestExternalFilterEmpty(t *testing.T) {
	if got := ExternalFilter(nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestExternalFilterPlateauLatestWins(t *testing.T) {
	in := []types.Swing{
		{Index: 1, Kind: types.SwingHighKind, Price: 3},
		{Index: 2, Kind: types.SwingHighKind, Price: 3}, // equal price: later index wins
	}
	got := ExternalFilter(in)
	if len(got) != 1 || got[0].Index != 2 {
		t.Fatalf("expected single swing-high at index 2, got %+v", got)
	}
}
