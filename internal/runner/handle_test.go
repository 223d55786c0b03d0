package runner

import (
	"encoding/json"
	"testing"

	"github.com/evdnx/msengine/internal/indicator"
	"github.com/evdnx/msengine/types"
)

func TestHandleUnknownScriptReturnsMissingEntryPoint(t *testing.T) {
	registry := indicator.NewRegistry(nil)
	req := []byte(`{"inputs":{"open":[1,2,3],"high":[1,2,3],"low":[1,2,3],"close":[1,2,3]}}`)

	resp := Handle(registry, "nope.py", req, types.VisibilityAll)

	if resp.Ok {
		t.Fatal("expected failure response")
	}
	if resp.Error == nil || resp.Error.Type != ErrTypeMissingEntryPoint {
		t.Fatalf("expected MissingEntryPoint error, got %+v", resp.Error)
	}
	if resp.Error.Phase != PhaseImport {
		t.Fatalf("expected import phase, got %q", resp.Error.Phase)
	}
}

func TestHandleInputShapeMismatchReturnsInputError(t *testing.T) {
	registry := indicator.NewRegistry(nil)
	req := []byte(`{"inputs":{"open":[1,2,3],"high":[1,2],"low":[1,2,3],"close":[1,2,3]}}`)

	resp := Handle(registry, "market-structure.py", req, types.VisibilityAll)

	if resp.Ok {
		t.Fatal("expected failure response")
	}
	if resp.Error == nil || resp.Error.Type != ErrTypeInput {
		t.Fatalf("expected InputError, got %+v", resp.Error)
	}
}

func TestHandleMalformedJSONReturnsInputError(t *testing.T) {
	registry := indicator.NewRegistry(nil)

	resp := Handle(registry, "market-structure.py", []byte(`{not json`), types.VisibilityAll)

	if resp.Ok {
		t.Fatal("expected failure response")
	}
	if resp.Error == nil || resp.Error.Type != ErrTypeInput {
		t.Fatalf("expected InputError, got %+v", resp.Error)
	}
}

func TestHandleFlatRequestBelowMinimumLengthSucceedsWithEmptyOverlay(t *testing.T) {
	registry := indicator.NewRegistry(nil)
	req := []byte(`{"open":[1,2],"high":[1,2],"low":[1,2],"close":[1,2]}`)

	resp := Handle(registry, "market-structure.py", req, types.VisibilityAll)

	if !resp.Ok {
		t.Fatalf("expected success response, got error %+v", resp.Error)
	}
	if len(resp.Markers) != 0 || len(resp.Levels) != 0 {
		t.Fatalf("expected no markers/levels below minimum length, got %d/%d", len(resp.Markers), len(resp.Levels))
	}
	if resp.DebugInfo != nil {
		t.Fatal("expected no debug_info when no markers survive")
	}

	out, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("expected non-empty serialized response")
	}
}

func TestHandleAliasedScriptNameResolves(t *testing.T) {
	registry := indicator.NewRegistry(nil)
	req := []byte(`{"open":[1,2],"high":[1,2],"low":[1,2],"close":[1,2]}`)

	resp := Handle(registry, "/scripts/market_structure.py", req, types.VisibilityAll)

	if !resp.Ok {
		t.Fatalf("expected success response, got error %+v", resp.Error)
	}
}
