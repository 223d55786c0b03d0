package runner

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/evdnx/msengine/internal/indicator"
	"github.com/evdnx/msengine/types"
)

// Handle parses raw as a Request, resolves scriptPath against registry,
// invokes the matched indicator, and returns the Response to serialize.
// It never returns a Go error: every failure is folded into Response.Error
// so the caller always has exactly one JSON object to write. defaultMode
// is the runner's own configured visibility mode, used when the request
// itself does not specify one.
func Handle(registry *indicator.Registry, scriptPath string, raw []byte, defaultMode types.VisibilityMode) Response {
	start := time.Now()

	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return errorResponse(newWireError(ErrTypeInput, PhaseInputs, fmt.Sprintf("malformed request: %v", err)))
	}

	in := req.resolved()
	ohlc := types.OHLC{Open: in.Open, High: in.High, Low: in.Low, Close: in.Close}
	if !ohlc.EqualLengths() {
		return errorResponse(newWireError(ErrTypeInput, PhaseInputs, "open/high/low/close must share a common length"))
	}

	fn, ok := registry.Resolve(scriptPath)
	if !ok {
		return errorResponse(newWireError(ErrTypeMissingEntryPoint, PhaseImport, fmt.Sprintf("no indicator registered for %q", scriptPath)))
	}

	execStart := time.Now()
	overlay, err := fn(ohlc, req.visibilityMode(defaultMode))
	execMs := float64(time.Since(execStart)) / float64(time.Millisecond)
	if err != nil {
		return errorResponse(newWireError(ErrTypeExecution, PhaseExecute, err.Error()))
	}

	totalMs := float64(time.Since(start)) / float64(time.Millisecond)
	return successResponse(overlay, scriptPath, execMs, totalMs)
}

func errorResponse(e *WireError) Response {
	return Response{Ok: false, ApiVersion: ApiVersion, Error: e}
}

func successResponse(overlay types.Overlay, scriptPath string, execMs, totalMs float64) Response {
	series := make(map[string][]wireFloat, len(overlay.Series))
	for name, vs := range overlay.Series {
		series[name] = wireFloats(vs)
	}

	abs, err := filepath.Abs(scriptPath)
	if err != nil {
		abs = scriptPath
	}

	resp := Response{
		Ok:         true,
		ApiVersion: ApiVersion,
		Series:     series,
		Markers:    wireMarkers(overlay.Markers),
		Levels:     wireLevels(overlay.Levels),
		Meta:       &Meta{ScriptPath: abs, ExecutionMs: execMs, TotalMs: totalMs},
	}

	if len(overlay.Markers) > 0 {
		first := wireMarkers(overlay.Markers[:1])[0]
		resp.DebugInfo = &DebugInfo{MarkersCount: len(overlay.Markers), FirstMarker: &first}
	}

	return resp
}
