// Package runner implements the JSON wire contract between the charting
// product's plug-in execution host and an in-process indicator: it parses
// one request object, resolves and invokes the indicator, and serializes
// exactly one response object, coercing non-finite floats to null.
package runner

import (
	"encoding/json"

	"github.com/evdnx/msengine/types"
)

// ErrorType enumerates the taxonomy of failures a runner invocation can
// report. Each phase of the contract maps to a distinct subset.
type ErrorType string

const (
	ErrTypeUsage             ErrorType = "UsageError"
	ErrTypeInput             ErrorType = "InputError"
	ErrTypeImport            ErrorType = "ImportError"
	ErrTypeMissingEntryPoint ErrorType = "MissingEntryPoint"
	ErrTypeExecution         ErrorType = "ExecutionError"
	ErrTypeResult            ErrorType = "ResultError"
	ErrTypeSerialization     ErrorType = "SerializationError"
)

// Phase names the stage of the contract in which a failure occurred.
type Phase string

const (
	PhaseBootstrap Phase = "bootstrap"
	PhaseInputs    Phase = "inputs"
	PhaseImport    Phase = "import"
	PhaseExecute   Phase = "execute"
	PhaseSerialize Phase = "serialize"
)

// WireError is the typed error payload returned on a failed invocation.
type WireError struct {
	Type          ErrorType `json:"type"`
	Message       string    `json:"message"`
	Phase         Phase     `json:"phase"`
	Traceback     string    `json:"traceback,omitempty"`
	ExceptionType string    `json:"exceptionType,omitempty"`
	File          string    `json:"file,omitempty"`
	Line          int       `json:"line,omitempty"`
	Column        int       `json:"column,omitempty"`
}

func (e *WireError) Error() string {
	return string(e.Type) + " in " + string(e.Phase) + ": " + e.Message
}

func newWireError(t ErrorType, phase Phase, message string) *WireError {
	return &WireError{Type: t, Message: message, Phase: phase}
}

// wireFloat marshals to a JSON number, or to null when the value is NaN or
// +/-Inf.
type wireFloat float64

func (f wireFloat) MarshalJSON() ([]byte, error) {
	if !types.Finite(float64(f)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

func wireFloats(vs []float64) []wireFloat {
	if vs == nil {
		return nil
	}
	out := make([]wireFloat, len(vs))
	for i, v := range vs {
		out[i] = wireFloat(v)
	}
	return out
}

// wireMarker and wireLevel mirror types.Marker/types.Level with
// null-coercing float fields.
type wireMarker struct {
	Index int       `json:"index"`
	Kind  string    `json:"kind"`
	Value wireFloat `json:"value"`
}

type wireLevel struct {
	From  int       `json:"from"`
	To    int       `json:"to"`
	Price wireFloat `json:"price"`
	Kind  string    `json:"kind"`
}

func wireMarkers(ms []types.Marker) []wireMarker {
	if ms == nil {
		return nil
	}
	out := make([]wireMarker, len(ms))
	for i, m := range ms {
		out[i] = wireMarker{Index: m.Index, Kind: string(m.Kind), Value: wireFloat(m.Value)}
	}
	return out
}

func wireLevels(ls []types.Level) []wireLevel {
	if ls == nil {
		return nil
	}
	out := make([]wireLevel, len(ls))
	for i, l := range ls {
		out[i] = wireLevel{From: l.From, To: l.To, Price: wireFloat(l.Price), Kind: string(l.Kind)}
	}
	return out
}

// Inputs holds the four parallel bar arrays as received over the wire.
type Inputs struct {
	Open  []float64 `json:"open"`
	High  []float64 `json:"high"`
	Low   []float64 `json:"low"`
	Close []float64 `json:"close"`
}

// Settings holds the subset of runner settings exposed over the wire.
type Settings struct {
	VisibilityMode string `json:"visibilityMode,omitempty"`
}

// Request is the top-level request object, accepted either nested
// ({"inputs":{...},"settings":{...}}) or flat ({"open":[...],...}).
type Request struct {
	Inputs   *Inputs   `json:"inputs,omitempty"`
	Settings *Settings `json:"settings,omitempty"`

	Open  []float64 `json:"open,omitempty"`
	High  []float64 `json:"high,omitempty"`
	Low   []float64 `json:"low,omitempty"`
	Close []float64 `json:"close,omitempty"`
}

// resolved flattens the nested-or-flat request into one Inputs value.
func (r Request) resolved() Inputs {
	if r.Inputs != nil {
		return *r.Inputs
	}
	return Inputs{Open: r.Open, High: r.High, Low: r.Low, Close: r.Close}
}

// visibilityMode returns the request's own visibilityMode when set, else
// defaultMode (the runner's configured default), else VisibilityAll.
func (r Request) visibilityMode(defaultMode types.VisibilityMode) types.VisibilityMode {
	if r.Settings != nil && r.Settings.VisibilityMode != "" {
		return types.VisibilityMode(r.Settings.VisibilityMode)
	}
	if defaultMode != "" {
		return defaultMode
	}
	return types.VisibilityAll
}

// DebugInfo is attached to a successful response when at least one marker
// survives visibility filtering.
type DebugInfo struct {
	MarkersCount int         `json:"markers_count"`
	FirstMarker  *wireMarker `json:"first_marker,omitempty"`
}

// Meta carries the runner's own bookkeeping about an invocation.
type Meta struct {
	ScriptPath  string  `json:"scriptPath"`
	ExecutionMs float64 `json:"executionMs"`
	TotalMs     float64 `json:"totalMs"`
}

// Response is the single JSON object written to stdout for every
// invocation, success or failure.
type Response struct {
	Ok         bool                   `json:"ok"`
	ApiVersion int                    `json:"apiVersion"`
	Series     map[string][]wireFloat `json:"series,omitempty"`
	Markers    []wireMarker           `json:"markers,omitempty"`
	Levels     []wireLevel            `json:"levels,omitempty"`
	Meta       *Meta                  `json:"meta,omitempty"`
	DebugInfo  *DebugInfo             `json:"debug_info,omitempty"`
	Error      *WireError             `json:"error,omitempty"`
}

// ApiVersion is the wire contract version this runner speaks.
const ApiVersion = 1
