// Package indicator resolves a script path to an in-process indicator
// implementation. Go cannot exec an arbitrary uncompiled script, so a
// registry keyed by the script's base name stands in for "loading a
// script": the runner's job-description (a script path) is honored, while
// the actual computation is a compiled Go function.
package indicator

import (
	"path/filepath"
	"strings"

	"github.com/evdnx/msengine/engine"
	"github.com/evdnx/msengine/logger"
	"github.com/evdnx/msengine/types"
)

// Func computes an overlay for one set of bars under a visibility mode.
type Func func(ohlc types.OHLC, mode types.VisibilityMode) (types.Overlay, error)

// Registry maps a script's base name (without directory or extension) to
// the Func that implements it.
type Registry struct {
	entries map[string]Func
	log     logger.Logger
}

// NewRegistry returns a registry pre-populated with every indicator this
// repository ships. log receives recoverable pipeline anomalies; a nil
// log is replaced with a no-op one.
func NewRegistry(log logger.Logger) *Registry {
	if log == nil {
		log = logger.Noop()
	}
	r := &Registry{entries: make(map[string]Func), log: log}
	r.Register("market-structure", r.marketStructure)
	r.Register("market_structure", r.marketStructure)
	return r
}

// Register adds or replaces the Func bound to name.
func (r *Registry) Register(name string, fn Func) {
	r.entries[name] = fn
}

// Resolve looks up the Func bound to scriptPath's base name, ignoring any
// directory components and file extension.
func (r *Registry) Resolve(scriptPath string) (Func, bool) {
	base := filepath.Base(scriptPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	fn, ok := r.entries[base]
	return fn, ok
}

func (r *Registry) marketStructure(ohlc types.OHLC, mode types.VisibilityMode) (types.Overlay, error) {
	return engine.Analyze(ohlc, engine.Options{VisibilityMode: mode, Logger: r.log})
}
