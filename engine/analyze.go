// Package engine wires the five-stage market structure pipeline (breaks,
// swing, bos, structure, overlay) into the single pure entry point the
// indicator runner calls.
package engine

import (
	"errors"
	"time"

	"github.com/evdnx/msengine/bos"
	"github.com/evdnx/msengine/logger"
	"github.com/evdnx/msengine/metrics"
	"github.com/evdnx/msengine/overlay"
	"github.com/evdnx/msengine/structure"
	"github.com/evdnx/msengine/swing"
	"github.com/evdnx/msengine/types"
)

// ErrInputShape is returned when the four bar arrays do not share a
// common length.
var ErrInputShape = errors.New("msengine: input arrays have unequal length")

// Options configures a single Analyze call. VisibilityMode defaults to
// types.VisibilityAll when left empty. Logger receives recoverable
// anomalies (corrupt swing records skipped per §7); it defaults to
// a no-op logger when left nil.
type Options struct {
	VisibilityMode types.VisibilityMode
	Logger         logger.Logger
}

// Analyze runs the full pipeline over ohlc and returns the resulting
// overlay. It never mutates ohlc.
func Analyze(ohlc types.OHLC, opts Options) (types.Overlay, error) {
	start := time.Now()
	defer func() { metrics.AnalyzeDuration.Observe(time.Since(start).Seconds()) }()

	if !ohlc.EqualLengths() {
		metrics.AnalyzeInvocationsTotal.WithLabelValues("input_shape_error").Inc()
		return types.Overlay{}, ErrInputShape
	}

	n := ohlc.Len()
	if n < 3 {
		metrics.AnalyzeInvocationsTotal.WithLabelValues("below_minimum_length").Inc()
		return types.Overlay{
			Series:  map[string][]float64{"main": append([]float64(nil), ohlc.Close...)},
			Markers: nil,
			Levels:  nil,
		}, nil
	}

	mode := opts.VisibilityMode
	if mode == "" {
		mode = types.VisibilityAll
	}
	log := opts.Logger
	if log == nil {
		log = logger.Noop()
	}

	raw := swing.Detect(ohlc.High, ohlc.Low)
	ext := swing.ExternalFilter(raw)

	breakMap, bosMarkers := bos.Scan(ohlc, ext)
	enriched := structure.Enrich(ohlc, ext, breakMap, log)

	markers := append(append([]types.Marker(nil), bosMarkers...), enriched.Markers...)
	levels := append([]types.Level(nil), enriched.Levels...)

	metrics.AnalyzeInvocationsTotal.WithLabelValues("ok").Inc()
	return overlay.Assemble(markers, levels, mode), nil
}
