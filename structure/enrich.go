// Package structure implements S4, the structural enrichment stage: HSH/LSL
// running extremes, bull/bear break events with impulse-origin swings,
// trend derivation, Protected High/Low with sweep refinement, and the MSC
// (continuation) / MSS (shift) events.
package structure

import (
	"math"
	"sort"

	"github.com/evdnx/msengine/bos"
	"github.com/evdnx/msengine/breaks"
	"github.com/evdnx/msengine/logger"
	"github.com/evdnx/msengine/types"
)

// noBreak is the sentinel used for "missing break index" when comparing
// trend timestamps; real break indices are always >= 1.
const noBreak = -1

// Result is everything S4 derives, handed to the overlay assembler (S5).
type Result struct {
	Markers []types.Marker
	Levels  []types.Level
	Trend   types.Trend
}

// Enrich runs S4 over the external swing list, consuming the break map
// produced by S3 (bos.Scan) instead of re-scanning for breaks. log may be
// nil, in which case anomalies are discarded.
func Enrich(ohlc types.OHLC, ext []types.Swing, breakMap bos.Map, log logger.Logger) Result {
	if log == nil {
		log = logger.Noop()
	}

	n := ohlc.Len()
	if len(ext) == 0 || n == 0 {
		return Result{Trend: types.TrendNone}
	}

	lastIdx := ext[len(ext)-1].Index

	var markers []types.Marker
	var levels []types.Level

	var lastHSH, lastLSL *types.Swing
	hshPromoted := map[int]bool{}
	lslPromoted := map[int]bool{}

	var bullEvents, bearEvents []types.BreakEvent
	var lastBullBreak, lastBearBreak *types.BreakEvent

	for idx, s := range ext {
		if !validSwing(s, n) {
			log.Warn("corrupt swing record skipped",
				logger.Int("index", s.Index),
				logger.String("kind", string(s.Kind)),
				logger.Float64("price", s.Price))
			continue
		}

		switch s.Kind {
		case types.SwingHighKind:
			if lastHSH == nil || s.Price > lastHSH.Price {
				promoted := s
				lastHSH = &promoted
				hshPromoted[s.Index] = true
				markers = append(markers, types.Marker{Index: s.Index, Kind: types.MarkerHSH, Value: s.Price})
				to := lastIdx
				if j, ok := breakMap.BreakIndex(s.Index); ok {
					to = j
				}
				levels = append(levels, types.Level{From: s.Index, To: to, Price: s.Price, Kind: types.LevelHSH})
			}

			if j, ok := breakMap.BreakIndex(s.Index); ok {
				if origin := impulseOriginLow(ext, idx, j); origin != nil {
					ev := types.BreakEvent{SwingIndex: s.Index, SwingPrice: s.Price, BreakIndex: j, Origin: *origin}
					bullEvents = append(bullEvents, ev)
					if lastBullBreak == nil || ev.BreakIndex >= lastBullBreak.BreakIndex {
						lastBullBreak = &bullEvents[len(bullEvents)-1]
					}
				}
			}

		case types.SwingLowKind:
			if lastLSL == nil || s.Price < lastLSL.Price {
				promoted := s
				lastLSL = &promoted
				lslPromoted[s.Index] = true
				markers = append(markers, types.Marker{Index: s.Index, Kind: types.MarkerLSL, Value: s.Price})
				to := lastIdx
				if j, ok := breakMap.BreakIndex(s.Index); ok {
					to = j
				}
				levels = append(levels, types.Level{From: s.Index, To: to, Price: s.Price, Kind: types.LevelLSL})
			}

			if j, ok := breakMap.BreakIndex(s.Index); ok {
				if origin := impulseOriginHigh(ext, idx, j); origin != nil {
					ev := types.BreakEvent{SwingIndex: s.Index, SwingPrice: s.Price, BreakIndex: j, Origin: *origin}
					bearEvents = append(bearEvents, ev)
					if lastBearBreak == nil || ev.BreakIndex >= lastBearBreak.BreakIndex {
						lastBearBreak = &bearEvents[len(bearEvents)-1]
					}
				}
			}
		}
	}

	trend := deriveTrend(lastBullBreak, lastBearBreak)

	tb, tB := noBreak, noBreak
	if lastBullBreak != nil {
		tb = lastBullBreak.BreakIndex
	}
	if lastBearBreak != nil {
		tB = lastBearBreak.BreakIndex
	}

	// PH and PL are mutually exclusive: exactly one side survives per the
	// already-derived trend (the side whose last break is newer), never
	// both. Matches original_source's "if last_bull_break and
	// last_bear_break: protected_low if newer else protected_high".
	var pl, ph *types.Swing
	switch trend {
	case types.TrendBullish:
		pl = protectedLow(bullEvents, lastBullBreak, tB, hshPromoted)
	case types.TrendBearish:
		ph = protectedHigh(bearEvents, lastBearBreak, tb, lslPromoted)
	}

	if pl != nil {
		markers = append(markers, types.Marker{Index: pl.Index, Kind: types.MarkerProtectedLo, Value: pl.Price})
		levels = append(levels, types.Level{From: pl.Index, To: lastIdx, Price: pl.Price, Kind: types.LevelProtectedLow})
	}
	if ph != nil {
		markers = append(markers, types.Marker{Index: ph.Index, Kind: types.MarkerProtectedHi, Value: ph.Price})
		levels = append(levels, types.Level{From: ph.Index, To: lastIdx, Price: ph.Price, Kind: types.LevelProtectedHigh})
	}

	// Protected-level sweep refinement (§4.4): relocates price only, never
	// the index, and never feeds back into trend. Runs after the marker/
	// level are emitted so the in-place rewrite below actually finds them.
	if pl != nil && lastBullBreak != nil {
		refineProtectedLow(ohlc, pl, lastBullBreak.BreakIndex, &markers, &levels)
	}
	if ph != nil && lastBearBreak != nil {
		refineProtectedHigh(ohlc, ph, lastBearBreak.BreakIndex, &markers, &levels)
	}

	// HSH/LSL sweep refinement happens after the current HSH/LSL and any
	// protected level are known, since it rewrites already-emitted entries
	// in place.
	if lastHSH != nil {
		refineHSH(ohlc, lastHSH, &markers, &levels)
	}
	if lastLSL != nil {
		refineLSL(ohlc, lastLSL, &markers, &levels)
	}

	markers = append(markers, msc(bullEvents, tB, types.MarkerMSCBullish)...)
	markers = append(markers, msc(bearEvents, tb, types.MarkerMSCBearish)...)
	levels = append(levels, mscLegs(bullEvents, tB)...)
	levels = append(levels, mscLegs(bearEvents, tb)...)

	mssMarkers, mssLevels := shift(ohlc, ext, pl, ph, lastBullBreak, lastBearBreak, lastIdx)
	markers = append(markers, mssMarkers...)
	levels = append(levels, mssLevels...)

	return Result{Markers: markers, Levels: levels, Trend: trend}
}

// validSwing guards field extraction against a corrupt swing record (out
// of bounds index, unrecognized kind, non-finite price) so one bad record
// is skipped rather than aborting the pass (§7).
func validSwing(s types.Swing, n int) bool {
	if s.Index < 0 || s.Index >= n {
		return false
	}
	if s.Kind != types.SwingHighKind && s.Kind != types.SwingLowKind {
		return false
	}
	return !math.IsNaN(s.Price) && !math.IsInf(s.Price, 0)
}

func deriveTrend(lastBull, lastBear *types.BreakEvent) types.Trend {
	if lastBull == nil && lastBear == nil {
		return types.TrendNone
	}
	tb, tB := noBreak, noBreak
	if lastBull != nil {
		tb = lastBull.BreakIndex
	}
	if lastBear != nil {
		tB = lastBear.BreakIndex
	}
	if tb >= tB {
		return types.TrendBullish
	}
	return types.TrendBearish
}

// impulseOriginLow finds the impulse-origin swing-low for a bull break of
// the swing at position idx in ext, breaking at bar breakIdx: the lowest
// swing-low strictly between idx and the external position that first
// reaches breakIdx, falling back to the nearest earlier swing-low.
func impulseOriginLow(ext []types.Swing, idx, breakIdx int) *types.Swing {
	k := len(ext)
	for p := idx + 1; p < len(ext); p++ {
		if ext[p].Index >= breakIdx {
			k = p
			break
		}
	}

	var best *types.Swing
	for p := idx + 1; p < k; p++ {
		if ext[p].Kind != types.SwingLowKind {
			continue
		}
		if best == nil || ext[p].Price <= best.Price {
			tmp := ext[p]
			best = &tmp
		}
	}
	if best != nil {
		return best
	}
	for p := idx - 1; p >= 0; p-- {
		if ext[p].Kind == types.SwingLowKind {
			tmp := ext[p]
			return &tmp
		}
	}
	return nil
}

// impulseOriginHigh mirrors impulseOriginLow for bear breaks.
func impulseOriginHigh(ext []types.Swing, idx, breakIdx int) *types.Swing {
	k := len(ext)
	for p := idx + 1; p < len(ext); p++ {
		if ext[p].Index >= breakIdx {
			k = p
			break
		}
	}

	var best *types.Swing
	for p := idx + 1; p < k; p++ {
		if ext[p].Kind != types.SwingHighKind {
			continue
		}
		if best == nil || ext[p].Price >= best.Price {
			tmp := ext[p]
			best = &tmp
		}
	}
	if best != nil {
		return best
	}
	for p := idx - 1; p >= 0; p-- {
		if ext[p].Kind == types.SwingHighKind {
			tmp := ext[p]
			return &tmp
		}
	}
	return nil
}

// protectedLow derives the Protected Low per §4.4: among bull events after
// the last bear break, prefer the HSH-promoted subset, else the whole
// segment; pick the origin with minimum price (ties: latest wins). Falls
// back to the most recent bull break's origin when the segment is empty.
func protectedLow(bullEvents []types.BreakEvent, lastBull *types.BreakEvent, afterBear int, hshPromoted map[int]bool) *types.Swing {
	if lastBull == nil {
		return nil
	}
	var candidates []types.BreakEvent
	for _, ev := range bullEvents {
		if ev.BreakIndex > afterBear {
			candidates = append(candidates, ev)
		}
	}
	if len(candidates) == 0 {
		origin := lastBull.Origin
		return &origin
	}

	chosen := candidates
	var hshSubset []types.BreakEvent
	for _, ev := range candidates {
		if hshPromoted[ev.SwingIndex] {
			hshSubset = append(hshSubset, ev)
		}
	}
	if len(hshSubset) > 0 {
		chosen = hshSubset
	}

	var best *types.Swing
	for _, ev := range chosen {
		o := ev.Origin
		if best == nil || o.Price <= best.Price {
			tmp := o
			best = &tmp
		}
	}
	return best
}

// protectedHigh mirrors protectedLow for the bearish side.
func protectedHigh(bearEvents []types.BreakEvent, lastBear *types.BreakEvent, afterBull int, lslPromoted map[int]bool) *types.Swing {
	if lastBear == nil {
		return nil
	}
	var candidates []types.BreakEvent
	for _, ev := range bearEvents {
		if ev.BreakIndex > afterBull {
			candidates = append(candidates, ev)
		}
	}
	if len(candidates) == 0 {
		origin := lastBear.Origin
		return &origin
	}

	chosen := candidates
	var lslSubset []types.BreakEvent
	for _, ev := range candidates {
		if lslPromoted[ev.SwingIndex] {
			lslSubset = append(lslSubset, ev)
		}
	}
	if len(lslSubset) > 0 {
		chosen = lslSubset
	}

	var best *types.Swing
	for _, ev := range chosen {
		o := ev.Origin
		if best == nil || o.Price >= best.Price {
			tmp := o
			best = &tmp
		}
	}
	return best
}

// refineProtectedLow scans (pl.Index, breakIdx] for sweep candles (low
// below the level but the body closes above it) and, if any exist,
// relocates pl's price to the minimum sweep low (ties: later), rewriting
// the matching protected-low marker/level entries in place.
func refineProtectedLow(ohlc types.OHLC, pl *types.Swing, breakIdx int, markers *[]types.Marker, levels *[]types.Level) {
	level := pl.Price
	found := false
	bestLow := 0.0
	for j := pl.Index + 1; j <= breakIdx && j < ohlc.Len(); j++ {
		if ohlc.Low[j] < level && min2(ohlc.Open[j], ohlc.Close[j]) > level {
			if !found || ohlc.Low[j] <= bestLow {
				bestLow = ohlc.Low[j]
				found = true
			}
		}
	}
	if !found {
		return
	}
	pl.Price = bestLow
	for i := range *markers {
		if (*markers)[i].Kind == types.MarkerProtectedLo && (*markers)[i].Index == pl.Index {
			(*markers)[i].Value = bestLow
		}
	}
	for i := range *levels {
		if (*levels)[i].Kind == types.LevelProtectedLow && (*levels)[i].From == pl.Index {
			(*levels)[i].Price = bestLow
		}
	}
}

// refineProtectedHigh mirrors refineProtectedLow for Protected High.
func refineProtectedHigh(ohlc types.OHLC, ph *types.Swing, breakIdx int, markers *[]types.Marker, levels *[]types.Level) {
	level := ph.Price
	found := false
	bestHigh := 0.0
	for j := ph.Index + 1; j <= breakIdx && j < ohlc.Len(); j++ {
		if ohlc.High[j] > level && max2(ohlc.Open[j], ohlc.Close[j]) < level {
			if !found || ohlc.High[j] >= bestHigh {
				bestHigh = ohlc.High[j]
				found = true
			}
		}
	}
	if !found {
		return
	}
	ph.Price = bestHigh
	for i := range *markers {
		if (*markers)[i].Kind == types.MarkerProtectedHi && (*markers)[i].Index == ph.Index {
			(*markers)[i].Value = bestHigh
		}
	}
	for i := range *levels {
		if (*levels)[i].Kind == types.LevelProtectedHigh && (*levels)[i].From == ph.Index {
			(*levels)[i].Price = bestHigh
		}
	}
}

// refineHSH scans forward from the current HSH until the first valid high
// break of its level, treating any bar along the way whose wick exceeds
// the level but whose body stays under it as a sweep. The HSH price is
// relocated to the maximum sweep high and the matching marker/level
// entries are rewritten in place.
func refineHSH(ohlc types.OHLC, hsh *types.Swing, markers *[]types.Marker, levels *[]types.Level) {
	level := hsh.Price
	var sweepHighs []int
	bestHigh := 0.0
	found := false
	for j := hsh.Index + 1; j < ohlc.Len(); j++ {
		if breaks.ValidHighBreak(ohlc.Open[j], ohlc.Close[j], ohlc.High[j], level) {
			break
		}
		if ohlc.High[j] > level && max2(ohlc.Open[j], ohlc.Close[j]) < level {
			sweepHighs = append(sweepHighs, j)
			if !found || ohlc.High[j] >= bestHigh {
				bestHigh = ohlc.High[j]
				found = true
			}
		}
	}
	if !found {
		return
	}
	hsh.Price = bestHigh
	for _, j := range sweepHighs {
		*levels = append(*levels, types.Level{From: j, To: j, Price: ohlc.High[j], Kind: types.LevelHSHSweep})
	}
	for i := range *markers {
		if (*markers)[i].Kind == types.MarkerHSH && (*markers)[i].Index == hsh.Index {
			(*markers)[i].Value = bestHigh
		}
	}
	for i := range *levels {
		if (*levels)[i].Kind == types.LevelHSH && (*levels)[i].From == hsh.Index {
			(*levels)[i].Price = bestHigh
		}
	}
}

// refineLSL mirrors refineHSH for the current LSL.
func refineLSL(ohlc types.OHLC, lsl *types.Swing, markers *[]types.Marker, levels *[]types.Level) {
	level := lsl.Price
	var sweepLows []int
	bestLow := 0.0
	found := false
	for j := lsl.Index + 1; j < ohlc.Len(); j++ {
		if breaks.ValidLowBreak(ohlc.Open[j], ohlc.Close[j], ohlc.Low[j], level) {
			break
		}
		if ohlc.Low[j] < level && min2(ohlc.Open[j], ohlc.Close[j]) > level {
			sweepLows = append(sweepLows, j)
			if !found || ohlc.Low[j] <= bestLow {
				bestLow = ohlc.Low[j]
				found = true
			}
		}
	}
	if !found {
		return
	}
	lsl.Price = bestLow
	for _, j := range sweepLows {
		*levels = append(*levels, types.Level{From: j, To: j, Price: ohlc.Low[j], Kind: types.LevelLSLSweep})
	}
	for i := range *markers {
		if (*markers)[i].Kind == types.MarkerLSL && (*markers)[i].Index == lsl.Index {
			(*markers)[i].Value = bestLow
		}
	}
	for i := range *levels {
		if (*levels)[i].Kind == types.LevelLSL && (*levels)[i].From == lsl.Index {
			(*levels)[i].Price = bestLow
		}
	}
}

// msc emits a continuation marker for every event after the first, within
// the segment of events that belong to the current trend (break index
// strictly after the opposite side's last break).
func msc(events []types.BreakEvent, afterOpposite int, kind types.MarkerKind) []types.Marker {
	segment := trendSegment(events, afterOpposite)
	if len(segment) <= 1 {
		return nil
	}
	var out []types.Marker
	for _, ev := range segment[1:] {
		out = append(out, types.Marker{Index: ev.BreakIndex, Kind: kind, Value: ev.SwingPrice})
	}
	return out
}

func mscLegs(events []types.BreakEvent, afterOpposite int) []types.Level {
	segment := trendSegment(events, afterOpposite)
	if len(segment) <= 1 {
		return nil
	}
	var out []types.Level
	for _, ev := range segment[1:] {
		out = append(out, types.Level{From: ev.Origin.Index, To: ev.BreakIndex, Price: ev.Origin.Price, Kind: types.LevelMSCLeg})
	}
	return out
}

func trendSegment(events []types.BreakEvent, afterOpposite int) []types.BreakEvent {
	var segment []types.BreakEvent
	for _, ev := range events {
		if ev.BreakIndex > afterOpposite {
			segment = append(segment, ev)
		}
	}
	sort.SliceStable(segment, func(i, j int) bool { return segment[i].BreakIndex < segment[j].BreakIndex })
	return segment
}

// shift implements MSS (§4.4): at most one per call, bearish preferred
// over bullish.
func shift(ohlc types.OHLC, ext []types.Swing, pl, ph *types.Swing, lastBull, lastBear *types.BreakEvent, lastIdx int) ([]types.Marker, []types.Level) {
	n := ohlc.Len()

	if pl != nil && lastBull != nil {
		start := pl.Index + 1
		if lastBull.BreakIndex+1 > start {
			start = lastBull.BreakIndex + 1
		}
		for j := start; j < n; j++ {
			if breaks.ValidLowBreak(ohlc.Open[j], ohlc.Close[j], ohlc.Low[j], pl.Price) {
				markers := []types.Marker{{Index: j, Kind: types.MarkerMSSBearish, Value: ohlc.Low[j]}}
				levels := []types.Level{{From: pl.Index, To: j, Price: pl.Price, Kind: types.LevelProtectedLow}}
				if newPH := mostRecentAtOrBefore(ext, types.SwingHighKind, j); newPH != nil {
					markers = append(markers, types.Marker{Index: newPH.Index, Kind: types.MarkerProtectedHi, Value: newPH.Price})
					levels = append(levels, types.Level{From: newPH.Index, To: lastIdx, Price: newPH.Price, Kind: types.LevelProtectedHigh})
				}
				return markers, levels
			}
		}
	}

	if ph != nil && lastBear != nil {
		start := ph.Index + 1
		if lastBear.BreakIndex+1 > start {
			start = lastBear.BreakIndex + 1
		}
		for j := start; j < n; j++ {
			if breaks.ValidHighBreak(ohlc.Open[j], ohlc.Close[j], ohlc.High[j], ph.Price) {
				markers := []types.Marker{{Index: j, Kind: types.MarkerMSSBullish, Value: ohlc.High[j]}}
				levels := []types.Level{{From: ph.Index, To: j, Price: ph.Price, Kind: types.LevelProtectedHigh}}
				if newPL := mostRecentAtOrBefore(ext, types.SwingLowKind, j); newPL != nil {
					markers = append(markers, types.Marker{Index: newPL.Index, Kind: types.MarkerProtectedLo, Value: newPL.Price})
					levels = append(levels, types.Level{From: newPL.Index, To: lastIdx, Price: newPL.Price, Kind: types.LevelProtectedLow})
				}
				return markers, levels
			}
		}
	}

	return nil, nil
}

func mostRecentAtOrBefore(ext []types.Swing, kind types.SwingKind, idx int) *types.Swing {
	for p := len(ext) - 1; p >= 0; p-- {
		if ext[p].Index <= idx && ext[p].Kind == kind {
			tmp := ext[p]
			return &tmp
		}
	}
	return nil
}

func min2(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max2(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
