package swing

import "github.com/evdnx/msengine/types"

// ExternalFilter collapses consecutive same-kind swings to their extreme,
// producing an alternating high/low sequence (S2). Within a run of same
// kind, the most extreme swing wins; on an exact tie the later swing wins
// ("latest wins" — deliberately preserved from the source lineage).
func ExternalFilter(swings []types.Swing) []types.Swing {
	if len(swings) == 0 {
		return nil
	}

	external := make([]types.Swing, 0, len(swings))
	external = append(external, swings[0])

	for _, s := range swings[1:] {
		last := &external[len(external)-1]
		if s.Kind != last.Kind {
			external = append(external, s)
			continue
		}
		switch s.Kind {
		case types.SwingHighKind:
			if s.Price >= last.Price {
				*last = s
			}
		case types.SwingLowKind:
			if s.Price <= last.Price {
				*last = s
			}
		}
	}
	return external
}
