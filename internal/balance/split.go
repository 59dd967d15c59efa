package balance

import (
	"fmt"
	"math"
)

// ComputeShares allocates an expense amount across the given participants
// according to the split kind. The returned map always has one entry per
// participant id, zero for anyone the split leaves out.
//
//   - SplitEqual divides the amount evenly, each share rounded to 2 decimals.
//   - SplitCustom takes the caller's amounts verbatim; missing entries and
//     negative or NaN values become zero.
//   - SplitShares allocates proportionally to relative weights, defaulting to
//     weight 1 for participants without one. A zero total weight yields all
//     zero shares rather than an error, matching a group where everyone
//     opted out.
func ComputeShares(kind SplitKind, amount float64, participantIDs []uint, custom map[uint]float64, weights map[uint]float64) (map[uint]float64, error) {
	if len(participantIDs) == 0 {
		return map[uint]float64{}, nil
	}
	if math.IsNaN(amount) || amount < 0 {
		return nil, fmt.Errorf("invalid expense amount %v", amount)
	}

	out := make(map[uint]float64, len(participantIDs))
	switch kind {
	case SplitEqual:
		share := round2(amount / float64(len(participantIDs)))
		for _, id := range participantIDs {
			out[id] = share
		}
	case SplitCustom:
		for _, id := range participantIDs {
			v := custom[id]
			if math.IsNaN(v) || v < 0 {
				v = 0
			}
			out[id] = round2(v)
		}
	case SplitShares:
		var total float64
		for _, id := range participantIDs {
			w, ok := weights[id]
			if !ok {
				w = 1
			}
			if math.IsNaN(w) || w < 0 {
				w = 0
			}
			total += w
		}
		for _, id := range participantIDs {
			if total == 0 {
				out[id] = 0
				continue
			}
			w, ok := weights[id]
			if !ok {
				w = 1
			}
			if math.IsNaN(w) || w < 0 {
				w = 0
			}
			out[id] = round2(amount * w / total)
		}
	default:
		return nil, fmt.Errorf("unknown split kind %q", kind)
	}
	return out, nil
}
