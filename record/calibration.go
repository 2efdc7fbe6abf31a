package record

import (
	"fmt"

	"github.com/mastercactapus/glovelink/frame"
)

// Calibration is the per-channel two-point calibration for one session.
type Calibration struct {
	Baseline []float64
	MaxBend  []float64
}

func (c Calibration) Validate() error {
	if len(c.Baseline) < frame.Channels {
		return fmt.Errorf("%w: baseline has %d entries, need %d", ErrInvalidInput, len(c.Baseline), frame.Channels)
	}
	if len(c.MaxBend) < frame.Channels {
		return fmt.Errorf("%w: max bend has %d entries, need %d", ErrInvalidInput, len(c.MaxBend), frame.Channels)
	}
	return nil
}

// Normalize maps raw onto [0,1] between baseline and maxBend. A degenerate
// or inverted range yields 0, as does a NaN calibration value.
func Normalize(raw int, baseline, maxBend float64) float64 {
	span := maxBend - baseline
	if !(span > 0) {
		return 0
	}
	v := (float64(raw) - baseline) / span
	switch {
	case !(v >= 0):
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Apply normalizes every channel of s. c must be valid.
func (c Calibration) Apply(s frame.Sample) [frame.Channels]float64 {
	var out [frame.Channels]float64
	for i, raw := range s.Channels {
		out[i] = Normalize(raw, c.Baseline[i], c.MaxBend[i])
	}
	return out
}
