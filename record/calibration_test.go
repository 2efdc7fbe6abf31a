package record

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mastercactapus/glovelink/frame"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, 0.0, Normalize(50, 50, 150))
	assert.Equal(t, 1.0, Normalize(150, 50, 150))
	assert.InDelta(t, 0.3, Normalize(80, 50, 150), 1e-9)

	// clamped
	assert.Equal(t, 0.0, Normalize(10, 50, 150))
	assert.Equal(t, 1.0, Normalize(900, 50, 150))

	// degenerate and inverted ranges
	for _, raw := range []int{-100, 0, 100, 500} {
		assert.Equal(t, 0.0, Normalize(raw, 100, 100))
		assert.Equal(t, 0.0, Normalize(raw, 650, 440))
	}

	// NaN calibration never escapes [0,1]
	nan := math.NaN()
	assert.Equal(t, 0.0, Normalize(500, nan, 900))
	assert.Equal(t, 0.0, Normalize(500, 440, nan))
	assert.Equal(t, 0.0, Normalize(500, nan, nan))
	assert.Equal(t, 0.0, Normalize(500, math.Inf(-1), 900))
}

func TestCalibration_Validate(t *testing.T) {
	ok := []float64{1, 2, 3, 4, 5}
	assert.NoError(t, Calibration{Baseline: ok, MaxBend: ok}.Validate())
	assert.NoError(t, Calibration{Baseline: append(ok, 6), MaxBend: ok}.Validate())
	assert.ErrorIs(t, Calibration{Baseline: ok[:4], MaxBend: ok}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, Calibration{Baseline: ok, MaxBend: nil}.Validate(), ErrInvalidInput)
}

func TestCalibration_Apply(t *testing.T) {
	cal := Calibration{
		Baseline: []float64{440, 612, 618, 548, 528},
		MaxBend:  []float64{650, 900, 900, 850, 800},
	}
	got := cal.Apply(frame.Sample{Channels: [frame.Channels]int{440, 900, 759, 500, 1000}})
	assert.Equal(t, 0.0, got[0])
	assert.Equal(t, 1.0, got[1])
	assert.InDelta(t, 0.5, got[2], 1e-9)
	assert.Equal(t, 0.0, got[3])
	assert.Equal(t, 1.0, got[4])
}
