package main

import (
	"math"
	"math/rand"

	"github.com/mastercactapus/glovelink/frame"
)

var (
	baselines = [frame.Channels]float64{440, 612, 618, 548, 528}
	maxBends  = [frame.Channels]float64{650, 900, 900, 850, 800}
)

// poses holds per-letter finger bends from 0 (straight) to 1 (fully bent),
// thumb first.
var poses = map[string][frame.Channels]float64{
	"A": {0.02, 0.68, 0.78, 0.65, 0.68},
	"B": {0.42, 0.13, 0.24, 0.26, 0.32},
	"C": {0.31, 0.56, 0.70, 0.59, 0.59},
	"D": {0.40, 0.04, 0.74, 0.64, 0.66},
	"E": {0.53, 0.61, 0.81, 0.64, 0.64},
	"F": {0.44, 0.43, 0.13, 0.22, 0.33},
	"I": {0.47, 0.68, 0.74, 0.66, 0.22},
	"K": {0.13, 0.00, 0.35, 0.65, 0.68},
	"O": {0.50, 0.50, 0.58, 0.58, 0.54},
	"S": {0.55, 0.67, 0.74, 0.68, 0.69},
	"T": {0.33, 0.20, 0.67, 0.63, 0.68},
	"V": {0.26, 0.03, 0.02, 0.95, 0.95},
	"W": {0.23, 0.12, 0.11, 0.22, 0.73},
	"X": {0.38, 0.47, 0.71, 0.65, 0.71},
	"Y": {0.00, 0.58, 0.71, 0.65, 0.24},
}

// raw converts a pose to sensor readings.
func raw(pose [frame.Channels]float64) [frame.Channels]int {
	var v [frame.Channels]int
	for i, b := range pose {
		v[i] = int(baselines[i] + b*(maxBends[i]-baselines[i]))
	}
	return v
}

// ease blends from a to b by f in [0,1] along a cosine curve.
func ease(a, b [frame.Channels]int, f float64) [frame.Channels]int {
	f = 0.5 - 0.5*math.Cos(f*math.Pi)
	var v [frame.Channels]int
	for i := range v {
		v[i] = a[i] + int(math.Round(float64(b[i]-a[i])*f))
	}
	return v
}

// noisy adds uniform jitter of up to level counts, clamped to the ADC range.
func noisy(rng *rand.Rand, v [frame.Channels]int, level float64) [frame.Channels]int {
	for i := range v {
		n := int(float64(v[i]) + (rng.Float64()*2-1)*level)
		v[i] = min(max(n, 0), 1023)
	}
	return v
}

// sequence generates readings that hold each letter for hold samples and
// then ease into the next one over blend samples.
type sequence struct {
	letters []string
	hold    int
	blend   int
	noise   float64
	rng     *rand.Rand

	idx  int
	step int
}

// Next returns the letter being shown and the next reading.
func (s *sequence) Next() (string, [frame.Channels]int) {
	cur := s.letters[s.idx]
	next := s.letters[(s.idx+1)%len(s.letters)]

	var v [frame.Channels]int
	if s.step < s.hold {
		v = raw(poses[cur])
	} else {
		f := float64(s.step-s.hold) / float64(s.blend)
		v = ease(raw(poses[cur]), raw(poses[next]), f)
	}

	s.step++
	if s.step >= s.hold+s.blend {
		s.step = 0
		s.idx = (s.idx + 1) % len(s.letters)
	}
	return cur, noisy(s.rng, v, s.noise)
}
