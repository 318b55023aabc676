package audio

import "math"

const twoPi = 2 * math.Pi

// osc is a naive sine oscillator. Phase is kept in the range [0, 1) and
// advanced by freq/sampleRate each sample.
type osc struct {
	phase      float64
	freq       float64
	sampleRate float64
}

func (o *osc) setFrequency(freq float64) {
	o.freq = freq
}

func (o *osc) reset() {
	o.phase = 0
}

// next returns the sample for the current phase, then advances. The phase
// increment is always below 1 for any audible frequency, so a single
// subtraction is enough to wrap.
func (o *osc) next() float64 {
	s := math.Sin(o.phase * twoPi)
	o.phase += o.freq / o.sampleRate
	if o.phase >= 1 {
		o.phase--
	}
	return s
}
