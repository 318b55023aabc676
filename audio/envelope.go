package audio

type envStage int

const (
	envIdle envStage = iota
	envAttack
	envDecay
	envSustain
	envRelease
)

// envelope is a four stage ADSR amplitude generator. noteOn and noteOff are
// the only transitions triggered from outside; everything else happens on
// threshold crossings inside next. The level stays within [0, 1] and is
// exactly 0 whenever the stage is envIdle.
type envelope struct {
	attack  float64 // seconds
	decay   float64 // seconds
	sustain float64 // level, 0-1
	release float64 // seconds

	stage      envStage
	level      float64
	sampleRate float64
}

// noteOn starts the attack from the current level, so retriggering a voice
// that is still sounding ramps up from where it was instead of snapping to
// zero.
func (e *envelope) noteOn() {
	e.stage = envAttack
}

// noteOff is valid from any stage. Entering release from attack or decay
// cuts the ramp short, which is audible on fast retriggers.
func (e *envelope) noteOff() {
	e.stage = envRelease
}

func (e *envelope) active() bool {
	return e.stage != envIdle
}

func (e *envelope) next() float64 {
	switch e.stage {
	case envAttack:
		e.level += 1 / (e.attack * e.sampleRate)
		if e.level >= 1 {
			e.level = 1
			e.stage = envDecay
		}
	case envDecay:
		e.level -= (1 - e.sustain) / (e.decay * e.sampleRate)
		if e.level <= e.sustain {
			e.level = e.sustain
			e.stage = envSustain
		}
	case envSustain:
		return e.sustain
	case envRelease:
		// Exponential-style decay: the step shrinks with the level.
		e.level -= e.level / (e.release * e.sampleRate)
		if e.level <= 0.001 {
			e.level = 0
			e.stage = envIdle
		}
	}
	return e.level
}
