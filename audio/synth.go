package audio

import (
	"math"
	"sync/atomic"
)

// maxVoices is the polyphony of a Synth. The voice pool is never resized.
const maxVoices = 16

// noNote marks a voice that has not been assigned a note yet. A voice whose
// envelope has gone idle keeps its last note number; "free" means the
// envelope is idle, not that the note is cleared.
const noNote = -1

const (
	propLevel      = "level"
	propEnvAttack  = "env.attack"
	propEnvDecay   = "env.decay"
	propEnvSustain = "env.sustain"
	propEnvRelease = "env.release"
)

// voice binds one oscillator and one envelope to a sounding note. Voices are
// constructed once and reused for the life of the engine.
type voice struct {
	osc      osc
	env      envelope
	note     int
	velocity float64
}

// start snapshots the ADSR settings into the envelope, tunes the oscillator
// and begins the attack. The oscillator phase restarts at zero; the envelope
// level continues from wherever it was.
func (v *voice) start(note int, velocity, attack, decay, sustain, release float64) {
	v.note = note
	v.velocity = velocity
	v.env.attack = attack
	v.env.decay = decay
	v.env.sustain = sustain
	v.env.release = release
	v.osc.setFrequency(midiToFreq(note))
	v.osc.reset()
	v.env.noteOn()
}

func (v *voice) active() bool {
	return v.env.active()
}

// next advances the oscillator and the envelope exactly once each. Callers
// must invoke it at most once per frame per voice.
func (v *voice) next() float64 {
	return v.osc.next() * v.env.next() * v.velocity
}

// Synth is a fixed-polyphony sine instrument. Notes are delivered through a
// single-producer/single-consumer event queue tagged with in-buffer sample
// offsets, and rendered by Process on the audio thread. The render path does
// not allocate.
type Synth struct {
	*Props
	voices    []voice
	nextSteal int
	events    *eventBuffer
	gain      float64 // smoothed linear gain, touched only by Process

	level      *atomic.Value
	envAttack  *atomic.Value
	envDecay   *atomic.Value
	envSustain *atomic.Value
	envRelease *atomic.Value

	sampleRate float64
}

func NewSynth(sampleRate int, props *Props) *Synth {
	s := &Synth{
		Props:      props,
		voices:     make([]voice, maxVoices),
		events:     newEventBuffer(128),
		level:      props.MustRegister(propLevel, setLevel, -12.0),
		envAttack:  props.MustRegister(propEnvAttack, setSeconds, 0.01),
		envDecay:   props.MustRegister(propEnvDecay, setSeconds, 0.1),
		envSustain: props.MustRegister(propEnvSustain, setRatio, 0.7),
		envRelease: props.MustRegister(propEnvRelease, setSeconds, 0.2),
	}
	for i := range s.voices {
		s.voices[i].note = noNote
	}
	s.SetSampleRate(sampleRate)
	return s
}

// SetSampleRate rebuilds the per-voice time scaling so envelope durations
// stay correct in seconds. It must not race with Process; call it while the
// stream is stopped.
func (s *Synth) SetSampleRate(sampleRate int) {
	s.sampleRate = float64(sampleRate)
	for i := range s.voices {
		s.voices[i].osc.sampleRate = s.sampleRate
		s.voices[i].env.sampleRate = s.sampleRate
	}
}

// NoteOn schedules a note to start at the given frame offset within the next
// processed buffer.
func (s *Synth) NoteOn(offset, note int, velocity float64) {
	s.events.push(event{kind: eventNoteOn, offset: offset, note: note, velocity: velocity})
}

// NoteOff schedules the release of every voice holding note at the given
// frame offset. A note that no voice holds is a no-op.
func (s *Synth) NoteOff(offset, note int) {
	s.events.push(event{kind: eventNoteOff, offset: offset, note: note})
}

// ActiveVoices reports how many voices are currently sounding or releasing.
func (s *Synth) ActiveVoices() int {
	n := 0
	for i := range s.voices {
		if s.voices[i].active() {
			n++
		}
	}
	return n
}

// Process renders one buffer, adding the same mono mix into every channel.
// Queued events are dispatched at the exact frame they are tagged with,
// preserving their relative order within a frame.
func (s *Synth) Process(samples [][]float32) {
	frames := len(samples[0])
	gain := s.nextGain(frames)
	for n := 0; n < frames; n++ {
		s.events.iter(n+1, s.dispatch)
		var sum float64
		for i := range s.voices {
			v := &s.voices[i]
			if !v.active() {
				continue
			}
			sum += v.next()
		}
		mono := float32(sum * gain)
		for c := range samples {
			samples[c][n] += mono
		}
	}
	// Events tagged at or past the end of the buffer take effect at the
	// boundary, before the next buffer's first frame.
	s.events.iter(-1, s.dispatch)
}

// nextGain moves the linear gain toward the level property with a one-pole
// smoother (~50ms time constant) and returns the value used for the whole
// call.
func (s *Synth) nextGain(frames int) float64 {
	target := math.Pow(10, s.level.Load().(float64)/20.0)
	coeff := 1 - math.Exp(-float64(frames)/(0.05*s.sampleRate))
	s.gain += (target - s.gain) * coeff
	return s.gain
}

func (s *Synth) dispatch(ev event) {
	switch ev.kind {
	case eventNoteOn:
		s.noteOn(ev.note, ev.velocity)
	case eventNoteOff:
		s.noteOff(ev.note)
	}
}

func (s *Synth) noteOn(note int, velocity float64) {
	idx := s.findFreeVoice()
	if idx < 0 {
		idx = s.nextSteal
		s.nextSteal = (s.nextSteal + 1) % len(s.voices)
	}
	s.voices[idx].start(note, velocity,
		s.envAttack.Load().(float64),
		s.envDecay.Load().(float64),
		s.envSustain.Load().(float64),
		s.envRelease.Load().(float64))
}

// noteOff releases every voice holding the note. If the same note was
// assigned twice before the first copy was released, one note off releases
// both.
func (s *Synth) noteOff(note int) {
	for i := range s.voices {
		if s.voices[i].note == note {
			s.voices[i].env.noteOff()
		}
	}
}

// findFreeVoice returns the first voice, in index order, whose envelope is
// idle, or -1 when the pool is exhausted. Stealing is handled by the caller
// with a rotating cursor that moves independently of which voices are busy.
func (s *Synth) findFreeVoice() int {
	for i := range s.voices {
		if !s.voices[i].active() {
			return i
		}
	}
	return -1
}

func midiToFreq(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12.0)
}
