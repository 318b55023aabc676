package audio

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync/atomic"
)

// Pulses per quarter note
const PPQN = 960.

// Playable is anything that consumes sample-accurate note events.
type Playable interface {
	NoteOn(offset, note int, velocity float64)
	NoteOff(offset, note int)
}

type Clip struct {
	Length     int
	instrument Playable
	notes      []note
}

func NewClip(length float64, p Playable) *Clip {
	return &Clip{
		Length:     int(length * PPQN),
		instrument: p,
	}
}

// AddNote places a note in the clip. Position is measured in beats from the
// start of the clip, length in beats; velocity is a 0-1 ratio.
func (c *Clip) AddNote(position float64, pitch int, velocity, length float64) {
	if pitch < 1 || pitch > 127 {
		return
	}
	c.notes = append(c.notes, note{
		pos:      int(position * PPQN),
		pitch:    pitch,
		velocity: velocity,
		length:   length,
	})
}

type note struct {
	pos      int     // position of the note measured in PPQN from the start of a clip
	pitch    int     // pitch as a midi note number
	velocity float64 // 0-1
	length   float64 // note length in beats
}

// pendingOff is a note off scheduled at an absolute time, measured in
// samples since the sequencer started.
type pendingOff struct {
	target Playable
	pitch  int
	at     uint64
}

// schedEvent is an event bound for a target within the upcoming buffer.
// Events are collected per tick and sorted by offset before delivery, since
// instruments consume their queue in order.
type schedEvent struct {
	target   Playable
	noteOff  bool
	offset   int
	pitch    int
	velocity float64
}

type Sequencer struct {
	*Props
	bpm          *atomic.Value
	clips        *atomic.Value
	sampleRate   float64
	totalPulses  uint64
	totalSamples uint64
	pending      []pendingOff
	scratch      []schedEvent
	oneShots     *oneShotBuffer
}

func NewSequencer(props *Props, sampleRate int) *Sequencer {
	clips := make(map[string]*Clip)
	return &Sequencer{
		Props:      props,
		sampleRate: float64(sampleRate),
		clips:      props.MustRegister("clips", setClips, clips),
		bpm:        props.MustRegister("bpm", setFloat64(0, 500), 120.0),
		oneShots:   newOneShotBuffer(64),
	}
}

// Play schedules a note to start at the top of the next buffer. It may be
// called from the control thread; the handoff to the audio thread is a
// single-producer/single-consumer queue.
func (s *Sequencer) Play(p Playable, pitch int, velocity, length float64) {
	s.oneShots.push(oneShot{target: p, pitch: pitch, velocity: velocity, length: length})
}

// Tick schedules all note events falling within the next numSamples frames:
// one-shots from the control thread, note offs that have come due, and clip
// notes entering the window. Each note on schedules its matching note off by
// absolute sample time, to be emitted in whatever buffer it lands in.
func (s *Sequencer) Tick(numSamples int) {
	bpm := s.bpm.Load().(float64)
	clips := s.clips.Load().(map[string]*Clip)
	s.scratch = s.scratch[:0]

	for i := 0; i < len(s.pending); {
		p := s.pending[i]
		if p.at < s.totalSamples+uint64(numSamples) {
			offset := 0
			if p.at > s.totalSamples {
				offset = int(p.at - s.totalSamples)
			}
			s.scratch = append(s.scratch, schedEvent{
				target:  p.target,
				noteOff: true,
				offset:  offset,
				pitch:   p.pitch,
			})
			s.pending[i] = s.pending[len(s.pending)-1]
			s.pending = s.pending[:len(s.pending)-1]
		} else {
			i++
		}
	}

	s.oneShots.drain(func(o oneShot) {
		s.scratch = append(s.scratch, schedEvent{
			target:   o.target,
			offset:   0,
			pitch:    o.pitch,
			velocity: o.velocity,
		})
		s.schedOff(o.target, o.pitch, s.totalSamples+uint64(s.noteDuration(o.length, bpm)))
	})

	// The number of pulses to schedule for each buffer will be fractional,
	// because the PPQN is not a multiple of the buffer size. Truncating it
	// causes the next pulse to be a few samples early, but it's not noticeable.
	numPulses := int(math.Floor(PPQN * (bpm / 60.) / (s.sampleRate / float64(numSamples))))
	samplesPerPulse := s.sampleRate / ((bpm * PPQN) / 60.)

	for _, clip := range clips {
		pos := int(s.totalPulses % uint64(clip.Length)) // current position within the clip
		nextPos := pos + numPulses                      // next position within the clip

		for _, note := range clip.notes {
			offset := -1
			if nextPos > clip.Length {
				// We've reached the end of the clip so also check the start of
				// the clip for notes to schedule.
				if note.pos >= pos {
					offset = int(math.Round(float64(note.pos-pos) * samplesPerPulse))
				} else if note.pos < nextPos-clip.Length {
					offset = int(math.Round(float64(clip.Length-pos+note.pos) * samplesPerPulse))
				}
			} else if note.pos >= pos && note.pos < nextPos {
				offset = int(math.Round(float64(note.pos-pos) * samplesPerPulse))
			}
			if offset < 0 {
				continue
			}
			s.scratch = append(s.scratch, schedEvent{
				target:   clip.instrument,
				offset:   offset,
				pitch:    note.pitch,
				velocity: note.velocity,
			})
			duration := s.noteDuration(note.length, bpm)
			s.schedOff(clip.instrument, note.pitch, s.totalSamples+uint64(offset+duration))
		}
	}

	// Deliver in timestamp order; the stable sort keeps note offs ahead of
	// note ons scheduled for the same frame.
	sort.SliceStable(s.scratch, func(i, j int) bool {
		return s.scratch[i].offset < s.scratch[j].offset
	})
	for _, ev := range s.scratch {
		if ev.noteOff {
			ev.target.NoteOff(ev.offset, ev.pitch)
		} else {
			ev.target.NoteOn(ev.offset, ev.pitch, ev.velocity)
		}
	}

	s.totalPulses += uint64(numPulses)
	s.totalSamples += uint64(numSamples)
}

func (s *Sequencer) schedOff(target Playable, pitch int, at uint64) {
	s.pending = append(s.pending, pendingOff{target: target, pitch: pitch, at: at})
}

// noteDuration converts a length in beats to samples.
func (s *Sequencer) noteDuration(length, bpm float64) int {
	return int(length * s.sampleRate / (bpm / 60.))
}

func setClips(v interface{}, dest *atomic.Value) error {
	if c, ok := v.(map[string]*Clip); ok {
		dest.Store(c)
		return nil
	}
	return fmt.Errorf("value is not a map of clips: %v", v)
}

// oneShot is a note played immediately from the control thread.
type oneShot struct {
	target   Playable
	pitch    int
	velocity float64
	length   float64 // beats
}

// oneShotBuffer is a lock-free spsc queue, same construction as the note
// event buffer but crossing from the control thread into Tick.
type oneShotBuffer struct {
	items       []oneShot
	read, write *uint32
}

func newOneShotBuffer(size int) *oneShotBuffer {
	if size <= 0 || size&(size-1) != 0 {
		panic("one-shot buffer size must be a power of 2")
	}
	return &oneShotBuffer{
		items: make([]oneShot, size),
		read:  new(uint32),
		write: new(uint32),
	}
}

func (b *oneShotBuffer) push(o oneShot) {
	for atomic.LoadUint32(b.write)-atomic.LoadUint32(b.read) == uint32(len(b.items)) {
		runtime.Gosched()
	}
	write := atomic.LoadUint32(b.write)
	b.items[write%uint32(len(b.items))] = o
	atomic.StoreUint32(b.write, write+1)
}

func (b *oneShotBuffer) drain(f func(oneShot)) {
	read := atomic.LoadUint32(b.read)
	write := atomic.LoadUint32(b.write)
	for read != write {
		f(b.items[read%uint32(len(b.items))])
		read++
	}
	atomic.StoreUint32(b.read, read)
}
