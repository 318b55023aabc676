package audio

import "testing"

// testEnvelope uses times whose per-sample steps are exact binary fractions,
// so stage boundaries land on predictable samples.
func testEnvelope() envelope {
	return envelope{
		attack:     0.008, // 8 samples at 1 kHz
		decay:      0.004, // 4 samples from 1 down to sustain 0.5
		sustain:    0.5,
		release:    0.016,
		sampleRate: 1000,
	}
}

func TestEnvelopeStageSequence(t *testing.T) {
	e := testEnvelope()
	if e.active() {
		t.Fatal("new envelope should be idle")
	}
	if got := e.next(); got != 0 {
		t.Fatalf("idle envelope should output 0: got %v", got)
	}

	e.noteOn()
	var stages []envStage
	last := envStage(-1)
	record := func() {
		if e.stage != last {
			stages = append(stages, e.stage)
			last = e.stage
		}
	}

	for n := 0; n < 100 && e.stage != envSustain; n++ {
		v := e.next()
		if v < 0 || v > 1 {
			t.Fatalf("level out of range [0, 1]: %v", v)
		}
		record()
	}
	e.noteOff()
	for n := 0; n < 10000 && e.active(); n++ {
		v := e.next()
		if v < 0 || v > 1 {
			t.Fatalf("level out of range [0, 1]: %v", v)
		}
		record()
	}

	want := []envStage{envAttack, envDecay, envSustain, envRelease, envIdle}
	if len(stages) != len(want) {
		t.Fatalf("wrong stage sequence: want %v, got %v", want, stages)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Fatalf("wrong stage sequence: want %v, got %v", want, stages)
		}
	}
	if e.level != 0 {
		t.Errorf("idle level should be forced to exactly 0: got %v", e.level)
	}
}

func TestEnvelopeAttackReachesOne(t *testing.T) {
	e := testEnvelope()
	e.noteOn()
	for n := 0; n < 7; n++ {
		e.next()
	}
	if e.stage != envAttack {
		t.Fatalf("should still be in attack after 7 of 8 samples: got %v", e.stage)
	}
	if got := e.next(); got != 1 {
		t.Errorf("attack should clamp to exactly 1: got %v", got)
	}
	if e.stage != envDecay {
		t.Errorf("hitting 1 should transition to decay: got %v", e.stage)
	}
}

func TestEnvelopeDecayClampsToSustain(t *testing.T) {
	e := testEnvelope()
	e.noteOn()
	for n := 0; n < 8; n++ {
		e.next() // attack
	}
	for n := 0; n < 3; n++ {
		prev := e.level
		if got := e.next(); got >= prev {
			t.Fatalf("decay should be monotonically decreasing: %v -> %v", prev, got)
		}
	}
	if got := e.next(); got != e.sustain {
		t.Errorf("decay should clamp to the sustain level: want %v, got %v", e.sustain, got)
	}
	if e.stage != envSustain {
		t.Errorf("reaching sustain should transition stages: got %v", e.stage)
	}
	for n := 0; n < 5; n++ {
		if got := e.next(); got != e.sustain {
			t.Errorf("sustain should hold steady: want %v, got %v", e.sustain, got)
		}
	}
}

func TestEnvelopeReleaseFromAttack(t *testing.T) {
	e := testEnvelope()
	e.noteOn()
	e.next()
	e.next()
	level := e.level
	e.noteOff()
	if e.stage != envRelease {
		t.Fatalf("note off should enter release from attack: got %v", e.stage)
	}
	if got := e.next(); got >= level {
		t.Errorf("release should decrease the level: %v -> %v", level, got)
	}
}

func TestEnvelopeRetriggerKeepsLevel(t *testing.T) {
	e := testEnvelope()
	e.noteOn()
	for n := 0; n < 12; n++ {
		e.next() // well into decay/sustain
	}
	e.noteOff()
	e.next()
	level := e.level
	if level == 0 {
		t.Fatal("level should be nonzero at retrigger time")
	}
	e.noteOn()
	if e.stage != envAttack {
		t.Fatalf("retrigger should enter attack: got %v", e.stage)
	}
	if got := e.next(); got <= level {
		t.Errorf("retrigger should ramp up from the current level: %v -> %v", level, got)
	}
}

func TestEnvelopeReleaseTerminates(t *testing.T) {
	e := testEnvelope()
	e.noteOn()
	for n := 0; n < 20; n++ {
		e.next()
	}
	e.noteOff()
	n := 0
	for ; e.active() && n < 100000; n++ {
		e.next()
	}
	if e.active() {
		t.Fatal("release never reached idle")
	}
	if e.level != 0 {
		t.Errorf("idle level should be exactly 0: got %v", e.level)
	}
	if n == 0 {
		t.Error("release should take at least one sample")
	}
}
