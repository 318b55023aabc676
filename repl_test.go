package main

import (
	"strings"
	"testing"

	"polysine/audio"
)

func newTestEnv() *env {
	const sampleRate = 44100
	synth := audio.NewSynth(sampleRate, audio.NewProps())
	sequencer := audio.NewSequencer(audio.NewProps(), sampleRate)
	return &env{
		sequencer: sequencer,
		synth:     synth,
		devices: map[string]audio.Device{
			"synth": synth,
			"seq":   sequencer,
		},
	}
}

func TestEvalSetGet(t *testing.T) {
	env := newTestEnv()
	if _, err := env.eval("set synth env.attack 0.25"); err != nil {
		t.Fatal(err)
	}
	result, err := env.eval("get synth env.attack")
	if err != nil {
		t.Fatal(err)
	}
	if result != "0.25" {
		t.Errorf("get returned %q, want %q", result, "0.25")
	}
}

func TestEvalLoopUnloop(t *testing.T) {
	env := newTestEnv()
	if _, err := env.eval("loop bass synth 4 [60 r (64 67)]"); err != nil {
		t.Fatal(err)
	}
	v, err := env.getProp("seq", "clips")
	if err != nil {
		t.Fatal(err)
	}
	clips := v.(map[string]*audio.Clip)
	if _, ok := clips["bass"]; !ok {
		t.Fatalf("clip not registered: %v", clips)
	}
	if _, err := env.eval("unloop bass"); err != nil {
		t.Fatal(err)
	}
	v, _ = env.getProp("seq", "clips")
	if clips := v.(map[string]*audio.Clip); len(clips) != 0 {
		t.Errorf("clip still registered after unloop: %v", clips)
	}
}

func TestEvalPreset(t *testing.T) {
	env := newTestEnv()
	if _, err := env.eval("preset synth \"pluck\""); err != nil {
		t.Fatal(err)
	}
	result, err := env.eval("get synth env.sustain")
	if err != nil {
		t.Fatal(err)
	}
	if result != "0" {
		t.Errorf("sustain = %q after pluck preset, want 0", result)
	}
}

func TestEvalErrors(t *testing.T) {
	env := newTestEnv()
	for _, test := range []struct {
		input string
		want  string
	}{
		{"bogus", "unknown command"},
		{"set synth level", "wrong number of arguments"},
		{"voices 1", "wrong number of arguments"},
		{"set drums level 0", "unknown device"},
		{"set synth level 99", "not in valid range"},
		{"play 200", "out of range"},
		{"loop bass synth 4 []", "empty pattern"},
		{"unloop nothing", "unknown clip"},
		{"preset synth \"nope\"", "unknown preset"},
	} {
		_, err := env.eval(test.input)
		if err == nil {
			t.Errorf("eval(%q): expected error", test.input)
			continue
		}
		if !strings.Contains(err.Error(), test.want) {
			t.Errorf("eval(%q) = %v, want error containing %q", test.input, err, test.want)
		}
	}
}
