package main

import (
	"errors"
	"fmt"
	"strings"

	"polysine/audio"
	"polysine/dub"
)

// setCommand updates a device property: set synth env.attack 0.01
func setCommand(env *env, args []dub.Node) (string, error) {
	var device, prop string
	if err := readArgs(args[:2], &device, &prop); err != nil {
		return "", err
	}
	switch v := args[2].(type) {
	case dub.Number:
		return "", env.setProp(device, prop, float64(v))
	case dub.String:
		return "", env.setProp(device, prop, string(v))
	case dub.Identifier:
		return "", env.setProp(device, prop, string(v))
	default:
		return "", fmt.Errorf("unsupported property type: %v", v)
	}
}

func getCommand(env *env, args []dub.Node) (string, error) {
	var device, prop string
	if err := readArgs(args, &device, &prop); err != nil {
		return "", err
	}
	v, err := env.getProp(device, prop)
	if err != nil {
		return "", err
	}
	return fmt.Sprint(v), nil
}

// playCommand auditions a note: play 60 [velocity] [length-in-beats]
func playCommand(env *env, args []dub.Node) (string, error) {
	pitch, ok := args[0].(dub.Number)
	if !ok {
		return "", errors.New("expected a midi note number")
	}
	if pitch < 1 || pitch > 127 {
		return "", fmt.Errorf("note number out of range 1-127: %v", float64(pitch))
	}
	velocity := 1.0
	length := 1.0
	if len(args) > 1 {
		v, ok := args[1].(dub.Number)
		if !ok || v < 0 || v > 1 {
			return "", errors.New("velocity must be a number between 0 and 1")
		}
		velocity = float64(v)
	}
	if len(args) > 2 {
		l, ok := args[2].(dub.Number)
		if !ok || l <= 0 {
			return "", errors.New("length must be a positive number of beats")
		}
		length = float64(l)
	}
	env.sequencer.Play(env.synth, int(pitch), velocity, length)
	return "", nil
}

// loopCommand sets up a looping clip: loop name synth 4 [60 64 67 (72 76)]
func loopCommand(env *env, args []dub.Node) (string, error) {
	var clipName, device string
	var length float64
	var pattern []dub.Node
	if err := readArgs(args, &clipName, &device, &length, &pattern); err != nil {
		return "", err
	}
	dev, ok := env.devices[device]
	if !ok {
		return "", fmt.Errorf("unknown device: %s", device)
	}
	playable, ok := dev.(audio.Playable)
	if !ok {
		return "", fmt.Errorf("device is not playable: %s", device)
	}
	clip := audio.NewClip(length, playable)
	if err := evalPattern(pattern, clip, length, new(float64)); err != nil {
		return "", err
	}
	clips, err := copyClips(env)
	if err != nil {
		return "", err
	}
	clips[clipName] = clip
	return "", env.setProp("seq", "clips", clips)
}

func unloopCommand(env *env, args []dub.Node) (string, error) {
	var clipName string
	if err := readArgs(args, &clipName); err != nil {
		return "", err
	}
	clips, err := copyClips(env)
	if err != nil {
		return "", err
	}
	if _, ok := clips[clipName]; !ok {
		return "", fmt.Errorf("unknown clip: %s", clipName)
	}
	delete(clips, clipName)
	return "", env.setProp("seq", "clips", clips)
}

func presetCommand(env *env, args []dub.Node) (string, error) {
	var device, name string
	if err := readArgs(args, &device, &name); err != nil {
		return "", err
	}
	dev, ok := env.devices[device]
	if !ok {
		return "", fmt.Errorf("unknown device: %s", device)
	}
	return "", audio.LoadPreset(name, dev)
}

func presetsCommand(env *env, args []dub.Node) (string, error) {
	return strings.Join(audio.PresetNames(), " "), nil
}

func voicesCommand(env *env, args []dub.Node) (string, error) {
	return fmt.Sprintf("%d active", env.synth.ActiveVoices()), nil
}

// copyClips duplicates the sequencer's clip map so the live one is never
// modified in place.
func copyClips(env *env) (map[string]*audio.Clip, error) {
	v, err := env.getProp("seq", "clips")
	if err != nil {
		return nil, err
	}
	old, ok := v.(map[string]*audio.Clip)
	if !ok {
		return nil, fmt.Errorf("cannot convert %v to clips", v)
	}
	clips := make(map[string]*audio.Clip, len(old))
	for k, val := range old {
		clips[k] = val
	}
	return clips, nil
}

// evalPattern fills a clip from a pattern array. Each element takes an equal
// share of divLength: numbers are notes, identifiers are rests, tuples play
// their notes together, and nested arrays subdivide their slot.
func evalPattern(pattern dub.Array, clip *audio.Clip, divLength float64, pos *float64) error {
	if len(pattern) == 0 {
		return errors.New("empty pattern")
	}
	noteLength := divLength / float64(len(pattern))
	for _, item := range pattern {
		switch v := item.(type) {
		case dub.Number:
			clip.AddNote(*pos, int(v), 1.0, noteLength)
			*pos += noteLength
		case dub.Identifier:
			*pos += noteLength
		case dub.Tuple:
			for _, item := range v {
				if n, ok := item.(dub.Number); ok {
					clip.AddNote(*pos, int(n), 1.0, noteLength)
				}
			}
			*pos += noteLength
		case dub.Array:
			if err := evalPattern(v, clip, noteLength, pos); err != nil {
				return err
			}
		default:
			return fmt.Errorf("invalid %q in pattern %v", v, pattern)
		}
	}
	return nil
}

func readArgs(args []dub.Node, slots ...interface{}) error {
	if len(args) != len(slots) {
		return errors.New("not enough arguments")
	}
	for n, arg := range args {
		dest := slots[n]
		switch p := dest.(type) {
		case *string:
			switch s := arg.(type) {
			case dub.String:
				*p = string(s)
			case dub.Identifier:
				*p = string(s)
			default:
				return fmt.Errorf("argument error: expected a string or identifier")
			}
		case *float64:
			n, ok := arg.(dub.Number)
			if !ok {
				return fmt.Errorf("argument error: expected a number")
			}
			*p = float64(n)
		case *int:
			n, ok := arg.(dub.Number)
			if !ok {
				return fmt.Errorf("argument error: expected a number")
			}
			*p = int(n)
		case *[]dub.Node:
			arr, ok := arg.(dub.Array)
			if !ok {
				return fmt.Errorf("argument error: expected an array")
			}
			*p = arr
		default:
			panic("readArgs: unhandled destination type: " + fmt.Sprint(p))
		}
	}
	return nil
}
