package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"polysine/audio"
)

func main() {
	var (
		bpm     = flag.Float64("bpm", 120, "initial tempo in beats per minute")
		run     = flag.String("run", "", "run commands from a file before reading input")
		bounce  = flag.String("bounce", "", "render to a wav file instead of opening an audio device")
		seconds = flag.Float64("seconds", 8, "length of a bounce in seconds")
	)
	flag.Parse()

	const (
		sampleRate = 44100
		bufferSize = 512
	)

	synth := audio.NewSynth(sampleRate, audio.NewProps())
	seq := audio.NewSequencer(audio.NewProps(), sampleRate)
	if err := seq.Set("bpm", *bpm); err != nil {
		log.Fatal(err)
	}

	env := &env{
		sequencer: seq,
		synth:     synth,
		devices: map[string]audio.Device{
			"synth": synth,
			"seq":   seq,
		},
	}

	var commands []string
	if *run != "" {
		f, err := os.Open(*run)
		if err != nil {
			log.Fatal(err)
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				commands = append(commands, line)
			}
		}
		if err := scanner.Err(); err != nil {
			log.Fatal(err)
		}
		f.Close()
	}

	if *bounce != "" {
		sink := audio.NewOfflineSink()
		sink.AddTicker(seq)
		sink.AddSources(synth)
		runCommands(env, commands)
		f, err := os.Create(*bounce)
		if err != nil {
			log.Fatal(err)
		}
		frames := int(*seconds * sampleRate)
		if err := audio.Bounce(f, sink, sampleRate, frames, bufferSize); err != nil {
			log.Fatal(err)
		}
		if err := f.Close(); err != nil {
			log.Fatal(err)
		}
		return
	}

	sink, err := audio.NewSink(sampleRate, bufferSize)
	if err != nil {
		log.Fatal(err)
	}
	defer sink.Stop()
	sink.AddTicker(seq)
	sink.AddSources(synth)
	if err := sink.Start(); err != nil {
		log.Fatal(err)
	}

	runCommands(env, commands)
	if err := repl(env); err != nil && err != io.EOF {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runCommands(env *env, commands []string) {
	for _, line := range commands {
		if _, err := env.eval(line); err != nil {
			log.Fatal(err)
		}
	}
}
