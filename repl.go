package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"polysine/audio"
	"polysine/dub"
)

type env struct {
	sequencer *audio.Sequencer
	synth     *audio.Synth
	devices   map[string]audio.Device
}

func (e *env) setProp(device, prop string, v interface{}) error {
	dev, ok := e.devices[device]
	if !ok {
		return fmt.Errorf("unknown device: %s", device)
	}
	return dev.Set(prop, v)
}

func (e *env) getProp(device, prop string) (interface{}, error) {
	dev, ok := e.devices[device]
	if !ok {
		return nil, fmt.Errorf("unknown device: %s", device)
	}
	return dev.Get(prop)
}

func (e *env) eval(input string) (string, error) {
	command, err := dub.Parse(input)
	if err != nil {
		return "", err
	}
	name := string(command.Name)
	for _, cmd := range commands {
		if name != cmd.name {
			continue
		}
		if cmd.arity < 0 {
			arity := -cmd.arity
			if len(command.Args) < arity {
				return "", fmt.Errorf("%s: wrong number of arguments: need at least %v, got %v",
					cmd.name, arity, len(command.Args))
			}
		} else if len(command.Args) != cmd.arity {
			return "", fmt.Errorf("%s: wrong number of arguments: want %v, got %v",
				cmd.name, cmd.arity, len(command.Args))
		}
		result, err := cmd.run(e, command.Args)
		if err != nil {
			return result, fmt.Errorf("%s error: %w", cmd.name, err)
		}
		return result, nil
	}
	return "", fmt.Errorf("unknown command: %s", name)
}

func repl(env *env) error {
	rl, err := readline.New("> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == io.EOF {
			return err
		}
		if err != nil {
			fmt.Println(err)
			continue
		}
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		if result, err := env.eval(line); err != nil {
			fmt.Println(err)
		} else if result != "" {
			fmt.Println(result)
		}
	}
}

type command struct {
	name  string
	run   func(*env, []dub.Node) (string, error)
	arity int // -n means len(args) must be >= n
}

var commands = []command{
	{"set", setCommand, 3},
	{"get", getCommand, 2},
	{"play", playCommand, -1},
	{"loop", loopCommand, 4},
	{"unloop", unloopCommand, 1},
	{"preset", presetCommand, 2},
	{"presets", presetsCommand, 0},
	{"voices", voicesCommand, 0},
}
