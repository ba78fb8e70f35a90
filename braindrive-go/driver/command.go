// Package driver turns prediction events into vehicle control
// commands and telemetry.
package driver

import (
	"github.com/braindrive/braindrive/braindrive-golib/errors"
)

// Command is a discrete vehicle control action. The numeric values are
// part of the wire protocol and must not change.
type Command byte

const (
	Straight  Command = 0
	Left      Command = 1
	Headlight Command = 2
	Right     Command = 3
)

func (c Command) String() string {
	switch c {
	case Straight:
		return "straight"
	case Left:
		return "left"
	case Headlight:
		return "headlight"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// ParseCommand resolves a command by its configuration name.
func ParseCommand(name string) (Command, error) {
	switch name {
	case "straight":
		return Straight, nil
	case "left":
		return Left, nil
	case "headlight":
		return Headlight, nil
	case "right":
		return Right, nil
	default:
		return Straight, errors.Errorf("unknown command %q", name)
	}
}

// ParseCommandMap resolves a label→command-name table from
// configuration.
func ParseCommandMap(names map[string]string) (CommandMap, error) {
	commands := make(CommandMap, len(names))
	for label, name := range names {
		cmd, err := ParseCommand(name)
		if err != nil {
			return nil, errors.Wrapf(err, "label %q", label)
		}
		commands[label] = cmd
	}
	return commands, nil
}

// CommandMap maps predicted mental-task labels to commands, e.g.
// {"left_hand": Left, "right_hand": Right, "rest": Straight}.
type CommandMap map[string]Command

// Resolve returns the command for a predicted label.
func (m CommandMap) Resolve(label string) (Command, error) {
	cmd, ok := m[label]
	if !ok {
		return Straight, errors.Errorf("no command mapped for label %q", label)
	}
	return cmd, nil
}
