// internal/model/command.go
package model

import (
	"math"
	"strconv"

	"github.com/google/uuid"
)

// CommandKind represents the type of a program step
type CommandKind string

const (
	CommandUp               CommandKind = "UP"
	CommandDown             CommandKind = "DOWN"
	CommandIdleMicroseconds CommandKind = "IDLE_US"
)

// CommandID identifies a command inside a program
type CommandID = uuid.UUID

// argSpec describes one positional argument of a command
type argSpec struct {
	name    string
	integer bool
}

// commandArgs is the arity/type table for every allowed kind
var commandArgs = map[CommandKind][]argSpec{
	CommandUp:               {{name: "distance_mm"}, {name: "speed_mm_per_s"}},
	CommandDown:             {{name: "distance_mm"}, {name: "speed_mm_per_s"}},
	CommandIdleMicroseconds: {{name: "duration_us", integer: true}},
}

// firmwareCodes mirror the opcodes the controller uses when it runs a program
var firmwareCodes = map[CommandKind]uint8{
	CommandUp:               0x01,
	CommandDown:             0x02,
	CommandIdleMicroseconds: 0x03,
}

// AllCommandKinds returns the allowed kinds in display order
func AllCommandKinds() []CommandKind {
	return []CommandKind{CommandUp, CommandDown, CommandIdleMicroseconds}
}

// ParseCommandKind converts a wire name into a CommandKind
func ParseCommandKind(name string) (CommandKind, error) {
	kind := CommandKind(name)
	if !kind.IsValid() {
		return "", NewValidationError("command", name, "is not allowed")
	}
	return kind, nil
}

// IsValid checks if the kind is one of the allowed variants
func (k CommandKind) IsValid() bool {
	_, ok := commandArgs[k]
	return ok
}

// Arity returns the number of arguments the kind takes
func (k CommandKind) Arity() int {
	return len(commandArgs[k])
}

// ArgNames returns the argument names in positional order
func (k CommandKind) ArgNames() []string {
	specs := commandArgs[k]
	names := make([]string, len(specs))
	for i, spec := range specs {
		names[i] = spec.name
	}
	return names
}

// FirmwareCode returns the byte the controller firmware uses for this kind
func (k CommandKind) FirmwareCode() uint8 {
	return firmwareCodes[k]
}

// IsMove reports whether the kind moves the carriage
func (k CommandKind) IsMove() bool {
	return k == CommandUp || k == CommandDown
}

// Command is one motion or wait step
type Command struct {
	ID   CommandID   `json:"id"`
	Kind CommandKind `json:"command"`
	Args []float64   `json:"args"`
}

// NewCommand validates kind and arguments and returns a command without an id
func NewCommand(kind CommandKind, args []float64) (Command, error) {
	if err := ValidateCommand(kind, args); err != nil {
		return Command{}, err
	}

	copied := make([]float64, len(args))
	copy(copied, args)
	return Command{Kind: kind, Args: copied}, nil
}

// ValidateCommand checks args against the arity/type table
func ValidateCommand(kind CommandKind, args []float64) error {
	specs, ok := commandArgs[kind]
	if !ok {
		return NewValidationError("command", string(kind), "is not allowed")
	}

	if len(args) != len(specs) {
		return NewValidationError("args", string(kind),
			"expects "+strconv.Itoa(len(specs))+" arguments, got "+strconv.Itoa(len(args)))
	}

	for i, spec := range specs {
		value := args[i]
		field := spec.name
		switch {
		case math.IsNaN(value) || math.IsInf(value, 0):
			return NewValidationError(field, formatFloat(value), "must be a finite number")
		case value < 0:
			return NewValidationError(field, formatFloat(value), "must not be negative")
		case spec.integer && value != math.Trunc(value):
			return NewValidationError(field, formatFloat(value), "must be an integer")
		}
	}

	return nil
}

// Duration returns the advisory execution time of the command in seconds.
// A move with zero speed contributes nothing.
func (c Command) Duration() float64 {
	if len(c.Args) != c.Kind.Arity() {
		return 0
	}

	switch c.Kind {
	case CommandUp, CommandDown:
		distance, speed := c.Args[0], c.Args[1]
		if speed == 0 {
			return 0
		}
		return distance / speed
	case CommandIdleMicroseconds:
		return c.Args[0] / 1_000_000
	default:
		return 0
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
