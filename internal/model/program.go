// internal/model/program.go
package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Program represents an authored sequence of commands plus a version label
type Program struct {
	Version  string    `json:"version"`
	Commands []Command `json:"commands"`
}

// NewProgram creates an empty program
func NewProgram(version string) *Program {
	return &Program{
		Version:  version,
		Commands: []Command{},
	}
}

// AddCommand validates and appends a command, returning its new id
func (p *Program) AddCommand(kind CommandKind, args []float64) (CommandID, error) {
	command, err := NewCommand(kind, args)
	if err != nil {
		return uuid.Nil, err
	}

	command.ID = uuid.New()
	p.Commands = append(p.Commands, command)
	return command.ID, nil
}

// RemoveCommand deletes the command with the given id, keeping the order of the rest
func (p *Program) RemoveCommand(id CommandID) error {
	for i, command := range p.Commands {
		if command.ID == id {
			p.Commands = append(p.Commands[:i], p.Commands[i+1:]...)
			return nil
		}
	}
	return ErrCommandNotFound
}

// CommandsLen returns the number of commands
func (p *Program) CommandsLen() int {
	return len(p.Commands)
}

// EstimateDuration returns the advisory execution time in seconds
func (p *Program) EstimateDuration() float64 {
	return EstimateDuration(p.Commands)
}

// Clone returns a deep copy safe to hand out of a lock
func (p *Program) Clone() *Program {
	clone := &Program{
		Version:  p.Version,
		Commands: make([]Command, len(p.Commands)),
	}
	for i, command := range p.Commands {
		args := make([]float64, len(command.Args))
		copy(args, command.Args)
		clone.Commands[i] = Command{ID: command.ID, Kind: command.Kind, Args: args}
	}
	return clone
}

// EstimateDuration sums command durations in list order
func EstimateDuration(commands []Command) float64 {
	var total float64
	for _, command := range commands {
		total += command.Duration()
	}
	return total
}

// FormatDuration renders seconds the way the operator sees them, e.g. "≈ 2.00 s"
func FormatDuration(seconds float64) string {
	return "≈ " + decimal.NewFromFloat(seconds).StringFixed(2) + " s"
}
