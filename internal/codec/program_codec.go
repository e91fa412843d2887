// internal/codec/program_codec.go
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"dipcoater-service/internal/model"
)

// DecodeError reports structurally malformed program text
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed program document: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// programFile mirrors the on-disk layout. Pointer fields detect missing required keys.
type programFile struct {
	Version     *string      `json:"version"`
	ProgramBody *programBody `json:"program_body"`
}

type programBody struct {
	CommandsLen  *int            `json:"commands_len"`
	CommandsList *[]commandEntry `json:"commands_list"`
}

type commandEntry struct {
	Command *string   `json:"command"`
	Args    []float64 `json:"args"`
}

// Entry is a decoded command whose name passed validation; args are not yet checked
type Entry struct {
	Kind model.CommandKind
	Args []float64
}

// Document is a validated program file
type Document struct {
	Version     string
	CommandsLen int
	Entries     []Entry
}

// SkippedCommand describes an entry Materialize could not turn into a command
type SkippedCommand struct {
	Index int
	Kind  model.CommandKind
	Err   error
}

// Encode writes the program in the file format; commands_len is recomputed from the list
func Encode(program *model.Program) ([]byte, error) {
	if program == nil {
		return nil, model.NewValidationError("program", "", "is required")
	}
	if program.Version == "" {
		return nil, model.NewValidationError("version", "", "must not be empty")
	}

	entries := make([]commandEntry, 0, len(program.Commands))
	for _, command := range program.Commands {
		if !command.Kind.IsValid() {
			return nil, model.NewValidationError("command", string(command.Kind), "is not allowed")
		}
		name := string(command.Kind)
		args := command.Args
		if args == nil {
			args = []float64{}
		}
		entries = append(entries, commandEntry{Command: &name, Args: args})
	}

	version := program.Version
	commandsLen := len(entries)
	file := programFile{
		Version: &version,
		ProgramBody: &programBody{
			CommandsLen:  &commandsLen,
			CommandsList: &entries,
		},
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode program: %w", err)
	}
	return data, nil
}

// Decode parses and validates program text. Any disallowed command name fails the
// whole document with a ValidationError; malformed structure fails with a DecodeError.
func Decode(data []byte) (*Document, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	var file programFile
	if err := decoder.Decode(&file); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, &DecodeError{Err: errors.New("unexpected data after document")}
	}

	switch {
	case file.Version == nil:
		return nil, &DecodeError{Err: errors.New("missing field \"version\"")}
	case file.ProgramBody == nil:
		return nil, &DecodeError{Err: errors.New("missing field \"program_body\"")}
	case file.ProgramBody.CommandsLen == nil:
		return nil, &DecodeError{Err: errors.New("missing field \"program_body.commands_len\"")}
	case file.ProgramBody.CommandsList == nil:
		return nil, &DecodeError{Err: errors.New("missing field \"program_body.commands_list\"")}
	}

	list := *file.ProgramBody.CommandsList
	for i, entry := range list {
		if entry.Command == nil {
			return nil, &DecodeError{Err: fmt.Errorf("missing field \"command\" in commands_list[%d]", i)}
		}
	}

	entries := make([]Entry, 0, len(list))
	for i, entry := range list {
		kind, err := model.ParseCommandKind(*entry.Command)
		if err != nil {
			return nil, model.NewValidationError(
				"commands_list["+strconv.Itoa(i)+"].command", *entry.Command, "is not allowed")
		}
		entries = append(entries, Entry{Kind: kind, Args: entry.Args})
	}

	return &Document{
		Version:     *file.Version,
		CommandsLen: *file.ProgramBody.CommandsLen,
		Entries:     entries,
	}, nil
}

// CommandsLenMismatch reports whether the stored count disagrees with the list
func (d *Document) CommandsLenMismatch() bool {
	return d.CommandsLen != len(d.Entries)
}

// Materialize builds a Program from the entries, skipping those with bad arguments
func (d *Document) Materialize() (*model.Program, []SkippedCommand) {
	program := model.NewProgram(d.Version)
	var skipped []SkippedCommand

	for i, entry := range d.Entries {
		if _, err := program.AddCommand(entry.Kind, entry.Args); err != nil {
			skipped = append(skipped, SkippedCommand{Index: i, Kind: entry.Kind, Err: err})
		}
	}

	return program, skipped
}

// DecodeProgram decodes and materializes in one step, returning the number of skipped entries
func DecodeProgram(data []byte) (*model.Program, int, error) {
	document, err := Decode(data)
	if err != nil {
		return nil, 0, err
	}

	program, skipped := document.Materialize()
	return program, len(skipped), nil
}
