package codec

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dipcoater-service/internal/model"
)

func sampleProgram(t *testing.T) *model.Program {
	t.Helper()
	program := model.NewProgram("1.2.0")
	_, err := program.AddCommand(model.CommandDown, []float64{40, 5})
	require.NoError(t, err)
	_, err = program.AddCommand(model.CommandIdleMicroseconds, []float64{2_000_000})
	require.NoError(t, err)
	_, err = program.AddCommand(model.CommandUp, []float64{40, 0.25})
	require.NoError(t, err)
	return program
}

func TestEncodeLayout(t *testing.T) {
	data, err := Encode(sampleProgram(t))
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, "1.2.0", raw["version"])
	body := raw["program_body"].(map[string]interface{})
	assert.Equal(t, float64(3), body["commands_len"])

	list := body["commands_list"].([]interface{})
	require.Len(t, list, 3)
	first := list[0].(map[string]interface{})
	assert.Equal(t, "DOWN", first["command"])
	assert.Equal(t, []interface{}{float64(40), float64(5)}, first["args"])
}

func TestEncodeRejectsEmptyVersion(t *testing.T) {
	_, err := Encode(model.NewProgram(""))
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "version", verr.Field)
}

func TestRoundTrip(t *testing.T) {
	original := sampleProgram(t)

	data, err := Encode(original)
	require.NoError(t, err)

	decoded, skipped, err := DecodeProgram(data)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	assert.Equal(t, original.Version, decoded.Version)
	require.Len(t, decoded.Commands, len(original.Commands))
	for i := range original.Commands {
		assert.Equal(t, original.Commands[i].Kind, decoded.Commands[i].Kind)
		assert.Equal(t, original.Commands[i].Args, decoded.Commands[i].Args)
	}
}

func TestRoundTripEmptyProgram(t *testing.T) {
	data, err := Encode(model.NewProgram("empty"))
	require.NoError(t, err)

	decoded, skipped, err := DecodeProgram(data)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	assert.Equal(t, "empty", decoded.Version)
	assert.Empty(t, decoded.Commands)
}

func TestDecodeRejectsUnknownCommand(t *testing.T) {
	doc := `{"version": "1", "program_body": {"commands_len": 2, "commands_list": [
		{"command": "UP", "args": [1, 1]},
		{"command": "SIDEWAYS", "args": [1, 1]}
	]}}`

	document, err := Decode([]byte(doc))
	assert.Nil(t, document)

	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	assert.Equal(t, "SIDEWAYS", verr.Value)
	assert.Equal(t, "commands_list[1].command", verr.Field)
	assert.Contains(t, err.Error(), "SIDEWAYS")

	program, skipped, err := DecodeProgram([]byte(doc))
	assert.Nil(t, program)
	assert.Zero(t, skipped)
	assert.Error(t, err)
}

func TestDecodeStructuralErrors(t *testing.T) {
	cases := map[string]string{
		"not json":              `{"version": `,
		"missing version":       `{"program_body": {"commands_len": 0, "commands_list": []}}`,
		"missing body":          `{"version": "1"}`,
		"missing commands_len":  `{"version": "1", "program_body": {"commands_list": []}}`,
		"missing commands_list": `{"version": "1", "program_body": {"commands_len": 0}}`,
		"version not string":    `{"version": 1, "program_body": {"commands_len": 0, "commands_list": []}}`,
		"fractional len":        `{"version": "1", "program_body": {"commands_len": 1.5, "commands_list": []}}`,
		"args not numbers":      `{"version": "1", "program_body": {"commands_len": 1, "commands_list": [{"command": "UP", "args": ["a"]}]}}`,
		"missing command name":  `{"version": "1", "program_body": {"commands_len": 1, "commands_list": [{"args": [1]}]}}`,
		"unknown field":         `{"version": "1", "author": "x", "program_body": {"commands_len": 0, "commands_list": []}}`,
		"trailing data":         `{"version": "1", "program_body": {"commands_len": 0, "commands_list": []}} {}`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(doc))
			var derr *DecodeError
			require.True(t, errors.As(err, &derr), "expected DecodeError, got %v", err)

			var verr *model.ValidationError
			assert.False(t, errors.As(err, &verr))
		})
	}
}

func TestDecodeToleratesCommandsLenMismatch(t *testing.T) {
	doc := `{"version": "1", "program_body": {"commands_len": 7, "commands_list": [
		{"command": "IDLE_US", "args": [1000]}
	]}}`

	document, err := Decode([]byte(doc))
	require.NoError(t, err)
	assert.True(t, document.CommandsLenMismatch())

	program, skipped := document.Materialize()
	assert.Empty(t, skipped)
	assert.Equal(t, 1, program.CommandsLen())
}

func TestMaterializeSkipsBadArguments(t *testing.T) {
	doc := `{"version": "3", "program_body": {"commands_len": 4, "commands_list": [
		{"command": "UP", "args": [10, 5]},
		{"command": "DOWN", "args": [10]},
		{"command": "IDLE_US", "args": [1.5]},
		{"command": "IDLE_US", "args": [1000000]}
	]}}`

	document, err := Decode([]byte(doc))
	require.NoError(t, err)

	program, skipped := document.Materialize()
	require.Len(t, skipped, 2)
	assert.Equal(t, 1, skipped[0].Index)
	assert.Equal(t, model.CommandDown, skipped[0].Kind)
	assert.Equal(t, 2, skipped[1].Index)

	require.Equal(t, 2, program.CommandsLen())
	assert.Equal(t, model.CommandUp, program.Commands[0].Kind)
	assert.Equal(t, model.CommandIdleMicroseconds, program.Commands[1].Kind)
	assert.InDelta(t, 3.0, program.EstimateDuration(), 1e-9)
}
