// internal/service/types.go
package service

import (
	"dipcoater-service/internal/codec"
	"dipcoater-service/internal/model"
)

// Summary is the duration estimate of a program
type Summary struct {
	CommandsLen      int     `json:"commands_len"`
	EstimatedSeconds float64 `json:"estimated_seconds"`
	Display          string  `json:"display"`
}

// ProgramView is a snapshot of a program with its estimate
type ProgramView struct {
	Version  string          `json:"version"`
	Commands []model.Command `json:"commands"`
	Summary  Summary         `json:"summary"`
}

// SkippedView describes a stored command dropped while loading
type SkippedView struct {
	Index   int    `json:"index"`
	Command string `json:"command"`
	Reason  string `json:"reason"`
}

// LoadResult is the outcome of loading a stored program
type LoadResult struct {
	Program             *ProgramView  `json:"program"`
	Skipped             []SkippedView `json:"skipped,omitempty"`
	SkippedCount        int           `json:"skipped_count"`
	CommandsLenMismatch bool          `json:"commands_len_mismatch"`
}

// ImportResult is the outcome of importing a raw document
type ImportResult struct {
	Name                string `json:"name"`
	Version             string `json:"version"`
	CommandsLen         int    `json:"commands_len"`
	SkippedCount        int    `json:"skipped_count"`
	CommandsLenMismatch bool   `json:"commands_len_mismatch"`
}

// SettingsRequest carries operator settings. Omitted fields take the
// configured defaults.
type SettingsRequest struct {
	StepsPerMM          *int     `json:"steps_per_mm,omitempty"`
	DriverStepsDivision *int     `json:"driver_steps_division,omitempty"`
	MaxSpeed            *float64 `json:"max_speed,omitempty"`
	InvertDirection     *int     `json:"invert_direction,omitempty"`
	InvertEnable        *int     `json:"invert_enable,omitempty"`
	LogLevel            string   `json:"log_level,omitempty"`
}

// SettingsDefaults is the prefilled settings form
type SettingsDefaults struct {
	StepsPerMM          int      `json:"steps_per_mm"`
	DriverStepsDivision int      `json:"driver_steps_division"`
	MaxSpeed            float64  `json:"max_speed"`
	InvertDirection     int      `json:"invert_direction"`
	InvertEnable        int      `json:"invert_enable"`
	LogLevel            string   `json:"log_level"`
	LogLevels           []string `json:"log_levels"`
}

// SettingsResult reports the frame sent to the device
type SettingsResult struct {
	Settings model.Settings `json:"settings"`
	MaxSpeed float64        `json:"max_speed"`
	Frame    string         `json:"frame"`
}

func newSummary(program *model.Program) Summary {
	seconds := program.EstimateDuration()
	return Summary{
		CommandsLen:      program.CommandsLen(),
		EstimatedSeconds: seconds,
		Display:          model.FormatDuration(seconds),
	}
}

func newProgramView(program *model.Program) *ProgramView {
	snapshot := program.Clone()
	commands := snapshot.Commands
	if commands == nil {
		commands = []model.Command{}
	}
	return &ProgramView{
		Version:  snapshot.Version,
		Commands: commands,
		Summary:  newSummary(snapshot),
	}
}

func newSkippedViews(skipped []codec.SkippedCommand) []SkippedView {
	if len(skipped) == 0 {
		return nil
	}
	views := make([]SkippedView, 0, len(skipped))
	for _, s := range skipped {
		views = append(views, SkippedView{
			Index:   s.Index,
			Command: string(s.Kind),
			Reason:  s.Err.Error(),
		})
	}
	return views
}
