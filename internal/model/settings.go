// internal/model/settings.go
package model

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"
)

// SettingsFrameSize is the wire size of an encoded Settings value
const SettingsFrameSize = 12

// LogLevel represents the device log verbosity
type LogLevel uint8

const (
	LogLevelOff   LogLevel = 0
	LogLevelInfo  LogLevel = 1
	LogLevelDebug LogLevel = 2
)

var logLevelNames = map[LogLevel]string{
	LogLevelOff:   "NO_LOG",
	LogLevelInfo:  "INFO",
	LogLevelDebug: "DEBUG",
}

// ParseLogLevel converts an operator level name (NO_LOG, INFO, DEBUG) into a LogLevel
func ParseLogLevel(name string) (LogLevel, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for level, levelName := range logLevelNames {
		if levelName == upper {
			return level, nil
		}
	}
	return 0, NewValidationError("log_level", name, "must be one of NO_LOG, INFO, DEBUG")
}

func (l LogLevel) String() string {
	if name, ok := logLevelNames[l]; ok {
		return name
	}
	return "LogLevel(" + strconv.Itoa(int(l)) + ")"
}

// Settings represents the device configuration frame
type Settings struct {
	StepsPerMM          uint32   `json:"steps_per_mm"`
	MaxStepsCount       uint32   `json:"max_steps_count"`
	DriverStepsDivision uint8    `json:"driver_steps_division"`
	InvertDirection     uint8    `json:"invert_direction"`
	InvertEnable        uint8    `json:"invert_enable"`
	Debug               LogLevel `json:"debug"`
}

// SettingsInput holds the operator-facing values settings are built from
type SettingsInput struct {
	StepsPerMM          int
	DriverStepsDivision int
	MaxSpeed            float64
	InvertDirection     int
	InvertEnable        int
	Debug               LogLevel
}

// NewSettings validates the input and derives MaxStepsCount from the max speed
func NewSettings(in SettingsInput) (Settings, error) {
	if in.StepsPerMM <= 0 || uint64(in.StepsPerMM) > math.MaxUint32 {
		return Settings{}, NewValidationError("steps_per_mm", strconv.Itoa(in.StepsPerMM), "must be between 1 and 4294967295")
	}
	if in.DriverStepsDivision <= 0 || in.DriverStepsDivision > math.MaxUint8 {
		return Settings{}, NewValidationError("driver_steps_division", strconv.Itoa(in.DriverStepsDivision), "must be between 1 and 255")
	}
	if err := validateFlag("invert_direction", in.InvertDirection); err != nil {
		return Settings{}, err
	}
	if err := validateFlag("invert_enable", in.InvertEnable); err != nil {
		return Settings{}, err
	}
	if _, ok := logLevelNames[in.Debug]; !ok {
		return Settings{}, NewValidationError("debug", strconv.Itoa(int(in.Debug)), "must be 0, 1 or 2")
	}

	maxSteps, err := DeriveMaxStepsCount(in.StepsPerMM, in.DriverStepsDivision, in.MaxSpeed)
	if err != nil {
		return Settings{}, err
	}

	return Settings{
		StepsPerMM:          uint32(in.StepsPerMM),
		MaxStepsCount:       maxSteps,
		DriverStepsDivision: uint8(in.DriverStepsDivision),
		InvertDirection:     uint8(in.InvertDirection),
		InvertEnable:        uint8(in.InvertEnable),
		Debug:               in.Debug,
	}, nil
}

// DeriveMaxStepsCount computes floor(maxSpeed * stepsPerMM * driverDivision).
// The firmware interprets speeds against this exact relationship.
func DeriveMaxStepsCount(stepsPerMM, driverDivision int, maxSpeed float64) (uint32, error) {
	if stepsPerMM <= 0 {
		return 0, NewValidationError("steps_per_mm", strconv.Itoa(stepsPerMM), "must be positive")
	}
	if driverDivision <= 0 {
		return 0, NewValidationError("driver_steps_division", strconv.Itoa(driverDivision), "must be positive")
	}
	if math.IsNaN(maxSpeed) || math.IsInf(maxSpeed, 0) || maxSpeed < 0 {
		return 0, NewValidationError("max_speed", formatFloat(maxSpeed), "must be a finite non-negative number")
	}

	count := math.Floor(maxSpeed * float64(stepsPerMM) * float64(driverDivision))
	if count > math.MaxUint32 {
		return 0, NewValidationError("max_steps_count", formatFloat(count), "does not fit 4 bytes")
	}
	return uint32(count), nil
}

// MaxSpeed returns the max speed in mm/s the frame encodes
func (s Settings) MaxSpeed() float64 {
	denominator := float64(s.StepsPerMM) * float64(s.DriverStepsDivision)
	if denominator == 0 {
		return 0
	}
	return float64(s.MaxStepsCount) / denominator
}

// MarshalBinary encodes the settings into the 12-byte wire frame
func (s Settings) MarshalBinary() ([]byte, error) {
	frame := make([]byte, SettingsFrameSize)
	binary.LittleEndian.PutUint32(frame[0:4], s.StepsPerMM)
	binary.LittleEndian.PutUint32(frame[4:8], s.MaxStepsCount)
	frame[8] = s.DriverStepsDivision
	frame[9] = s.InvertDirection
	frame[10] = s.InvertEnable
	frame[11] = uint8(s.Debug)
	return frame, nil
}

// UnmarshalBinary decodes a 12-byte wire frame
func (s *Settings) UnmarshalBinary(frame []byte) error {
	if len(frame) != SettingsFrameSize {
		return &FrameLengthError{Got: len(frame)}
	}

	s.StepsPerMM = binary.LittleEndian.Uint32(frame[0:4])
	s.MaxStepsCount = binary.LittleEndian.Uint32(frame[4:8])
	s.DriverStepsDivision = frame[8]
	s.InvertDirection = frame[9]
	s.InvertEnable = frame[10]
	s.Debug = LogLevel(frame[11])
	return nil
}

func validateFlag(field string, value int) error {
	if value != 0 && value != 1 {
		return NewValidationError(field, strconv.Itoa(value), "must be 0 or 1")
	}
	return nil
}
