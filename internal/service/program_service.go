// internal/service/program_service.go
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dipcoater-service/internal/codec"
	"dipcoater-service/internal/model"
	"dipcoater-service/internal/repository"
	"dipcoater-service/internal/utils"
)

// ProgramService owns the single program being edited and its storage
type ProgramService struct {
	repo     repository.ProgramRepository
	eventBus *EventBus
	logger   *utils.ServiceLogger

	mu      sync.RWMutex
	program *model.Program
}

// NewProgramService creates a new program service holding an empty program
func NewProgramService(repo repository.ProgramRepository, eventBus *EventBus, logger *zap.Logger) *ProgramService {
	return &ProgramService{
		repo:     repo,
		eventBus: eventBus,
		logger:   utils.NewServiceLogger(logger, "program-service"),
		program:  model.NewProgram(""),
	}
}

// New replaces the current program with an empty one
func (ps *ProgramService) New(version string) *ProgramView {
	ps.mu.Lock()
	ps.program = model.NewProgram(strings.TrimSpace(version))
	view := newProgramView(ps.program)
	ps.mu.Unlock()

	ps.logger.Info("New program started", zap.String("version", view.Version))
	ps.publish("created", "", view.Version)
	return view
}

// Current returns a snapshot of the current program
func (ps *ProgramService) Current() *ProgramView {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return newProgramView(ps.program)
}

// SetVersion changes the version label of the current program
func (ps *ProgramService) SetVersion(version string) *ProgramView {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.program.Version = strings.TrimSpace(version)
	return newProgramView(ps.program)
}

// AddCommand appends a command to the current program
func (ps *ProgramService) AddCommand(name string, args []float64) (model.CommandID, error) {
	kind, err := model.ParseCommandKind(name)
	if err != nil {
		return uuid.Nil, err
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	id, err := ps.program.AddCommand(kind, args)
	if err != nil {
		return uuid.Nil, err
	}

	ps.logger.Debug("Command added",
		zap.String("command_id", id.String()),
		zap.String("command", string(kind)),
		zap.Float64s("args", args),
	)
	return id, nil
}

// RemoveCommand removes a command from the current program
func (ps *ProgramService) RemoveCommand(id model.CommandID) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if err := ps.program.RemoveCommand(id); err != nil {
		return fmt.Errorf("failed to remove command %s: %w", id, err)
	}

	ps.logger.Debug("Command removed", zap.String("command_id", id.String()))
	return nil
}

// Estimate returns the duration estimate of the current program
func (ps *ProgramService) Estimate() Summary {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return newSummary(ps.program)
}

// Save stores the current program under name and returns the name used
func (ps *ProgramService) Save(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", model.NewValidationError("name", "", "must not be empty")
	}

	ps.mu.RLock()
	program := ps.program.Clone()
	ps.mu.RUnlock()

	if program.Version == "" {
		return "", model.NewValidationError("version", "", "must not be empty")
	}
	if program.CommandsLen() == 0 {
		return "", model.NewValidationError("commands", "", "program has no commands")
	}

	op := utils.NewOperationLogger(ps.logger.Logger, "save_program", uuid.New().String())
	op.Start(zap.String("name", name))

	data, err := codec.Encode(program)
	if err != nil {
		op.Error(err)
		return "", fmt.Errorf("failed to encode program: %w", err)
	}

	stored, err := ps.repo.Save(ctx, name, data)
	if err != nil {
		op.Error(err)
		return "", fmt.Errorf("failed to save program: %w", err)
	}

	op.Success(zap.String("stored_name", stored), zap.Int("commands_len", program.CommandsLen()))
	ps.publish("saved", stored, program.Version)
	return stored, nil
}

// Load replaces the current program with a stored one. Entries with bad
// arguments are skipped and reported.
func (ps *ProgramService) Load(ctx context.Context, name string) (*LoadResult, error) {
	op := utils.NewOperationLogger(ps.logger.Logger, "load_program", uuid.New().String())
	op.Start(zap.String("name", name))

	data, err := ps.repo.Load(ctx, name)
	if err != nil {
		op.Error(err)
		return nil, err
	}

	document, err := codec.Decode(data)
	if err != nil {
		op.Error(err)
		return nil, err
	}

	program, skipped := document.Materialize()

	ps.mu.Lock()
	ps.program = program
	view := newProgramView(program)
	ps.mu.Unlock()

	result := &LoadResult{
		Program:             view,
		Skipped:             newSkippedViews(skipped),
		SkippedCount:        len(skipped),
		CommandsLenMismatch: document.CommandsLenMismatch(),
	}

	if result.SkippedCount > 0 {
		ps.logger.Warn("Commands with invalid arguments skipped",
			zap.String("name", name),
			zap.Int("skipped", result.SkippedCount),
		)
	}
	if result.CommandsLenMismatch {
		ps.logger.Warn("Stored commands_len does not match commands_list",
			zap.String("name", name),
			zap.Int("commands_len", document.CommandsLen),
			zap.Int("commands_list", len(document.Entries)),
		)
	}

	op.Success(zap.Int("commands_len", program.CommandsLen()), zap.Int("skipped", result.SkippedCount))
	ps.publish("loaded", name, program.Version)
	return result, nil
}

// List returns stored programs
func (ps *ProgramService) List(ctx context.Context) ([]*repository.ProgramInfo, error) {
	programs, err := ps.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}
	if programs == nil {
		programs = []*repository.ProgramInfo{}
	}
	return programs, nil
}

// Delete removes a stored program
func (ps *ProgramService) Delete(ctx context.Context, name string) error {
	if err := ps.repo.Delete(ctx, name); err != nil {
		return err
	}
	ps.publish("deleted", name, "")
	return nil
}

// Export returns the raw stored document
func (ps *ProgramService) Export(ctx context.Context, name string) ([]byte, error) {
	return ps.repo.Load(ctx, name)
}

// Import validates a raw document and stores it under name, replacing any
// program with that name
func (ps *ProgramService) Import(ctx context.Context, name string, data []byte) (*ImportResult, error) {
	document, err := codec.Decode(data)
	if err != nil {
		return nil, err
	}
	_, skipped := document.Materialize()

	if err := ps.repo.Put(ctx, name, data); err != nil {
		return nil, err
	}

	stored, _ := repository.NormalizeName(name)
	ps.logger.Info("Program imported",
		zap.String("name", stored),
		zap.String("version", document.Version),
		zap.Int("skipped", len(skipped)),
	)
	ps.publish("imported", stored, document.Version)

	return &ImportResult{
		Name:                stored,
		Version:             document.Version,
		CommandsLen:         len(document.Entries),
		SkippedCount:        len(skipped),
		CommandsLenMismatch: document.CommandsLenMismatch(),
	}, nil
}

func (ps *ProgramService) publish(action, name, version string) {
	if ps.eventBus == nil {
		return
	}
	ps.eventBus.Publish(Event{
		Type:   EventTypeProgram,
		Source: "program-service",
		Data: map[string]interface{}{
			"action":  action,
			"name":    name,
			"version": version,
		},
	})
}
