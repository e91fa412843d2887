// internal/repository/file_repository.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"dipcoater-service/internal/model"
)

// fileProgramRepository stores one <name>.json file per program
type fileProgramRepository struct {
	dir    string
	logger *zap.Logger
}

// NewFileProgramRepository creates a repository rooted at dir, creating it if needed
func NewFileProgramRepository(dir string, logger *zap.Logger) (ProgramRepository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create programs directory: %w", err)
	}

	return &fileProgramRepository{
		dir:    dir,
		logger: logger.With(zap.String("repository", "file"), zap.String("dir", dir)),
	}, nil
}

// Save writes the document, picking name(i) on collision
func (r *fileProgramRepository) Save(ctx context.Context, name string, data []byte) (string, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return "", err
	}

	stored := name
	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		// O_EXCL makes the existence check and the create one step
		file, err := os.OpenFile(r.path(stored), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, fs.ErrExist) {
			stored = copyName(name, i)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create program file: %w", err)
		}

		if _, err := file.Write(data); err != nil {
			file.Close()
			os.Remove(file.Name())
			return "", fmt.Errorf("failed to write program file: %w", err)
		}
		if err := file.Close(); err != nil {
			return "", fmt.Errorf("failed to close program file: %w", err)
		}

		r.logger.Info("Program saved", zap.String("name", stored), zap.Int("bytes", len(data)))
		return stored, nil
	}
}

// Put replaces the program atomically through a temp file
func (r *fileProgramRepository) Put(ctx context.Context, name string, data []byte) error {
	name, err := NormalizeName(name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(r.dir, ".import-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write program file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close program file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path(name)); err != nil {
		return fmt.Errorf("failed to store program file: %w", err)
	}

	r.logger.Info("Program stored", zap.String("name", name), zap.Int("bytes", len(data)))
	return nil
}

// Load reads a stored document
func (r *fileProgramRepository) Load(ctx context.Context, name string) ([]byte, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", model.ErrProgramNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read program file: %w", err)
	}
	return data, nil
}

// List returns stored programs sorted by name
func (r *fileProgramRepository) List(ctx context.Context) ([]*ProgramInfo, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read programs directory: %w", err)
	}

	programs := make([]*ProgramInfo, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExtension) {
			continue
		}

		stat, err := entry.Info()
		if err != nil {
			continue
		}

		info := &ProgramInfo{
			Name:      strings.TrimSuffix(entry.Name(), fileExtension),
			SizeBytes: stat.Size(),
			UpdatedAt: stat.ModTime(),
		}
		if data, err := os.ReadFile(filepath.Join(r.dir, entry.Name())); err == nil {
			describe(info, data)
		} else {
			r.logger.Warn("Failed to read program file", zap.String("file", entry.Name()), zap.Error(err))
		}
		programs = append(programs, info)
	}

	sort.Slice(programs, func(i, j int) bool {
		return programs[i].Name < programs[j].Name
	})
	return programs, nil
}

// Delete removes a stored program
func (r *fileProgramRepository) Delete(ctx context.Context, name string) error {
	name, err := NormalizeName(name)
	if err != nil {
		return err
	}

	err = os.Remove(r.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", model.ErrProgramNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("failed to delete program file: %w", err)
	}

	r.logger.Info("Program deleted", zap.String("name", name))
	return nil
}

func (r *fileProgramRepository) path(name string) string {
	return filepath.Join(r.dir, name+fileExtension)
}
