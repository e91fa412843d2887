// internal/repository/interfaces.go
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dipcoater-service/internal/codec"
	"dipcoater-service/internal/model"
)

// ProgramRepository defines stored program access operations. Data is the
// encoded program document.
type ProgramRepository interface {
	// Save stores under name, or under name(i) with the first free i when
	// name is taken. It returns the name actually used.
	Save(ctx context.Context, name string, data []byte) (string, error)

	// Put stores under name, replacing any existing program.
	Put(ctx context.Context, name string, data []byte) error

	Load(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]*ProgramInfo, error)
	Delete(ctx context.Context, name string) error
}

// ProgramInfo describes a stored program
type ProgramInfo struct {
	Name        string    `json:"name"`
	Version     string    `json:"version,omitempty"`
	CommandsLen int       `json:"commands_len"`
	SizeBytes   int64     `json:"size_bytes"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const fileExtension = ".json"

// NormalizeName strips the .json extension and rejects names that are empty
// or would escape the program store
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	name = strings.TrimSuffix(name, fileExtension)

	switch {
	case name == "":
		return "", model.NewValidationError("name", "", "must not be empty")
	case name == "." || name == "..":
		return "", model.NewValidationError("name", name, "is reserved")
	case strings.ContainsAny(name, `/\`):
		return "", model.NewValidationError("name", name, "must not contain path separators")
	case strings.ContainsRune(name, 0):
		return "", model.NewValidationError("name", name, "must not contain NUL")
	}
	return name, nil
}

// copyName returns the i-th collision candidate for name
func copyName(name string, i int) string {
	return fmt.Sprintf("%s(%d)", name, i)
}

// describe fills version and length from the document header when it parses
func describe(info *ProgramInfo, data []byte) {
	document, err := codec.Decode(data)
	if err != nil {
		return
	}
	info.Version = document.Version
	info.CommandsLen = len(document.Entries)
}
