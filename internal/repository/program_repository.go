// internal/repository/program_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"dipcoater-service/internal/codec"
	"dipcoater-service/internal/database"
	"dipcoater-service/internal/model"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a duplicate key
const uniqueViolation pq.ErrorCode = "23505"

// maxNameAttempts bounds the collision search
const maxNameAttempts = 1000

// sqlExecutor is the part of database.DB the repository queries through
type sqlExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// programRepository implements ProgramRepository on PostgreSQL
type programRepository struct {
	db     sqlExecutor
	logger *zap.Logger
}

// NewProgramRepository creates a PostgreSQL program repository
func NewProgramRepository(db *database.DB, logger *zap.Logger) ProgramRepository {
	return newProgramRepository(db, logger)
}

func newProgramRepository(db sqlExecutor, logger *zap.Logger) *programRepository {
	return &programRepository{
		db:     db,
		logger: logger.With(zap.String("repository", "postgres")),
	}
}

// Save inserts the document, retrying as name(i) on unique violation
func (r *programRepository) Save(ctx context.Context, name string, data []byte) (string, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return "", err
	}

	header, err := codec.Decode(data)
	if err != nil {
		return "", fmt.Errorf("failed to read program header: %w", err)
	}

	query := `
		INSERT INTO programs (name, version, commands_len, document)
		VALUES ($1, $2, $3, $4)
	`

	stored := name
	for i := 0; i <= maxNameAttempts; i++ {
		_, err := r.db.ExecContext(ctx, query, stored, header.Version, len(header.Entries), string(data))
		if err == nil {
			r.logger.Info("Program saved", zap.String("name", stored))
			return stored, nil
		}
		if !isUniqueViolation(err) {
			r.logger.Error("Failed to save program", zap.Error(err), zap.String("name", stored))
			return "", fmt.Errorf("failed to save program: %w", err)
		}
		stored = copyName(name, i)
	}

	return "", fmt.Errorf("failed to save program: no free name for %s", name)
}

// Put upserts the document under name
func (r *programRepository) Put(ctx context.Context, name string, data []byte) error {
	name, err := NormalizeName(name)
	if err != nil {
		return err
	}

	header, err := codec.Decode(data)
	if err != nil {
		return fmt.Errorf("failed to read program header: %w", err)
	}

	query := `
		INSERT INTO programs (name, version, commands_len, document)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET
			version = EXCLUDED.version,
			commands_len = EXCLUDED.commands_len,
			document = EXCLUDED.document,
			updated_at = NOW()
	`

	if _, err := r.db.ExecContext(ctx, query, name, header.Version, len(header.Entries), string(data)); err != nil {
		r.logger.Error("Failed to store program", zap.Error(err), zap.String("name", name))
		return fmt.Errorf("failed to store program: %w", err)
	}

	r.logger.Info("Program stored", zap.String("name", name))
	return nil
}

// Load returns the stored document
func (r *programRepository) Load(ctx context.Context, name string) ([]byte, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}

	var document string
	err = r.db.QueryRowContext(ctx, `SELECT document FROM programs WHERE name = $1`, name).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", model.ErrProgramNotFound, name)
	}
	if err != nil {
		r.logger.Error("Failed to load program", zap.Error(err), zap.String("name", name))
		return nil, fmt.Errorf("failed to load program: %w", err)
	}

	return []byte(document), nil
}

// List returns stored programs sorted by name
func (r *programRepository) List(ctx context.Context) ([]*ProgramInfo, error) {
	query := `
		SELECT name, version, commands_len, octet_length(document), updated_at
		FROM programs ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}
	defer rows.Close()

	var programs []*ProgramInfo
	for rows.Next() {
		info := &ProgramInfo{}
		var updatedAt time.Time
		if err := rows.Scan(&info.Name, &info.Version, &info.CommandsLen, &info.SizeBytes, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan program: %w", err)
		}
		info.UpdatedAt = updatedAt
		programs = append(programs, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate programs: %w", err)
	}
	return programs, nil
}

// Delete removes a stored program
func (r *programRepository) Delete(ctx context.Context, name string) error {
	name, err := NormalizeName(name)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM programs WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete program: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", model.ErrProgramNotFound, name)
	}

	r.logger.Info("Program deleted", zap.String("name", name))
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
