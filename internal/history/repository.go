package history

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"codeberg.org/mutker/frltoggle/internal/errors"
	"codeberg.org/mutker/frltoggle/internal/logger"
	_ "github.com/mattn/go-sqlite3"
)

type repository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewRepository(cfg Config, log logger.Logger) (Repository, error) {
	errFactory := errors.New()

	if cfg.DBPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  cfg.DBPath,
			Error: err.Error(),
		})
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "open_database",
			Error: err.Error(),
		})
	}

	if err := ValidateAndUpdateSchema(db, cfg.DBPath, log); err != nil {
		db.Close()
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "schema_version",
			Error: err.Error(),
		})
	}

	log.Debug().
		Str("path", cfg.DBPath).
		Int("schema_version", SchemaVersion).
		Msg("History repository initialized")

	return &repository{db: db, logger: log}, nil
}

func (r *repository) Insert(entry *Entry) error {
	_, err := r.db.Exec(insertChangeSQL,
		entry.Timestamp.Unix(),
		entry.Operation,
		entry.SavePolicy,
		int64(entry.Previous),
		int64(entry.Applied),
	)
	if err != nil {
		return errors.New().Wrap(ErrStorageAccess, err)
	}

	r.logger.Debug().
		Str("operation", entry.Operation).
		Uint32("previous", entry.Previous).
		Uint32("applied", entry.Applied).
		Msg("Recorded limiter change")

	return nil
}

func (r *repository) Last(n int) ([]Entry, error) {
	errFactory := errors.New()

	rows, err := r.db.Query(selectLastChangesSQL, n)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			ts                int64
			previous, applied int64
			entry             Entry
		)
		if err := rows.Scan(&ts, &entry.Operation, &entry.SavePolicy, &previous, &applied); err != nil {
			return nil, errFactory.Wrap(ErrStorageAccess, err)
		}
		entry.Timestamp = time.Unix(ts, 0)
		entry.Previous = uint32(previous)
		entry.Applied = uint32(applied)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}

	return entries, nil
}

func (r *repository) Close() error {
	if err := r.db.Close(); err != nil {
		return errors.New().WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "close_database",
			Error: err.Error(),
		})
	}

	return nil
}
