// Package store is the durable side of the server: rooms, user accounts, and
// the append-only chat/drawing event log, persisted through GORM over SQLite.
package store

import (
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// ErrRoomNotFound is returned when a room lookup matches nothing.
	ErrRoomNotFound = errors.New("room not found")
	// ErrUserNotFound is returned when a user lookup matches nothing.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when signup reuses an existing email.
	ErrEmailTaken = errors.New("email already registered")
)

// Store wraps the database handle and exposes the persistence operations the
// realtime core and the REST surface depend on.
type Store struct {
	db *gorm.DB
}

// Open connects to the SQLite database at path and runs migrations. Use
// ":memory:" for an ephemeral database in tests.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows one writer at a time; a single pooled connection turns
	// concurrent callers into queued ones instead of SQLITE_BUSY errors.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&User{}, &Room{}, &Chat{}); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
