package sqlite

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/simaogato/caixinha-backend/internal/domain"
)

// DB wraps the embedded SQLite store
type DB struct {
	db *gorm.DB
}

// NewDB opens (or creates) the SQLite database at path and migrates the schema.
// Use ":memory:" for a throwaway store.
func NewDB(path string) (*DB, error) {
	db, err := gorm.Open(sqlite.Open(withForeignKeys(path)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	// SQLite allows a single writer; an in-memory database also lives per connection
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&userModel{}, &applicationModel{}, &historyModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &DB{db: db}, nil
}

// withForeignKeys turns on constraint enforcement, which SQLite leaves off per connection
func withForeignKeys(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on"
}

// Close closes the underlying connection pool
func (d *DB) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func storageError(op string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return &domain.ConflictError{Message: err.Error()}
	}
	return domain.NewStorageError(op, err)
}

// parentMissing reports an insert rejected by a foreign key
func parentMissing(err error) bool {
	return errors.Is(err, gorm.ErrForeignKeyViolated) || strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
