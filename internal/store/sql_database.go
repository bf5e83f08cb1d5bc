package store

import (
	"database/sql"

	"github.com/MKhiriev/go-push-sync/internal/logger"
	"github.com/MKhiriev/go-push-sync/migrations"
)

// DB wraps the sqlite connection shared by the archive and the message store.
type DB struct {
	*sql.DB
	logger *logger.Logger
}

// NewDB wraps an already opened connection.
func NewDB(conn *sql.DB, log *logger.Logger) *DB {
	return &DB{DB: conn, logger: log}
}

func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB)
}
