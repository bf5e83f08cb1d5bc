package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jonboulle/clockwork"

	"github.com/MKhiriev/go-push-sync/internal/crypto"
	"github.com/MKhiriev/go-push-sync/internal/logger"
)

const snapshotsTable = "snapshots"

type sqliteArchive struct {
	db      *DB
	sealer  crypto.Sealer
	clock   clockwork.Clock
	builder sq.StatementBuilderType
	logger  *logger.Logger
}

// NewSQLiteArchive returns an [Archive] persisting sealed snapshots in the
// snapshots table of db. clock stamps the updated_at column.
func NewSQLiteArchive(db *DB, sealer crypto.Sealer, clock clockwork.Clock, log *logger.Logger) Archive {
	return &sqliteArchive{
		db:      db,
		sealer:  sealer,
		clock:   clock,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
		logger:  log,
	}
}

func (a *sqliteArchive) Get(ctx context.Context, key string) ([]byte, error) {
	query, args, err := a.builder.
		Select("payload").
		From(snapshotsTable).
		Where(sq.Eq{"storage_key": key}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var sealed []byte
	err = a.db.QueryRowContext(ctx, query, args...).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		a.logger.Err(err).Str("func", "sqliteArchive.Get").Str("key", key).Msg("failed to read snapshot")
		return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	plain, err := a.sealer.Open(sealed)
	if err != nil {
		a.logger.Err(err).Str("func", "sqliteArchive.Get").Str("key", key).Msg("failed to open sealed snapshot")
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptedSnapshot, key, err)
	}

	return plain, nil
}

func (a *sqliteArchive) Put(ctx context.Context, key string, value []byte) error {
	sealed, err := a.sealer.Seal(value)
	if err != nil {
		return fmt.Errorf("seal snapshot %s: %w", key, err)
	}

	query, args, err := a.builder.
		Insert(snapshotsTable).
		Columns("storage_key", "payload", "updated_at").
		Values(key, sealed, a.clock.Now().UTC()).
		Suffix("ON CONFLICT (storage_key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = a.db.ExecContext(ctx, query, args...); err != nil {
		a.logger.Err(err).Str("func", "sqliteArchive.Put").Str("key", key).Msg("failed to upsert snapshot")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (a *sqliteArchive) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	query, args, err := a.builder.
		Delete(snapshotsTable).
		Where(sq.Eq{"storage_key": keys}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = a.db.ExecContext(ctx, query, args...); err != nil {
		a.logger.Err(err).Str("func", "sqliteArchive.Delete").Strs("keys", keys).Msg("failed to delete snapshots")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (a *sqliteArchive) Clear(ctx context.Context) error {
	query, args, err := a.builder.Delete(snapshotsTable).ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = a.db.ExecContext(ctx, query, args...); err != nil {
		a.logger.Err(err).Str("func", "sqliteArchive.Clear").Msg("failed to clear snapshots")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}
