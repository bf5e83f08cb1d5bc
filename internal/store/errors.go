package store

import "errors"

// Sentinel errors returned by archives and keychains. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrSnapshotNotFound is returned by [Archive.Get] when nothing is stored
	// under the requested key.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrKeyNotFound is returned by [Keychain.Get] for a missing key.
	ErrKeyNotFound = errors.New("keychain key not found")

	// ErrCorruptedSnapshot is returned when a stored snapshot cannot be
	// decrypted or decoded.
	ErrCorruptedSnapshot = errors.New("corrupted snapshot")

	// ErrProfileReset is returned by the generation-checked writes of
	// [ProfileStore] when the profile was reset in the meantime.
	ErrProfileReset = errors.New("profile was reset")
)

// Low-level database operation errors. These are returned (or wrapped) by
// the sqlite archive when a SQL-level operation fails.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT against the
	// database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to execute statement")

	// ErrScanningRow is returned when scanning column values from a result
	// row fails.
	ErrScanningRow = errors.New("failed to scan row")
)
