// Package db provides small helpers shared by the sqlite-backed store.
package db

import (
	"database/sql"
)

// WithTx executes fn within a transaction.
// It handles Begin, Rollback on error, and Commit on success.
func WithTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// NullInt converts an int tag value to its column form.
// Zero means the tag was absent and is stored as NULL.
func NullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}

// NullFloat converts a float tag value to its column form.
func NullFloat(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: v != 0}
}

// NullString converts a string tag value to its column form.
func NullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// IntValue returns the int value or 0 if NULL.
func IntValue(n sql.NullInt64) int {
	if !n.Valid {
		return 0
	}
	return int(n.Int64)
}

// FloatValue returns the float64 value or 0 if NULL.
func FloatValue(n sql.NullFloat64) float64 {
	if !n.Valid {
		return 0
	}
	return n.Float64
}

// StringValue returns the string value or empty string if NULL.
func StringValue(n sql.NullString) string {
	if !n.Valid {
		return ""
	}
	return n.String
}
