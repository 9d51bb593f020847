// Package storeerr is the error taxonomy for writes against the shared
// store: validation failures caught before dispatch, missing records,
// stock shortfalls, store-side authorization denials and everything else.
package storeerr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrPermissionDenied is the sentinel fakes and middlewares use to signal a
// store-level denial without a real Postgres error attached.
var ErrPermissionDenied = errors.New("permission denied")

type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

type InsufficientStockError struct {
	ProductID uuid.UUID
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q (%s): %d available, %d requested",
		e.Name, e.ProductID, e.Available, e.Requested)
}

// AuthorizationError means the store denied the write. Every instance is
// also published on the fault bus by the coordinator that hit it.
type AuthorizationError struct {
	Op   string
	Path string
	Err  error
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("store denied %s on %s: %v", e.Op, e.Path, e.Err)
}

func (e *AuthorizationError) Unwrap() error { return e.Err }

type UnknownTransactionError struct {
	Err error
}

func (e *UnknownTransactionError) Error() string {
	return fmt.Sprintf("transaction failed: %v", e.Err)
}

func (e *UnknownTransactionError) Unwrap() error { return e.Err }

// Classify folds a raw store error into the taxonomy. Errors that already
// belong to the taxonomy pass through unchanged so a transaction body can
// abort with a typed error and keep it across the gorm boundary.
func Classify(err error, op, path string) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	var nf *NotFoundError
	var is *InsufficientStockError
	var ae *AuthorizationError
	var ue *UnknownTransactionError
	switch {
	case errors.As(err, &ve), errors.As(err, &nf), errors.As(err, &is),
		errors.As(err, &ae), errors.As(err, &ue):
		return err
	}
	if IsDenied(err) {
		return &AuthorizationError{Op: op, Path: path, Err: err}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Kind: "record", ID: path}
	}
	return &UnknownTransactionError{Err: err}
}

// IsDenied reports whether the store rejected a write for lack of
// privilege (Postgres 42501, or the sentinel used by fakes).
func IsDenied(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrPermissionDenied) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42501"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "permission denied") || strings.Contains(msg, "insufficient privilege")
}

// Retryable reports whether a failed transaction should be retried against
// fresh reads: serialization conflicts and deadlocks under Postgres, lock
// contention under the sqlite test driver.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "could not serialize access")
}
