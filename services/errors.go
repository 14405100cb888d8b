package services

import (
	"errors"
	"fmt"

	"github.com/yeremiapane/restaurant-pos/models"
)

var (
	// ErrNotFound adalah hasil normal untuk lookup yang kosong
	ErrNotFound = errors.New("not found")

	// ErrInconsistentTotals berarti total tersimpan berbeda dari hasil hitung ledger.
	// Tidak pernah diperbaiki diam-diam.
	ErrInconsistentTotals = errors.New("persisted order totals disagree with ledger-derived totals")
)

// ValidationError ditolak sebelum ada penulisan ke database
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

type ConflictKind string

const (
	ConflictTableAlreadyOpen ConflictKind = "TableAlreadyOpen"
	ConflictPackageMismatch  ConflictKind = "PackageMismatch"
	ConflictStaleOrder       ConflictKind = "StaleOrder"
	ConflictOrderClosed      ConflictKind = "OrderClosed"
)

// ConflictError membawa data yang cukup bagi caller untuk rekonsiliasi
type ConflictError struct {
	Kind    ConflictKind
	Message string
	// Order yang bentrok (order yang masih terbuka atau state terbaru)
	Order *models.Order
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// IsConflict memeriksa apakah err adalah ConflictError dengan kind tertentu
func IsConflict(err error, kind ConflictKind) bool {
	var ce *ConflictError
	return errors.As(err, &ce) && ce.Kind == kind
}
