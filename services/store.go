package services

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/yeremiapane/restaurant-pos/utils"
	"gorm.io/gorm"
)

// Store adalah handle database yang di-inject ke setiap service.
// Tidak ada koneksi global; setiap operasi memakai transaksi sendiri.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB mengembalikan handle yang terikat ke ctx, untuk operasi baca tanpa transaksi
func (s *Store) DB(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// WithTx menjalankan fn dalam satu transaksi. Error transient (serialization
// failure, deadlock, database locked) diulang satu kali saja.
func (s *Store) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := s.db.WithContext(ctx).Transaction(fn)
	if err == nil || !isTransient(err) || ctx.Err() != nil {
		return err
	}

	utils.InfoLogger.WithField("error", err.Error()).Warn("Transient database error, retrying transaction once")
	return s.db.WithContext(ctx).Transaction(fn)
}

func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// serialization_failure, deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		// ER_LOCK_DEADLOCK, ER_LOCK_WAIT_TIMEOUT
		return myErr.Number == 1213 || myErr.Number == 1205
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	}
	return false
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
