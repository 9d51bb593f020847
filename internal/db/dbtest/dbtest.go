// Package dbtest opens throwaway in-memory sqlite databases migrated to
// the storefront schema for repo and service tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ovestreet/storefront-backend/internal/types"
)

func Open(t *testing.T) *gorm.DB {
	t.Helper()
	// cache=shared keeps the database alive across the pool's connections;
	// the busy timeout makes concurrent transactions queue instead of
	// failing immediately.
	// _txlock=immediate takes the write lock at BEGIN so two concurrent
	// commit attempts queue instead of deadlocking on a lock upgrade.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000&_txlock=immediate", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(
		&types.Product{},
		&types.Order{},
		&types.OrderLine{},
		&types.UserAggregate{},
		&types.WishlistItem{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}
