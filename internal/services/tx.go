package services

import (
	"database/sql"

	"gorm.io/gorm"
)

// serializableTxOptions asks Postgres for serializable isolation so two
// racing commits against the same products cannot both observe
// pre-decrement stock. sqlite transactions are serializable by default
// and its driver rejects explicit isolation levels.
func serializableTxOptions(db *gorm.DB) *sql.TxOptions {
	if db.Dialector.Name() == "sqlite" {
		return &sql.TxOptions{}
	}
	return &sql.TxOptions{Isolation: sql.LevelSerializable}
}
