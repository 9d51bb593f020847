package repos

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// withRowLock applies SELECT ... FOR UPDATE where the dialect supports it.
// The sqlite test driver serializes whole-database writes per transaction,
// so row locks are a no-op there and the clause would be a syntax error.
func withRowLock(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
