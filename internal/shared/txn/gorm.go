package txn

import (
	"context"

	"gorm.io/gorm"
)

type gormTxKey struct{}

// GormResource adapts a gorm database into a Resource. Every repository that
// reads its connection through GormConn shares the one transaction opened for
// a unit of work, so state spread across tables commits or rolls back as one.
//
// A nonzero lockKey on a postgres database also takes a transaction-scoped
// advisory lock, which serializes units of work across processes.
func GormResource(db *gorm.DB, lockKey int64) Resource {
	return gormResource{db: db, lockKey: lockKey}
}

type gormResource struct {
	db      *gorm.DB
	lockKey int64
}

func (r gormResource) Begin(ctx context.Context) (context.Context, Handle, error) {
	if _, ok := ctx.Value(gormTxKey{}).(*gorm.DB); ok {
		return ctx, noopHandle{}, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return ctx, nil, tx.Error
	}
	if r.lockKey != 0 && r.db.Dialector.Name() == "postgres" {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", r.lockKey).Error; err != nil {
			_ = tx.Rollback()
			return ctx, nil, err
		}
	}
	return context.WithValue(ctx, gormTxKey{}, tx), gormHandle{tx: tx}, nil
}

// GormConn returns the transaction carried by ctx, or db bound to ctx when
// the call is outside a unit of work.
func GormConn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(gormTxKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}

type gormHandle struct {
	tx *gorm.DB
}

func (h gormHandle) Commit() error {
	return h.tx.Commit().Error
}

func (h gormHandle) Rollback() error {
	return h.tx.Rollback().Error
}

type noopHandle struct{}

func (noopHandle) Commit() error   { return nil }
func (noopHandle) Rollback() error { return nil }
