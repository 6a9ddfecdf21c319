package testutil

import (
	"context"
	"database/sql"
	"sync/atomic"

	"github.com/alexanderramin/rfpilot/internal/db"
)

// FaultyUoW is a real SQLite unit of work whose transactions fail the Nth
// write (counting from 1) with Err. Reads are not counted. Repository tests
// use it to check that multi-statement calls such as Archive roll back.
type FaultyUoW struct {
	inner  db.UnitOfWork
	failAt int32
	err    error
}

func NewFaultyUoW(database *sql.DB, failAt int, err error) *FaultyUoW {
	return &FaultyUoW{inner: db.NewSQLiteUnitOfWork(database), failAt: int32(failAt), err: err}
}

func (u *FaultyUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	return u.inner.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, &faultyTx{DBTX: tx, failAt: u.failAt, err: u.err})
	})
}

type faultyTx struct {
	db.DBTX
	writes atomic.Int32
	failAt int32
	err    error
}

func (f *faultyTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if f.writes.Add(1) == f.failAt {
		return nil, f.err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
