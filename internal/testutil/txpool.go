// Package testutil holds test doubles and container helpers shared by the
// package tests and the integration suite.
package testutil

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var errDirectQuery = errors.New("testutil: direct queries are not supported, use a fake repository")

// TxPool satisfies db.DBPool for services whose repositories are faked. It
// only tracks transaction boundaries.
type TxPool struct {
	BeginErr   error
	Begun      int
	Committed  int
	RolledBack int
}

func (p *TxPool) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	if p.BeginErr != nil {
		return nil, p.BeginErr
	}
	p.Begun++
	return &tx{pool: p}, nil
}

func (p *TxPool) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errDirectQuery
}

func (p *TxPool) QueryRow(context.Context, string, ...any) pgx.Row {
	return errRow{}
}

func (p *TxPool) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errDirectQuery
}

type tx struct {
	pgx.Tx
	pool *TxPool
	done bool
}

func (t *tx) Commit(context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.pool.Committed++
	return nil
}

func (t *tx) Rollback(context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.pool.RolledBack++
	return nil
}

type errRow struct{}

func (errRow) Scan(...any) error { return errDirectQuery }
