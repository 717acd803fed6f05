// Package memory provides in-process twins of the postgres repositories, including
// transaction rollback and row-lock behavior, for tests and local runs without a database.
package memory

import (
	"context"
	"sync"
)

type txKey struct{}

type memTx struct {
	mu      sync.Mutex
	unlocks []func()
	undo    []func()
}

// Transactor scopes row locks and rollback to a transaction carried in the context.
type Transactor struct{}

// NewTransactor builds a memory transactor.
func NewTransactor() *Transactor {
	return &Transactor{}
}

// WithinTx runs fn, undoing its writes when it fails, then releases every row lock it took.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := txFrom(ctx); ok {
		return fn(ctx)
	}
	tx := &memTx{}
	defer func() {
		if p := recover(); p != nil {
			tx.finish(true)
			panic(p)
		}
	}()
	err = fn(context.WithValue(ctx, txKey{}, tx))
	tx.finish(err != nil)
	return err
}

func (tx *memTx) finish(rollback bool) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if rollback {
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
	}
	for i := len(tx.unlocks) - 1; i >= 0; i-- {
		tx.unlocks[i]()
	}
	tx.undo = nil
	tx.unlocks = nil
}

func txFrom(ctx context.Context) (*memTx, bool) {
	tx, ok := ctx.Value(txKey{}).(*memTx)
	return tx, ok
}

// rowLock is a re-entrant-per-transaction exclusive lock.
type rowLock struct {
	mu     sync.Mutex
	holder *memTx
	guard  sync.Mutex
}

// lock acquires l for the transaction in ctx and holds it until that transaction ends.
// Outside a transaction the lock is taken and released immediately.
func lock(ctx context.Context, l *rowLock) {
	tx, ok := txFrom(ctx)
	if !ok {
		l.mu.Lock()
		l.mu.Unlock() //nolint:staticcheck
		return
	}
	l.guard.Lock()
	held := l.holder == tx
	l.guard.Unlock()
	if held {
		return
	}
	l.mu.Lock()
	l.guard.Lock()
	l.holder = tx
	l.guard.Unlock()
	tx.mu.Lock()
	tx.unlocks = append(tx.unlocks, func() {
		l.guard.Lock()
		l.holder = nil
		l.guard.Unlock()
		l.mu.Unlock()
	})
	tx.mu.Unlock()
}

// onRollback registers fn to run if the transaction in ctx fails.
func onRollback(ctx context.Context, fn func()) {
	tx, ok := txFrom(ctx)
	if !ok {
		return
	}
	tx.mu.Lock()
	tx.undo = append(tx.undo, fn)
	tx.mu.Unlock()
}
