package db

import (
	"context"
	"database/sql"
)

// TxFunc runs inside a transaction owned by the worker. Returning an error
// rolls the transaction back.
type TxFunc func(ctx context.Context, tx *sql.Tx) error

type job struct {
	ctx    context.Context
	fn     TxFunc
	result chan error
}

// Worker serializes all writes through one goroutine so the single SQLite
// connection never sees interleaved transactions. Reads bypass it.
type Worker struct {
	db   *sql.DB
	jobs chan job
	done chan struct{}
}

func NewWorker(db *sql.DB) *Worker {
	w := &Worker{
		db:   db,
		jobs: make(chan job, 256),
		done: make(chan struct{}),
	}
	go w.run()
	return w
}

// Close stops accepting work and waits for queued jobs to finish.
func (w *Worker) Close() {
	close(w.jobs)
	<-w.done
}

// Do runs fn in a transaction on the writer goroutine and returns its
// outcome. If the caller's context expires while the job is queued or
// running, Do returns early with ctx.Err(); the transaction itself still
// runs to completion and its result is discarded.
func (w *Worker) Do(ctx context.Context, fn TxFunc) error {
	j := job{ctx: ctx, fn: fn, result: make(chan error, 1)}

	select {
	case w.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-j.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) run() {
	defer close(w.done)

	for j := range w.jobs {
		j.result <- w.runTx(j.ctx, j.fn)
	}
}

func (w *Worker) runTx(ctx context.Context, fn TxFunc) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
