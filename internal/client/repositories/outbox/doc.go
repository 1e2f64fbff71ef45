// Package outbox persists reconciliation ops waiting to be replayed
// against the hosted service.
//
// # Overview
//
// When the remote backend is active, writes of the reviews document are
// diffed against the cached listing and every resulting update or delete
// becomes a PendingOp row in the local SQLite database (table pending_ops).
// A worker drains pending rows and marks each one completed or failed.
//
// # States
//
//	pending   -> waiting for (another) attempt
//	completed -> applied remotely
//	failed    -> retries exhausted; last_error holds the final cause
//
// Typical Usage
//
//	repo := outbox.NewSQLiteRepository(db)
//	_ = repo.Create(ctx, &models.PendingOp{Kind: models.OpDelete, ReviewID: id})
//	ops, _ := repo.ListPending(ctx, 50)
//	_ = repo.MarkCompleted(ctx, ops[0].ID, 1)
package outbox
