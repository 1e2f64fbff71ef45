package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/allergozyme/internal/client/models"
	"github.com/dmitrijs2005/allergozyme/internal/common"
	"github.com/dmitrijs2005/allergozyme/internal/dbx"
	"github.com/google/uuid"
)

// SQLiteRepository implements Repository over a DBTX.
type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

const selectColumns = `SELECT id, op, review_id, payload, state, attempts, last_error, created_at, updated_at FROM pending_ops`

// Create inserts op as pending. A missing id is generated; op is updated
// with the stored values.
func (r *SQLiteRepository) Create(ctx context.Context, op *models.PendingOp) error {
	if op.ID == "" {
		op.ID = uuid.NewString()
	}
	now := r.now()
	op.State, op.Attempts, op.LastError = models.OpPending, 0, ""
	op.CreatedAt, op.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pending_ops (id, op, review_id, payload, state, attempts, last_error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, '', ?, ?)
	`, op.ID, string(op.Kind), op.ReviewID, []byte(op.Payload), string(op.State), now.UnixNano(), now.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert pending op: %w", err)
	}
	return nil
}

// ListPending returns up to limit pending ops, oldest first. limit <= 0
// means no limit.
func (r *SQLiteRepository) ListPending(ctx context.Context, limit int) ([]models.PendingOp, error) {
	if limit <= 0 {
		limit = -1
	}
	return r.list(ctx, selectColumns+` WHERE state = ? ORDER BY created_at, id LIMIT ?`, string(models.OpPending), limit)
}

// ListFailed returns every failed op, oldest first.
func (r *SQLiteRepository) ListFailed(ctx context.Context) ([]models.PendingOp, error) {
	return r.list(ctx, selectColumns+` WHERE state = ? ORDER BY created_at, id`, string(models.OpFailed))
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.PendingOp, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending ops: %w", err)
	}
	defer rows.Close()

	result := []models.PendingOp{}
	for rows.Next() {
		var (
			op               models.PendingOp
			kind, state      string
			payload          []byte
			created, updated int64
		)
		if err := rows.Scan(&op.ID, &kind, &op.ReviewID, &payload, &state, &op.Attempts, &op.LastError, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan pending op: %w", err)
		}
		op.Kind, op.State = models.OpKind(kind), models.OpState(state)
		op.Payload = payload
		op.CreatedAt, op.UpdatedAt = time.Unix(0, created), time.Unix(0, updated)
		result = append(result, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending ops: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) MarkCompleted(ctx context.Context, id string, attempts int) error {
	return r.mark(ctx, id, models.OpCompleted, attempts, "")
}

func (r *SQLiteRepository) MarkFailed(ctx context.Context, id string, attempts int, lastErr string) error {
	return r.mark(ctx, id, models.OpFailed, attempts, lastErr)
}

func (r *SQLiteRepository) mark(ctx context.Context, id string, state models.OpState, attempts int, lastErr string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE pending_ops SET state = ?, attempts = ?, last_error = ?, updated_at = ? WHERE id = ?`,
		string(state), attempts, lastErr, r.now().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("failed to update pending op %s: %w", id, err)
	}
	if dbx.RowsAffected(res) == 0 {
		return common.NotFound("pending op not found")
	}
	return nil
}

// Counts returns the number of ops per state. Every state is present.
func (r *SQLiteRepository) Counts(ctx context.Context) (map[models.OpState]int, error) {
	result := map[models.OpState]int{
		models.OpPending:   0,
		models.OpCompleted: 0,
		models.OpFailed:    0,
	}
	rows, err := r.db.QueryContext(ctx, `SELECT state, COUNT(*) FROM pending_ops GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending ops: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("failed to scan pending op count: %w", err)
		}
		result[models.OpState(state)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending op counts: %w", err)
	}
	return result, nil
}

// PruneCompleted deletes completed ops and returns how many were removed.
func (r *SQLiteRepository) PruneCompleted(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pending_ops WHERE state = ?`, string(models.OpCompleted))
	if err != nil {
		return 0, fmt.Errorf("failed to prune pending ops: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
