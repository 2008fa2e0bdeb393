package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/travel-journal/internal/model"
	"github.com/sakif/travel-journal/internal/repository"
)

var _ repository.PlanRepository = (*PlanDB)(nil)

// PlanDB is the plan-log view of DB.
type PlanDB struct {
	conn *sql.DB
}

// Plans returns the repository for the plan log.
func (db *DB) Plans() *PlanDB {
	return &PlanDB{conn: db.conn}
}

// RecordPlan appends one row to the plan log. Callers treat a failure here as
// non-fatal; this method still reports it so the caller can log it.
func (db *PlanDB) RecordPlan(ctx context.Context, record *model.PlanRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO plan (plan, user_id, created_at) VALUES (?, ?, ?)`,
		record.Plan, record.UserID, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: recording plan %q for %s: %w", record.Plan, record.UserID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		record.ID = id
	}
	return nil
}
