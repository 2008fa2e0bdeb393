package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/sakif/travel-journal/internal/model"
)

// countPlans reads the plan log directly; the app itself never reads it back.
func countPlans(t *testing.T, db *DB, userID string) int {
	t.Helper()
	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM plan WHERE user_id = ?`, userID).Scan(&n); err != nil {
		t.Fatalf("counting plans: %v", err)
	}
	return n
}

func TestRecordPlan(t *testing.T) {
	db := newTestDB(t)
	p := db.Plans()

	rec := &model.PlanRecord{Plan: model.PlanTravelLite, UserID: "alice"}
	if err := p.RecordPlan(context.Background(), rec); err != nil {
		t.Fatalf("RecordPlan() error = %v", err)
	}
	if rec.ID == 0 {
		t.Error("RecordPlan() did not set record.ID")
	}

	// Append-only: a second call adds a second row.
	if err := p.RecordPlan(context.Background(), &model.PlanRecord{Plan: model.PlanTravelLite, UserID: "alice"}); err != nil {
		t.Fatalf("RecordPlan() second error = %v", err)
	}

	if n := countPlans(t, db, "alice"); n != 2 {
		t.Errorf("plan rows for alice = %d, want 2", n)
	}
	if n := countPlans(t, db, "bob"); n != 0 {
		t.Errorf("plan rows for bob = %d, want 0", n)
	}
}

// TestRecordPlan_DatabaseError drives the failure path with go-sqlmock; a real
// SQLite file won't refuse a plain INSERT on demand.
func TestRecordPlan_DatabaseError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer conn.Close()

	mock.ExpectExec("INSERT INTO plan").
		WithArgs(model.PlanTravelLite, "alice", sqlmock.AnyArg()).
		WillReturnError(errors.New("disk I/O error"))

	err = NewFromConn(conn).Plans().RecordPlan(context.Background(),
		&model.PlanRecord{Plan: model.PlanTravelLite, UserID: "alice"})
	if err == nil {
		t.Fatal("RecordPlan() should surface the database error to its caller")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}
