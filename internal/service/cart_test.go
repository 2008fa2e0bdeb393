package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/sakif/travel-journal/internal/model"
)

func TestRecordPlan_LoggedIn(t *testing.T) {
	repo := &fakePlanRepo{}
	svc := NewCartService(repo, discardLogger())

	svc.RecordPlan(context.Background(), "alice")

	if len(repo.records) != 1 {
		t.Fatalf("records = %d, want 1", len(repo.records))
	}
	if repo.records[0].Plan != model.PlanTravelLite || repo.records[0].UserID != "alice" {
		t.Errorf("record = %+v, want Travel-Lite for alice", repo.records[0])
	}
}

func TestRecordPlan_AnonymousRecordsNothing(t *testing.T) {
	repo := &fakePlanRepo{}
	svc := NewCartService(repo, discardLogger())

	svc.RecordPlan(context.Background(), "")

	if len(repo.records) != 0 {
		t.Errorf("records = %d, want 0 for an anonymous cart", len(repo.records))
	}
}

func TestRecordPlan_FailureIsLoggedNotReturned(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	repo := &fakePlanRepo{err: errors.New("no such table: plan")}
	svc := NewCartService(repo, logger)

	// RecordPlan has no return value; the only trace of the failure is the log.
	svc.RecordPlan(context.Background(), "alice")

	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "no such table: plan") {
		t.Errorf("expected a WARN log with the cause, got %q", out)
	}
}
