package service

import (
	"context"
	"log/slog"

	"github.com/sakif/travel-journal/internal/model"
	"github.com/sakif/travel-journal/internal/repository"
)

// CartService records the marketing plan log when logged-in users shop.
//
// The cart itself lives in the session and is appended to by the handler.
// This service only owns the side effect that touches the database.
type CartService struct {
	plans  repository.PlanRepository
	logger *slog.Logger
}

func NewCartService(plans repository.PlanRepository, logger *slog.Logger) *CartService {
	return &CartService{plans: plans, logger: logger}
}

// RecordPlan appends a Travel-Lite plan row for userID.
//
// FIRE-AND-FORGET:
// The plan log is analytics, not part of the purchase. A failed insert is
// logged at WARN and otherwise ignored: no retry, no error for the caller,
// and the cart add that triggered it carries on unaffected.
func (s *CartService) RecordPlan(ctx context.Context, userID string) {
	if userID == "" {
		return
	}

	record := &model.PlanRecord{Plan: model.PlanTravelLite, UserID: userID}
	if err := s.plans.RecordPlan(ctx, record); err != nil {
		s.logger.Warn("failed to record plan",
			slog.String("plan", record.Plan),
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
	}
}
