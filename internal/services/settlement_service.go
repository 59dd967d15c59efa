package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"wecount/internal/balance"
	"wecount/internal/models"
)

// ErrInvalidEventID rejects settlement requests before any storage access.
var ErrInvalidEventID = errors.New("invalid event identifier")

// SettlementService loads an event's snapshot and runs the balance engine
// over it. Results are cached per (event, user) for a short TTL; storage
// errors propagate unchanged rather than degrading to an empty settlement.
type SettlementService struct {
	db     *gorm.DB
	cache  *RedisCache
	logger *slog.Logger
}

func NewSettlementService(db *gorm.DB, cache *RedisCache, logger *slog.Logger) *SettlementService {
	return &SettlementService{db: db, cache: cache, logger: logger}
}

// Settle computes the settlement view of an event for the given viewer.
// A missing event yields an empty settlement, not an error: "no activity
// yet" is a normal state. The cache is bypassed when no cache is configured.
func (s *SettlementService) Settle(ctx context.Context, eventID uint, viewer balance.Viewer) (balance.Result, error) {
	if eventID == 0 {
		return balance.Result{}, ErrInvalidEventID
	}

	compute := func() (balance.Result, error) {
		snap, err := s.loadSnapshot(ctx, eventID)
		if err != nil {
			return balance.Result{}, err
		}
		res := balance.Compute(snap, viewer)
		for _, w := range res.Warnings {
			s.logger.Warn("settlement diagnostic", "event_id", eventID, "detail", w)
		}
		return res, nil
	}

	if s.cache == nil {
		return compute()
	}
	return GetOrSet(s.cache, ctx, SettlementKey(eventID, viewer.UserID), settlementCacheTTL, compute)
}

// Invalidate drops cached settlement views after a mutation to the event.
func (s *SettlementService) Invalidate(ctx context.Context, eventID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateEvent(ctx, eventID); err != nil {
		s.logger.Warn("settlement cache invalidation failed", "event_id", eventID, "error", err)
	}
}

// loadSnapshot reads the event's participants, expenses with shares and
// reimbursements in one transaction so the engine sees a consistent view
// even while other requests are writing.
func (s *SettlementService) loadSnapshot(ctx context.Context, eventID uint) (balance.Snapshot, error) {
	var snap balance.Snapshot

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := tx.First(&event, eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("load event %d: %w", eventID, err)
		}
		snap.Currency = event.Currency

		var participants []models.Participant
		if err := tx.Where("event_id = ?", eventID).Order("id").Find(&participants).Error; err != nil {
			return fmt.Errorf("load participants for event %d: %w", eventID, err)
		}
		nameOf := make(map[uint]string, len(participants))
		for _, p := range participants {
			nameOf[p.ID] = p.Name
			snap.Participants = append(snap.Participants, balance.Participant{
				ID:     p.ID,
				Name:   p.Name,
				UserID: p.UserID,
			})
		}

		var expenses []models.Expense
		if err := tx.Preload("Shares").Where("event_id = ?", eventID).Order("id").Find(&expenses).Error; err != nil {
			return fmt.Errorf("load expenses for event %d: %w", eventID, err)
		}
		for _, e := range expenses {
			be := balance.Expense{
				ID:       e.ID,
				Amount:   e.Amount,
				PaidBy:   nameOf[e.PaidByID],
				Split:    balance.SplitKind(e.SplitKind),
				Currency: e.Currency,
			}
			for _, sh := range e.Shares {
				be.Shares = append(be.Shares, balance.Share{
					ParticipantID: sh.ParticipantID,
					Amount:        sh.Amount,
					Participates:  sh.Participates,
				})
			}
			snap.Expenses = append(snap.Expenses, be)
		}

		var reimbursements []models.Reimbursement
		if err := tx.Where("event_id = ?", eventID).Order("id").Find(&reimbursements).Error; err != nil {
			return fmt.Errorf("load reimbursements for event %d: %w", eventID, err)
		}
		for _, r := range reimbursements {
			snap.Reimbursements = append(snap.Reimbursements, balance.Reimbursement{
				ID:     r.ID,
				FromID: r.FromParticipantID,
				ToID:   r.ToParticipantID,
				Amount: r.Amount,
				Status: balance.ReimbursementStatus(r.Status),
				Date:   r.Date,
			})
		}
		return nil
	})
	if err != nil {
		return balance.Snapshot{}, err
	}
	return snap, nil
}
