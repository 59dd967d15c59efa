package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"wecount/internal/balance"
	"wecount/internal/models"
	"wecount/internal/services"
)

type BalanceHandler struct {
	db         *gorm.DB
	settlement *services.SettlementService
}

func NewBalanceHandler(db *gorm.DB, settlement *services.SettlementService) *BalanceHandler {
	return &BalanceHandler{db: db, settlement: settlement}
}

// GetEventBalances returns the full settlement of one event. Unlike the
// composite event detail, this endpoint fails loudly: a storage error is a
// 500, never an empty "all settled" response.
func (h *BalanceHandler) GetEventBalances(c echo.Context) error {
	user, err := currentUser(c, h.db)
	if err != nil {
		return err
	}
	eventID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if _, _, err := requireEventMember(c, h.db, eventID, user); err != nil {
		return err
	}

	res, err := h.settlement.Settle(c.Request().Context(), eventID, balance.Viewer{UserID: user.ID, Username: user.Name})
	if err != nil {
		if errors.Is(err, services.ErrInvalidEventID) {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid identifier")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to compute balances")
	}
	return c.JSON(http.StatusOK, res)
}

type userEventBalance struct {
	EventID        uint                  `json:"event_id"`
	EventName      string                `json:"event_name"`
	Currency       string                `json:"currency"`
	TotalToPay     float64               `json:"total_to_pay"`
	TotalToReceive float64               `json:"total_to_receive"`
	PendingToPay   float64               `json:"pending_to_pay"`
	RejectedToPay  float64               `json:"rejected_to_pay"`
	Credit         []balance.CreditEntry `json:"credit"`
	Debit          []balance.DebitEntry  `json:"debit"`
	PaidTotal      float64               `json:"paid_total"`
}

// GetUserBalances aggregates the user's position across every event they
// belong to, including the total they have fronted as payer.
func (h *BalanceHandler) GetUserBalances(c echo.Context) error {
	user, err := currentUser(c, h.db)
	if err != nil {
		return err
	}

	var memberships []models.Participant
	if err := h.db.Preload("Event").Where("user_id = ?", user.ID).Find(&memberships).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch events")
	}

	out := make([]userEventBalance, 0, len(memberships))
	for _, m := range memberships {
		res, err := h.settlement.Settle(c.Request().Context(), m.EventID, balance.Viewer{UserID: user.ID, Username: user.Name})
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to compute balances")
		}

		var paidTotal float64
		if err := h.db.Model(&models.Expense{}).
			Where("event_id = ? AND paid_by_id = ?", m.EventID, m.ID).
			Select("COALESCE(SUM(amount), 0)").Scan(&paidTotal).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to sum paid expenses")
		}

		entry := userEventBalance{
			EventID:        m.EventID,
			EventName:      m.Event.Name,
			Currency:       m.Event.Currency,
			TotalToPay:     res.TotalToPay,
			TotalToReceive: res.TotalToReceive,
			PendingToPay:   res.PendingToPay,
			RejectedToPay:  res.RejectedToPay,
			Credit:         []balance.CreditEntry{},
			Debit:          []balance.DebitEntry{},
			PaidTotal:      paidTotal,
		}
		if res.UserSummary != nil {
			entry.Credit = res.UserSummary.Credit
			entry.Debit = res.UserSummary.Debit
		}
		out = append(out, entry)
	}
	return c.JSON(http.StatusOK, out)
}
