package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"wecount/internal/balance"
	"wecount/internal/models"
	"wecount/internal/services"
)

type ExpenseHandler struct {
	db         *gorm.DB
	settlement *services.SettlementService
}

func NewExpenseHandler(db *gorm.DB, settlement *services.SettlementService) *ExpenseHandler {
	return &ExpenseHandler{db: db, settlement: settlement}
}

type expenseShareInput struct {
	ParticipantID uint    `json:"participant_id"`
	Participates  bool    `json:"participates"`
	Amount        float64 `json:"amount"`
	Weight        float64 `json:"weight"`
}

type expenseRequest struct {
	Description string              `json:"description"`
	Amount      float64             `json:"amount"`
	PaidByID    uint                `json:"paid_by_id"`
	SplitKind   models.SplitKind    `json:"split_kind"`
	SpentAt     *time.Time          `json:"spent_at"`
	Shares      []expenseShareInput `json:"shares"`
}

// buildShares computes the persisted share rows server-side. Clients send
// only the selection (and, depending on the split kind, custom amounts or
// weights); amounts are always derived here so a tampered payload cannot
// skew the ledger. Deselected participants keep a zero row for audit.
func buildShares(req *expenseRequest) ([]models.ExpenseShare, error) {
	var participating []uint
	custom := make(map[uint]float64)
	weights := make(map[uint]float64)
	for _, in := range req.Shares {
		if !in.Participates {
			continue
		}
		participating = append(participating, in.ParticipantID)
		custom[in.ParticipantID] = in.Amount
		if in.Weight > 0 {
			weights[in.ParticipantID] = in.Weight
		}
	}

	computed, err := balance.ComputeShares(balance.SplitKind(req.SplitKind), req.Amount, participating, custom, weights)
	if err != nil {
		return nil, err
	}

	shares := make([]models.ExpenseShare, 0, len(req.Shares))
	for _, in := range req.Shares {
		share := models.ExpenseShare{
			ParticipantID: in.ParticipantID,
			Participates:  in.Participates,
			Weight:        1,
		}
		if in.Weight > 0 {
			share.Weight = in.Weight
		}
		if in.Participates {
			share.Amount = computed[in.ParticipantID]
		}
		shares = append(shares, share)
	}
	return shares, nil
}

func validateExpenseRequest(req *expenseRequest, event *models.Event) error {
	if req.Amount <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Amount must be positive")
	}
	if len(req.Shares) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "At least one share is required")
	}
	if req.SplitKind == "" {
		req.SplitKind = models.SplitKindEqual
	}

	valid := make(map[uint]bool, len(event.Participants))
	for _, p := range event.Participants {
		valid[p.ID] = true
	}
	if !valid[req.PaidByID] {
		return echo.NewHTTPError(http.StatusBadRequest, "Payer is not a participant of this event")
	}
	for _, in := range req.Shares {
		if !valid[in.ParticipantID] {
			return echo.NewHTTPError(http.StatusBadRequest, "Share references a participant outside this event")
		}
	}
	return nil
}

// CreateExpense records an outlay with its computed share set.
func (h *ExpenseHandler) CreateExpense(c echo.Context) error {
	user, err := currentUser(c, h.db)
	if err != nil {
		return err
	}
	eventID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	event, _, err := requireEventMember(c, h.db, eventID, user)
	if err != nil {
		return err
	}

	var req expenseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	if err := validateExpenseRequest(&req, event); err != nil {
		return err
	}

	shares, err := buildShares(&req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	spentAt := time.Now()
	if req.SpentAt != nil {
		spentAt = *req.SpentAt
	}
	expense := models.Expense{
		EventID:     eventID,
		Description: req.Description,
		Amount:      req.Amount,
		PaidByID:    req.PaidByID,
		SplitKind:   req.SplitKind,
		Currency:    event.Currency,
		SpentAt:     spentAt,
		Shares:      shares,
	}
	if err := h.db.Create(&expense).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create expense")
	}

	h.settlement.Invalidate(c.Request().Context(), eventID)
	return c.JSON(http.StatusCreated, expense)
}

// ListExpenses returns the event's expenses, newest first.
func (h *ExpenseHandler) ListExpenses(c echo.Context) error {
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

	var expenses []models.Expense
	if err := h.db.Preload("Shares").Preload("PaidBy").Where("event_id = ?", eventID).Order("spent_at desc, id desc").Find(&expenses).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch expenses")
	}
	return c.JSON(http.StatusOK, expenses)
}

// GetExpense returns one expense with all share rows, including the
// deselected zero-amount ones.
func (h *ExpenseHandler) GetExpense(c echo.Context) error {
	user, err := currentUser(c, h.db)
	if err != nil {
		return err
	}
	expenseID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var expense models.Expense
	if err := h.db.Preload("Shares.Participant").Preload("PaidBy").First(&expense, expenseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Expense not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load expense")
	}
	if _, _, err := requireEventMember(c, h.db, expense.EventID, user); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, expense)
}

// UpdateExpense replaces the expense and its whole share set in one
// transaction. Shares are never patched row by row; a partial replace could
// leave the share sum disagreeing with the amount.
func (h *ExpenseHandler) UpdateExpense(c echo.Context) error {
	user, err := currentUser(c, h.db)
	if err != nil {
		return err
	}
	expenseID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var expense models.Expense
	if err := h.db.First(&expense, expenseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Expense not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load expense")
	}
	event, _, err := requireEventMember(c, h.db, expense.EventID, user)
	if err != nil {
		return err
	}

	var req expenseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	if err := validateExpenseRequest(&req, event); err != nil {
		return err
	}
	shares, err := buildShares(&req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("expense_id = ?", expense.ID).Delete(&models.ExpenseShare{}).Error; err != nil {
			return err
		}
		expense.Description = req.Description
		expense.Amount = req.Amount
		expense.PaidByID = req.PaidByID
		expense.SplitKind = req.SplitKind
		if req.SpentAt != nil {
			expense.SpentAt = *req.SpentAt
		}
		for i := range shares {
			shares[i].ExpenseID = expense.ID
		}
		expense.Shares = shares
		return tx.Save(&expense).Error
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update expense")
	}

	h.settlement.Invalidate(c.Request().Context(), expense.EventID)
	return c.JSON(http.StatusOK, expense)
}

// DeleteExpense removes an expense and its shares.
func (h *ExpenseHandler) DeleteExpense(c echo.Context) error {
	user, err := currentUser(c, h.db)
	if err != nil {
		return err
	}
	expenseID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var expense models.Expense
	if err := h.db.First(&expense, expenseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Expense not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load expense")
	}
	if _, _, err := requireEventMember(c, h.db, expense.EventID, user); err != nil {
		return err
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expense_id = ?", expense.ID).Delete(&models.ExpenseShare{}).Error; err != nil {
			return err
		}
		return tx.Delete(&expense).Error
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete expense")
	}

	h.settlement.Invalidate(c.Request().Context(), expense.EventID)
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

// HasExpenses tells clients whether the event has any expenses yet, used to
// gate destructive actions like removing participants.
func (h *ExpenseHandler) HasExpenses(c echo.Context) error {
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

	var count int64
	if err := h.db.Model(&models.Expense{}).Where("event_id = ?", eventID).Count(&count).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to count expenses")
	}
	return c.JSON(http.StatusOK, map[string]bool{"has_expenses": count > 0})
}
