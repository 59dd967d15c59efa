package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"wecount/internal/models"
	"wecount/internal/services"
)

type ReimbursementHandler struct {
	db         *gorm.DB
	settlement *services.SettlementService
	payments   *services.PaymentService
	midtrans   *services.MidtransService
}

func NewReimbursementHandler(db *gorm.DB, settlement *services.SettlementService, payments *services.PaymentService, midtrans *services.MidtransService) *ReimbursementHandler {
	return &ReimbursementHandler{db: db, settlement: settlement, payments: payments, midtrans: midtrans}
}

type createReimbursementRequest struct {
	FromParticipantID uint       `json:"from_participant_id"`
	ToParticipantID   uint       `json:"to_participant_id"`
	Amount            float64    `json:"amount"`
	Note              string     `json:"note"`
	Date              *time.Time `json:"date"`
}

// CreateReimbursement records a repayment attempt. New reimbursements are
// always pending; only an explicit status transition or a confirmed gateway
// payment marks them completed, so a merely announced repayment never
// reduces anyone's debt.
func (h *ReimbursementHandler) CreateReimbursement(c echo.Context) error {
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

	var req createReimbursementRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	if req.Amount <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Amount must be positive")
	}
	if req.FromParticipantID == req.ToParticipantID {
		return echo.NewHTTPError(http.StatusBadRequest, "Debtor and creditor must differ")
	}

	valid := make(map[uint]bool, len(event.Participants))
	for _, p := range event.Participants {
		valid[p.ID] = true
	}
	if !valid[req.FromParticipantID] || !valid[req.ToParticipantID] {
		return echo.NewHTTPError(http.StatusBadRequest, "Both sides must be participants of this event")
	}

	date := time.Now()
	if req.Date != nil {
		date = *req.Date
	}
	reimbursement := models.Reimbursement{
		EventID:           eventID,
		FromParticipantID: req.FromParticipantID,
		ToParticipantID:   req.ToParticipantID,
		Amount:            req.Amount,
		Currency:          event.Currency,
		Status:            models.ReimbursementStatusPending,
		Note:              req.Note,
		Date:              date,
	}
	if err := h.db.Create(&reimbursement).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create reimbursement")
	}

	h.settlement.Invalidate(c.Request().Context(), eventID)
	return c.JSON(http.StatusCreated, reimbursement)
}

// ListReimbursements returns the event's reimbursements, newest first.
func (h *ReimbursementHandler) ListReimbursements(c echo.Context) error {
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

	var reimbursements []models.Reimbursement
	if err := h.db.Preload("FromParticipant").Preload("ToParticipant").Where("event_id = ?", eventID).Order("date desc, id desc").Find(&reimbursements).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch reimbursements")
	}
	return c.JSON(http.StatusOK, reimbursements)
}

type updateStatusRequest struct {
	Status models.ReimbursementStatus `json:"status"`
}

// UpdateStatus moves a pending reimbursement to completed or rejected.
// Only the creditor can confirm or reject, and terminal states never move
// again.
func (h *ReimbursementHandler) UpdateStatus(c echo.Context) error {
	user, err := currentUser(c, h.db)
	if err != nil {
		return err
	}
	reimbursementID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var reimbursement models.Reimbursement
	if err := h.db.Preload("ToParticipant").First(&reimbursement, reimbursementID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Reimbursement not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load reimbursement")
	}
	if _, _, err := requireEventMember(c, h.db, reimbursement.EventID, user); err != nil {
		return err
	}
	if reimbursement.ToParticipant.UserID == nil || *reimbursement.ToParticipant.UserID != user.ID {
		return echo.NewHTTPError(http.StatusForbidden, "Only the recipient can confirm or reject a repayment")
	}

	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	if !reimbursement.Status.CanTransitionTo(req.Status) {
		return echo.NewHTTPError(http.StatusConflict, "Invalid status transition")
	}

	reimbursement.Status = req.Status
	if err := h.db.Save(&reimbursement).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update reimbursement")
	}

	h.settlement.Invalidate(c.Request().Context(), reimbursement.EventID)
	return c.JSON(http.StatusOK, reimbursement)
}

// InitiatePayment opens a gateway checkout for a pending reimbursement.
func (h *ReimbursementHandler) InitiatePayment(c echo.Context) error {
	user, err := currentUser(c, h.db)
	if err != nil {
		return err
	}
	reimbursementID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var reimbursement models.Reimbursement
	if err := h.db.Preload("FromParticipant").Preload("ToParticipant").First(&reimbursement, reimbursementID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Reimbursement not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load reimbursement")
	}
	if _, _, err := requireEventMember(c, h.db, reimbursement.EventID, user); err != nil {
		return err
	}
	if reimbursement.FromParticipant.UserID == nil || *reimbursement.FromParticipant.UserID != user.ID {
		return echo.NewHTTPError(http.StatusForbidden, "You can only pay your own reimbursements")
	}

	forceNew := c.QueryParam("force_new") == "true"
	result, err := h.payments.InitiatePayment(&reimbursement, user, forceNew, c.QueryParam("callback_url"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to initiate payment: "+err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"token":        result.Token,
		"redirect_url": result.RedirectURL,
		"is_existing":  result.IsExisting,
	})
}

// MidtransCallback handles gateway notifications. The raw payload is stored
// first, the signature checked, and only then is the reimbursement moved
// through its normal status transition.
func (h *ReimbursementHandler) MidtransCallback(c echo.Context) error {
	var payload map[string]interface{}
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}

	orderID, _ := payload["order_id"].(string)
	transactionStatus, _ := payload["transaction_status"].(string)
	fraudStatus, _ := payload["fraud_status"].(string)
	statusCode, _ := payload["status_code"].(string)
	grossAmount, _ := payload["gross_amount"].(string)
	signatureKey, _ := payload["signature_key"].(string)

	raw, _ := json.Marshal(payload)
	h.db.Create(&models.PaymentCallbackHistory{
		PaymentGateway: models.PaymentGatewayMidtrans,
		OrderID:        orderID,
		Metadata:       raw,
	})

	if !h.midtrans.VerifySignature(orderID, statusCode, grossAmount, signatureKey) {
		return echo.NewHTTPError(http.StatusForbidden, "Invalid signature")
	}

	// Order ID format: reimbursement-{id}-{timestamp}
	parts := strings.Split(orderID, "-")
	if len(parts) < 3 || parts[0] != "reimbursement" {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid order ID format")
	}
	reimbursementID, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid reimbursement ID in order ID")
	}

	var reimbursement models.Reimbursement
	if err := h.db.First(&reimbursement, uint(reimbursementID)).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Reimbursement not found")
	}

	switch {
	case transactionStatus == "capture" && fraudStatus == "accept",
		transactionStatus == "settlement":
		h.markCompleted(&reimbursement, orderID)
	case transactionStatus == "deny", transactionStatus == "expire", transactionStatus == "cancel":
		h.db.Model(&models.PaymentSession{}).Where("order_id = ?", orderID).Update("is_active", false)
	}

	h.settlement.Invalidate(c.Request().Context(), reimbursement.EventID)
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ReimbursementHandler) markCompleted(reimbursement *models.Reimbursement, orderID string) {
	if !reimbursement.Status.CanTransitionTo(models.ReimbursementStatusCompleted) {
		return
	}
	reimbursement.Status = models.ReimbursementStatusCompleted
	h.db.Save(reimbursement)
	h.db.Model(&models.PaymentSession{}).Where("order_id = ?", orderID).Update("is_active", false)
}
