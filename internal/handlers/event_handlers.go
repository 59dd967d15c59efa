package handlers

import (
	"crypto/rand"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"wecount/internal/balance"
	"wecount/internal/models"
	"wecount/internal/services"
)

type EventHandler struct {
	db         *gorm.DB
	cache      *services.RedisCache
	settlement *services.SettlementService
}

func NewEventHandler(db *gorm.DB, cache *services.RedisCache, settlement *services.SettlementService) *EventHandler {
	return &EventHandler{db: db, cache: cache, settlement: settlement}
}

// Codes use an unambiguous alphabet (no 0/O, 1/I) since people read them
// aloud and type them on phones.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generateEventCode() string {
	buf := make([]byte, 6)
	rand.Read(buf)
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf)
}

type createEventRequest struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Currency         string   `json:"currency"`
	ParticipantNames []string `json:"participant_names"`
	CreatorName      string   `json:"creator_name"`
}

// CreateEvent creates an event with its initial roster. The creator always
// becomes a linked participant; extra names become unlinked participants
// that members can claim later when they register.
func (h *EventHandler) CreateEvent(c echo.Context) error {
	user, err := currentUser(c, h.db)
	if err != nil {
		return err
	}

	var req createEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Event name is required")
	}
	if req.Currency == "" {
		req.Currency = "EUR"
	}
	creatorName := req.CreatorName
	if creatorName == "" {
		creatorName = user.Name
	}

	event := models.Event{
		Name:        req.Name,
		Description: req.Description,
		Currency:    req.Currency,
		CreatedBy:   user.ID,
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		// Retry on the unlikely code collision.
		for attempt := 0; attempt < 5; attempt++ {
			event.Code = generateEventCode()
			if err := tx.Create(&event).Error; err == nil {
				break
			} else if attempt == 4 {
				return err
			}
			event.ID = 0
		}

		participants := []models.Participant{
			{EventID: event.ID, Name: creatorName, UserID: &user.ID},
		}
		for _, name := range req.ParticipantNames {
			if name == "" || name == creatorName {
				continue
			}
			participants = append(participants, models.Participant{EventID: event.ID, Name: name})
		}
		return tx.Create(&participants).Error
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create event")
	}

	h.db.Preload("Participants").First(&event, event.ID)
	return c.JSON(http.StatusCreated, event)
}

// ListEvents returns the events the user participates in or created.
func (h *EventHandler) ListEvents(c echo.Context) error {
	user, err := currentUser(c, h.db)
	if err != nil {
		return err
	}

	var events []models.Event
	err = h.db.Preload("Participants").
		Where("created_by = ? OR id IN (?)",
			user.ID,
			h.db.Model(&models.Participant{}).Select("event_id").Where("user_id = ?", user.ID),
		).
		Order("created_at desc").
		Find(&events).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch events")
	}
	return c.JSON(http.StatusOK, events)
}

type eventDetailResponse struct {
	Event    models.Event     `json:"event"`
	Expenses []models.Expense `json:"expenses"`
	Balances *balance.Result  `json:"balances,omitempty"`
	Warnings []string         `json:"warnings,omitempty"`
}

// GetEvent returns the composite detail view. The settlement part may be
// omitted when its computation fails; the event itself still renders, with
// the degradation surfaced in the response rather than hidden.
func (h *EventHandler) GetEvent(c echo.Context) error {
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

	resp := eventDetailResponse{Event: *event}
	if err := h.db.Preload("Shares").Preload("PaidBy").Where("event_id = ?", eventID).Order("created_at desc").Find(&resp.Expenses).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch expenses")
	}

	res, err := h.settlement.Settle(c.Request().Context(), eventID, balance.Viewer{UserID: user.ID, Username: user.Name})
	if err != nil {
		slog.Error("settlement unavailable for event detail", "event_id", eventID, "error", err)
		resp.Warnings = append(resp.Warnings, "balances are temporarily unavailable")
	} else {
		resp.Balances = &res
	}
	return c.JSON(http.StatusOK, resp)
}

type updateEventRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Currency    string `json:"currency"`
}

// UpdateEvent changes the event's metadata. Creator only.
func (h *EventHandler) UpdateEvent(c echo.Context) error {
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
	if event.CreatedBy != user.ID {
		return echo.NewHTTPError(http.StatusForbidden, "Only the creator can edit the event")
	}

	var req updateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	if req.Name != "" {
		event.Name = req.Name
	}
	event.Description = req.Description
	if req.Currency != "" {
		event.Currency = req.Currency
	}
	if err := h.db.Save(event).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update event")
	}

	h.settlement.Invalidate(c.Request().Context(), eventID)
	return c.JSON(http.StatusOK, event)
}

// DeleteEvent soft-deletes an event and everything scoped to it.
func (h *EventHandler) DeleteEvent(c echo.Context) error {
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
	if event.CreatedBy != user.ID {
		return echo.NewHTTPError(http.StatusForbidden, "Only the creator can delete the event")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", eventID).Delete(&models.Reimbursement{}).Error; err != nil {
			return err
		}
		if err := tx.Where("expense_id IN (?)",
			tx.Model(&models.Expense{}).Select("id").Where("event_id = ?", eventID),
		).Delete(&models.ExpenseShare{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", eventID).Delete(&models.Expense{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", eventID).Delete(&models.Participant{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Event{}, eventID).Error
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete event")
	}

	h.settlement.Invalidate(c.Request().Context(), eventID)
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

// GetEventByCode returns the minimal public view used by the join screen.
func (h *EventHandler) GetEventByCode(c echo.Context) error {
	code := c.Param("code")
	var event models.Event
	if err := h.db.Preload("Participants").Where("code = ?", code).First(&event).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "No event with this code")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load event")
	}

	names := make([]string, 0, len(event.Participants))
	for _, p := range event.Participants {
		names = append(names, p.Name)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":           event.ID,
		"name":         event.Name,
		"currency":     event.Currency,
		"participants": names,
	})
}

type joinEventRequest struct {
	Code            string `json:"code"`
	ParticipantName string `json:"participant_name"`
}

// JoinEvent adds the user to an event by invite code. If an unlinked
// participant with the chosen name already exists the user claims it,
// inheriting its expense history; otherwise a new participant is created.
func (h *EventHandler) JoinEvent(c echo.Context) error {
	user, err := currentUser(c, h.db)
	if err != nil {
		return err
	}

	var req joinEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	if req.Code == "" || req.ParticipantName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Code and participant name are required")
	}

	var event models.Event
	if err := h.db.Where("code = ?", req.Code).First(&event).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "No event with this code")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load event")
	}

	var participant models.Participant
	err = h.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Participant
		err := tx.Where("event_id = ? AND name = ?", event.ID, req.ParticipantName).First(&existing).Error
		switch {
		case err == nil:
			if existing.UserID != nil && *existing.UserID != user.ID {
				return echo.NewHTTPError(http.StatusConflict, "This name is already taken by another member")
			}
			existing.UserID = &user.ID
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			participant = existing
			return nil
		case err == gorm.ErrRecordNotFound:
			participant = models.Participant{EventID: event.ID, Name: req.ParticipantName, UserID: &user.ID}
			return tx.Create(&participant).Error
		default:
			return err
		}
	})
	if err != nil {
		if he, ok := err.(*echo.HTTPError); ok {
			return he
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to join event")
	}

	h.settlement.Invalidate(c.Request().Context(), event.ID)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"event":       event,
		"participant": participant,
	})
}

type renameParticipantRequest struct {
	Name string `json:"name"`
}

// RenameParticipant changes a participant's display name. Expenses and
// reimbursements reference participants by id, so the history follows the
// rename with no further bookkeeping.
func (h *EventHandler) RenameParticipant(c echo.Context) error {
	user, err := currentUser(c, h.db)
	if err != nil {
		return err
	}
	participantID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var participant models.Participant
	if err := h.db.First(&participant, participantID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Participant not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load participant")
	}

	event, _, err := requireEventMember(c, h.db, participant.EventID, user)
	if err != nil {
		return err
	}
	isSelf := participant.UserID != nil && *participant.UserID == user.ID
	if !isSelf && event.CreatedBy != user.ID {
		return echo.NewHTTPError(http.StatusForbidden, "You can only rename yourself")
	}

	var req renameParticipantRequest
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "A new name is required")
	}

	var clash int64
	h.db.Model(&models.Participant{}).
		Where("event_id = ? AND name = ? AND id != ?", participant.EventID, req.Name, participant.ID).
		Count(&clash)
	if clash > 0 {
		return echo.NewHTTPError(http.StatusConflict, "This name is already taken")
	}

	participant.Name = req.Name
	if err := h.db.Save(&participant).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to rename participant")
	}

	h.settlement.Invalidate(c.Request().Context(), participant.EventID)
	return c.JSON(http.StatusOK, participant)
}

func parseIDParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid identifier")
	}
	return uint(id), nil
}
