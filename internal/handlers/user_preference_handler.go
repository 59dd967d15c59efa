package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"wecount/internal/models"
	"wecount/internal/services"
)

type UserPreferenceHandler struct {
	DB *gorm.DB
}

func NewUserPreferenceHandler(db *gorm.DB) *UserPreferenceHandler {
	return &UserPreferenceHandler{DB: db}
}

// GetUserPreference returns the caller's notification preference, with
// email defaults when none was saved yet.
func (h *UserPreferenceHandler) GetUserPreference(c echo.Context) error {
	user, err := currentUser(c, h.DB)
	if err != nil {
		return err
	}

	var pref models.UserNotifPreference
	err = h.DB.Where("user_id = ?", user.ID).First(&pref).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			pref = models.UserNotifPreference{
				UserID:  user.ID,
				Channel: models.NotificationChannelEmail,
			}
		} else {
			return echo.NewHTTPError(http.StatusInternalServerError, "Error fetching preference")
		}
	}
	return c.JSON(http.StatusOK, pref)
}

type updatePreferenceRequest struct {
	Channel       models.NotificationChannel `json:"channel"`
	ExpoPushToken string                     `json:"expo_push_token"`
}

// UpdateUserPreference upserts the caller's notification preference. The
// push channel requires a valid Expo token.
func (h *UserPreferenceHandler) UpdateUserPreference(c echo.Context) error {
	user, err := currentUser(c, h.DB)
	if err != nil {
		return err
	}

	var req updatePreferenceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	switch req.Channel {
	case models.NotificationChannelEmail, models.NotificationChannelPush, models.NotificationChannelNone:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown notification channel")
	}
	if req.Channel == models.NotificationChannelPush && !services.ValidPushToken(req.ExpoPushToken) {
		return echo.NewHTTPError(http.StatusBadRequest, "A valid Expo push token is required for the push channel")
	}

	var pref models.UserNotifPreference
	err = h.DB.Where("user_id = ?", user.ID).First(&pref).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			pref = models.UserNotifPreference{UserID: user.ID}
		} else {
			return echo.NewHTTPError(http.StatusInternalServerError, "Database error")
		}
	}

	pref.Channel = req.Channel
	if req.ExpoPushToken != "" {
		pref.ExpoPushToken = req.ExpoPushToken
	}

	if err := h.DB.Save(&pref).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save preference")
	}
	return c.JSON(http.StatusOK, pref)
}
