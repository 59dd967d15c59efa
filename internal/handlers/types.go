package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"wecount/internal/models"
)

func getStringFromContext(c echo.Context, key string) string {
	if val := c.Get(key); val != nil {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}

// currentUser resolves the authenticated account from the verified token
// claims the auth middleware put on the context. The account row is created
// on first sight so people logging in through Firebase never hit a missing
// user record.
func currentUser(c echo.Context, db *gorm.DB) (*models.User, error) {
	email := getStringFromContext(c, "userEmail")
	if email == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		user = models.User{
			Name:     getStringFromContext(c, "userName"),
			Email:    email,
			UserType: models.UserTypeMember,
		}
		if user.Name == "" {
			user.Name = email
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to create user")
		}
		return &user, nil
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to load user")
	}
	return &user, nil
}

// requireEventMember loads the event and checks the user is one of its
// participants or its creator. Returns the event and the user's participant
// row (nil for a creator who never joined as a participant).
func requireEventMember(c echo.Context, db *gorm.DB, eventID uint, user *models.User) (*models.Event, *models.Participant, error) {
	var event models.Event
	if err := db.Preload("Participants").First(&event, eventID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, echo.NewHTTPError(http.StatusNotFound, "Event not found")
		}
		return nil, nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to load event")
	}

	var member *models.Participant
	for i := range event.Participants {
		p := &event.Participants[i]
		if p.UserID != nil && *p.UserID == user.ID {
			member = p
			break
		}
	}
	if member == nil && event.CreatedBy != user.ID {
		return nil, nil, echo.NewHTTPError(http.StatusForbidden, "You are not a member of this event")
	}
	return &event, member, nil
}
