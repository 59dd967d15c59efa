package middleware

import (
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
)

// RequireAuth returns a middleware that verifies Firebase credentials. A
// session cookie is checked first; API clients may instead send a bearer ID
// token. Failures answer with JSON 401, never a redirect.
func RequireAuth(authClient *auth.Client) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if authClient == nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "authentication is not configured")
			}

			ctx := c.Request().Context()

			if cookie, err := c.Cookie("session"); err == nil && cookie.Value != "" {
				decodedToken, err := authClient.VerifySessionCookie(ctx, cookie.Value)
				if err == nil {
					setUserContext(c, decodedToken)
					return next(c)
				}
				// Invalid session, clear the cookie before rejecting.
				c.SetCookie(&http.Cookie{
					Name:     "session",
					Value:    "",
					MaxAge:   -1,
					HttpOnly: true,
					Path:     "/",
				})
			}

			if header := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(header, "Bearer ") {
				decodedToken, err := authClient.VerifyIDToken(ctx, strings.TrimPrefix(header, "Bearer "))
				if err == nil {
					setUserContext(c, decodedToken)
					return next(c)
				}
			}

			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
	}
}

func setUserContext(c echo.Context, token *auth.Token) {
	c.Set("userUID", token.UID)
	if email, ok := token.Claims["email"].(string); ok {
		c.Set("userEmail", email)
	}
	if name, ok := token.Claims["name"].(string); ok {
		c.Set("userName", name)
	}
}
