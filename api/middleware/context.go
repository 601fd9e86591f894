package middleware

import (
	"strings"

	"fleetadmin/internal/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const contextUserIDKey = "auth_user_id"

func SetAuthContext(c echo.Context, userID uuid.UUID) {
	c.Set(contextUserIDKey, userID)
}

func UserIDFromContext(c echo.Context) (uuid.UUID, bool) {
	value := c.Get(contextUserIDKey)
	userID, ok := value.(uuid.UUID)
	return userID, ok
}

// ClientInfo copies the caller's address and user agent into the request
// context so services can attribute audit entries.
func ClientInfo(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		request := c.Request()
		ctx := service.WithClientInfo(request.Context(), service.ClientInfo{
			IPAddress: optional(c.RealIP()),
			UserAgent: optional(request.UserAgent()),
		})
		c.SetRequest(request.WithContext(ctx))
		return next(c)
	}
}

func optional(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}
