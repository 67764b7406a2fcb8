package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const contextPrincipalKey = "principal"

// Principal is the authenticated identity attached to a request after
// RequireAuth: the user, the role carried by the access token and the
// session backing it.
type Principal struct {
	UserID    uuid.UUID
	Role      string
	SessionID uuid.UUID
}

func SetPrincipal(c echo.Context, p Principal) {
	c.Set(contextPrincipalKey, p)
}

func PrincipalFromContext(c echo.Context) (Principal, bool) {
	p, ok := c.Get(contextPrincipalKey).(Principal)
	return p, ok
}
