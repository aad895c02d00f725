package middleware

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"sharenotes/cmd/internal/utils/apierror"
)

const HeaderGatewaySecret = "X-Gateway-Secret"

// NewGatewayMiddleware only admits requests forwarded by the WebSocket API
// Gateway integration, which carry the shared secret header. An empty secret
// disables the check.
func NewGatewayMiddleware(secret string) echo.MiddlewareFunc {
	if secret == "" {
		log.Warn("gateway secret is not set, socket routes are unprotected")
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if secret == "" {
				return next(c)
			}

			got := c.Request().Header.Get(HeaderGatewaySecret)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				return c.JSON(apierror.UnauthorizedError.Code(), apierror.UnauthorizedError)
			}
			return next(c)
		}
	}
}
