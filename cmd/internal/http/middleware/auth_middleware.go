package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"sharenotes/cmd/internal/domain/entity"
	"sharenotes/cmd/internal/utils"
	"sharenotes/cmd/internal/utils/apierror"
)

type UserRepository interface {
	FindActiveBySub(ctx context.Context, sub string) (*entity.User, error)
}

type AuthMiddlewareConfig struct {
	UserRepo UserRepository

	// Optional lets requests without an Authorization header through as anonymous.
	// A header that is present must still be valid.
	Optional bool
}

// NewAuthMiddleware creates the handler with dependencies injected
func NewAuthMiddleware(cfg *AuthMiddlewareConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Optional && !utils.HasAuthHeader(c) {
				return next(c)
			}

			tokenData, err := utils.ParseTokenDataCtx(c)
			if err != nil {
				log.Debugf("rejected token on %s: %v", c.Path(), err)
				return c.JSON(apierror.InvalidAuthTokenError.Code(), apierror.InvalidAuthTokenError)
			}

			user, err := cfg.UserRepo.FindActiveBySub(c.Request().Context(), tokenData.Sub)
			if err != nil {
				log.Errorf("failed to resolve user of token: %v", err)
				return c.JSON(apierror.InternalServerError.Code(), apierror.InternalServerError)
			}

			if user == nil {
				// User deleted in DB but still has a valid token???
				return c.JSON(apierror.InvalidAuthTokenError.Code(), apierror.InvalidAuthTokenError)
			}

			if user.Suspended {
				return c.JSON(apierror.MissingAccessError.Code(), apierror.MissingAccessError)
			}

			c.Set(utils.UserContextKey, user)
			c.Set(TokenContextKey, tokenData)
			return next(c)
		}
	}
}

const TokenContextKey = "token"

// TokenFromContext returns the token data stored by the auth middleware.
func TokenFromContext(c echo.Context) *utils.TokenData {
	data, _ := c.Get(TokenContextKey).(*utils.TokenData)
	return data
}
