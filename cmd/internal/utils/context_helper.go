package utils

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"sharenotes/cmd/internal/domain/entity"
	"sharenotes/cmd/internal/utils/apierror"
)

const UserContextKey = "user"

func GetUserFromContext(c echo.Context) (*entity.User, apierror.ErrorResponse) {
	val := c.Get(UserContextKey)
	if val == nil {
		log.Warnf("route %s attempted to read nil user from context", c.Request().URL)
		return nil, apierror.UnauthorizedError
	}

	user, ok := val.(*entity.User)
	if !ok {
		log.Warnf("expected user type at '%s' context key, got %T", UserContextKey, val)
		return nil, apierror.InternalServerError
	}
	return user, nil
}

// OptionalUser returns the authenticated user, or nil for anonymous requests.
func OptionalUser(c echo.Context) *entity.User {
	user, _ := c.Get(UserContextKey).(*entity.User)
	return user
}
