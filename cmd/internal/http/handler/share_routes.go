package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"sharenotes/cmd/internal/contract"
	"sharenotes/cmd/internal/domain/entity"
	"sharenotes/cmd/internal/utils"
	"sharenotes/cmd/internal/utils/apierror"
)

type ShareService interface {
	ShareWith(ctx context.Context, actor *entity.User, noteID int64, req *contract.ShareRequest) (*contract.ShareResponse, apierror.ErrorResponse)
	RevokeShare(ctx context.Context, actor *entity.User, shareID int64) apierror.ErrorResponse
	ListShares(ctx context.Context, actor *entity.User, noteID int64) ([]*contract.ShareResponse, apierror.ErrorResponse)
}

type DefaultShareRoute struct {
	ShareService ShareService
}

func NewShareDefault(shareService ShareService) *DefaultShareRoute {
	return &DefaultShareRoute{ShareService: shareService}
}

func (s *DefaultShareRoute) GetShares(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	noteID, apierr := utils.ParseID(c.Param("id"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	shares, apierr := s.ShareService.ListShares(c.Request().Context(), user, noteID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"shares": shares}
	return c.JSON(http.StatusOK, &resp)
}

func (s *DefaultShareRoute) CreateShare(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	noteID, apierr := utils.ParseID(c.Param("id"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	var req contract.ShareRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	share, apierr := s.ShareService.ShareWith(c.Request().Context(), user, noteID, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, share)
}

func (s *DefaultShareRoute) DeleteShare(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	shareID, apierr := utils.ParseID(c.Param("id"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	if apierr := s.ShareService.RevokeShare(c.Request().Context(), user, shareID); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusNoContent)
}
