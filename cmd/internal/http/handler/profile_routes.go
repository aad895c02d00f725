package handler

import (
	"context"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"sharenotes/cmd/internal/contract"
	"sharenotes/cmd/internal/domain/entity"
	"sharenotes/cmd/internal/utils"
	"sharenotes/cmd/internal/utils/apierror"
)

type ProfileService interface {
	GetProfile(ctx context.Context, actor *entity.User, rawID string) (*contract.ProfileResponse, apierror.ErrorResponse)
	UpdateProfile(ctx context.Context, actor *entity.User, rawID string, req *contract.UpdateProfileRequest) (*contract.ProfileResponse, apierror.ErrorResponse)
	UploadAvatar(ctx context.Context, actor *entity.User, fileHeader *multipart.FileHeader) (*contract.ProfileResponse, apierror.ErrorResponse)
}

type DefaultProfileRoute struct {
	ProfileService ProfileService
}

func NewProfileDefault(profileService ProfileService) *DefaultProfileRoute {
	return &DefaultProfileRoute{ProfileService: profileService}
}

func (p *DefaultProfileRoute) GetProfile(c echo.Context) error {
	targetID := strings.TrimSpace(c.Param("id"))
	if targetID == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("id"))
	}

	profile, apierr := p.ProfileService.GetProfile(c.Request().Context(), utils.OptionalUser(c), targetID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, profile)
}

func (p *DefaultProfileRoute) UpdateProfile(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	targetID := strings.TrimSpace(c.Param("id"))
	var req contract.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	profile, apierr := p.ProfileService.UpdateProfile(c.Request().Context(), user, targetID, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, profile)
}

func (p *DefaultProfileRoute) UploadAvatar(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		return c.JSON(apierror.InvalidMediaTypeError.Code(), apierror.InvalidMediaTypeError)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(apierror.MissingFileError.Code(), apierror.MissingFileError)
	}

	profile, apierr := p.ProfileService.UploadAvatar(c.Request().Context(), user, fileHeader)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, profile)
}
