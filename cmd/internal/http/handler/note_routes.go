package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"sharenotes/cmd/internal/contract"
	"sharenotes/cmd/internal/domain/entity"
	"sharenotes/cmd/internal/utils"
	"sharenotes/cmd/internal/utils/apierror"
	"sharenotes/cmd/internal/workspace"
)

// NoteService receives the acting user explicitly, nil meaning anonymous.
type NoteService interface {
	ListOwnedNotes(ctx context.Context, actor *entity.User) ([]*contract.NoteResponse, apierror.ErrorResponse)
	ListSharedNotes(ctx context.Context, actor *entity.User) ([]*contract.NoteResponse, apierror.ErrorResponse)
	GetNote(ctx context.Context, actor *entity.User, noteID int64) (*contract.NoteResponse, apierror.ErrorResponse)
	CreateNote(ctx context.Context, actor *entity.User, req *contract.CreateNoteRequest) (*contract.NoteResponse, apierror.ErrorResponse)
	UpdateNote(ctx context.Context, actor *entity.User, noteID int64, req *contract.UpdateNoteRequest) (*contract.NoteResponse, apierror.ErrorResponse)
	ToggleVisibility(ctx context.Context, actor *entity.User, noteID int64, isPublic bool) (*contract.NoteResponse, apierror.ErrorResponse)
	DeleteNote(ctx context.Context, actor *entity.User, noteID int64) apierror.ErrorResponse
}

type DefaultNoteRoute struct {
	NoteService NoteService
}

func NewNoteDefault(noteService NoteService) *DefaultNoteRoute {
	return &DefaultNoteRoute{NoteService: noteService}
}

func (n *DefaultNoteRoute) GetNotes(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	notes, apierr := n.NoteService.ListOwnedNotes(c.Request().Context(), user)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"notes": workspace.FilterNotes(notes, c.QueryParam("q"))}
	return c.JSON(http.StatusOK, &resp)
}

func (n *DefaultNoteRoute) GetSharedNotes(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	notes, apierr := n.NoteService.ListSharedNotes(c.Request().Context(), user)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"notes": workspace.FilterNotes(notes, c.QueryParam("q"))}
	return c.JSON(http.StatusOK, &resp)
}

// GetNote also serves anonymous readers of public notes.
func (n *DefaultNoteRoute) GetNote(c echo.Context) error {
	id, apierr := utils.ParseID(c.Param("id"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	note, apierr := n.NoteService.GetNote(c.Request().Context(), utils.OptionalUser(c), id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, note)
}

func (n *DefaultNoteRoute) CreateNote(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, echo.MIMEApplicationJSON) {
		return c.JSON(apierror.InvalidMediaTypeError.Code(), apierror.InvalidMediaTypeError)
	}

	var req contract.CreateNoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	note, apierr := n.NoteService.CreateNote(c.Request().Context(), user, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, note)
}

func (n *DefaultNoteRoute) UpdateNote(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, apierr := utils.ParseID(c.Param("id"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	var req contract.UpdateNoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	note, apierr := n.NoteService.UpdateNote(c.Request().Context(), user, id, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, note)
}

func (n *DefaultNoteRoute) SetVisibility(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, apierr := utils.ParseID(c.Param("id"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	var req contract.VisibilityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	if req.IsPublic == nil {
		missing := apierror.NewMissingParamError("is_public")
		return c.JSON(missing.Code(), missing)
	}

	note, apierr := n.NoteService.ToggleVisibility(c.Request().Context(), user, id, *req.IsPublic)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, note)
}

func (n *DefaultNoteRoute) DeleteNote(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, apierr := utils.ParseID(c.Param("id"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	if apierr := n.NoteService.DeleteNote(c.Request().Context(), user, id); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusNoContent)
}
