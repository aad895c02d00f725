package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"sharenotes/cmd/internal/contract"
	"sharenotes/cmd/internal/http/middleware"
	"sharenotes/cmd/internal/infrastructure/aws/websocket"
	"sharenotes/cmd/internal/utils"
	"sharenotes/cmd/internal/utils/apierror"
)

type WebSocketService interface {
	RegisterConnection(ctx context.Context, userID int64, connID string, exp int64) apierror.ErrorResponse
	RemoveConnection(ctx context.Context, connectionID string)
}

type SocketMessageHandler interface {
	HandleMessage(ctx context.Context, connID string, msg *contract.IncomingSocketMessage) apierror.ErrorResponse
	Close(connID string)
}

type DefaultWSRoute struct {
	WSService WebSocketService
	Messages  SocketMessageHandler
}

func NewWSDefault(wsService WebSocketService, messages SocketMessageHandler) *DefaultWSRoute {
	return &DefaultWSRoute{WSService: wsService, Messages: messages}
}

func (h *DefaultWSRoute) HandleConnect(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	connID := c.Request().Header.Get(websocket.HeaderConnectionID)
	if connID == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("connectionId"))
	}

	token := middleware.TokenFromContext(c)
	if token == nil {
		return c.JSON(apierror.InvalidAuthTokenError.Code(), apierror.InvalidAuthTokenError)
	}

	if apierr := h.WSService.RegisterConnection(c.Request().Context(), user.ID, connID, token.Exp); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusOK)
}

func (h *DefaultWSRoute) HandleDisconnect(c echo.Context) error {
	connID := c.Request().Header.Get(websocket.HeaderConnectionID)
	if connID != "" {
		// Pending edits are saved before the connection row goes away.
		h.Messages.Close(connID)
		h.WSService.RemoveConnection(c.Request().Context(), connID)
	}
	return c.NoContent(http.StatusOK)
}

func (h *DefaultWSRoute) HandleMessage(c echo.Context) error {
	connID := c.Request().Header.Get(websocket.HeaderConnectionID)
	if connID == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("connectionId"))
	}

	var msg contract.IncomingSocketMessage
	if err := c.Bind(&msg); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	if apierr := h.Messages.HandleMessage(c.Request().Context(), connID, &msg); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusOK)
}
