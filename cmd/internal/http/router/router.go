// Package router mounts every HTTP route of the API on an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"sharenotes/cmd/internal/http/handler"
	"sharenotes/cmd/internal/http/middleware"
)

type Routes struct {
	Notes    *handler.DefaultNoteRoute
	Shares   *handler.DefaultShareRoute
	Profiles *handler.DefaultProfileRoute
	Users    *handler.DefaultUserRoute
	Sockets  *handler.DefaultWSRoute

	UserRepo      middleware.UserRepository
	GatewaySecret string
}

func Register(e *echo.Echo, r *Routes) {
	auth := middleware.NewAuthMiddleware(&middleware.AuthMiddlewareConfig{UserRepo: r.UserRepo})
	optionalAuth := middleware.NewAuthMiddleware(&middleware.AuthMiddlewareConfig{UserRepo: r.UserRepo, Optional: true})
	gateway := middleware.NewGatewayMiddleware(r.GatewaySecret)

	// Notes
	e.GET("/api/notes", r.Notes.GetNotes, auth)
	e.GET("/api/notes/shared", r.Notes.GetSharedNotes, auth)
	e.GET("/api/notes/:id", r.Notes.GetNote, optionalAuth)
	e.POST("/api/notes", r.Notes.CreateNote, auth)
	e.PATCH("/api/notes/:id", r.Notes.UpdateNote, auth)
	e.PUT("/api/notes/:id/visibility", r.Notes.SetVisibility, auth)
	e.DELETE("/api/notes/:id", r.Notes.DeleteNote, auth)

	// Shares
	e.GET("/api/notes/:id/shares", r.Shares.GetShares, auth)
	e.POST("/api/notes/:id/shares", r.Shares.CreateShare, auth)
	e.DELETE("/api/shares/:id", r.Shares.DeleteShare, auth)

	// Profiles
	e.GET("/api/profiles/:id", r.Profiles.GetProfile, optionalAuth)
	e.PATCH("/api/profiles/:id", r.Profiles.UpdateProfile, auth)
	e.PUT("/api/profiles/@me/avatar", r.Profiles.UploadAvatar, auth)

	// Users
	e.GET("/api/users/@me", r.Users.GetCurrentUser, auth)
	e.POST("/api/users/check-email", r.Users.CheckEmail)
	e.POST("/api/users", r.Users.CreateUser)
	e.POST("/api/users/login", r.Users.CreateLogin)
	e.POST("/api/users/confirms", r.Users.ConfirmSignup)
	e.POST("/api/users/confirms/resend", r.Users.ResendConfirmation)

	// API Gateway WebSocket integration
	e.POST("/ws/connect", r.Sockets.HandleConnect, gateway, auth)
	e.POST("/ws/disconnect", r.Sockets.HandleDisconnect, gateway)
	e.POST("/ws/message", r.Sockets.HandleMessage, gateway)

	// Docker Compose healthcheck
	e.GET("/health", handler.HealthCheck)
}
