package service

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/gommon/log"
	"sharenotes/cmd/internal/contract"
	"sharenotes/cmd/internal/domain/entity"
	"sharenotes/cmd/internal/domain/events"
	"sharenotes/cmd/internal/infrastructure/aws/websocket"
	"sharenotes/cmd/internal/utils"
	"sharenotes/cmd/internal/utils/apierror"
)

type ConnectionRepository interface {
	Save(ctx context.Context, conn *entity.Connection) error
	Delete(ctx context.Context, connID string) error
	FindByID(ctx context.Context, connID string) (*entity.Connection, error)
	FindByUserIDs(ctx context.Context, userIDs []int64) ([]string, error)
	FindExpired(ctx context.Context, now int64) ([]string, error)
	FindStale(ctx context.Context, before int64) ([]string, error)
	UpdateHeartbeat(ctx context.Context, connID string, at int64) (bool, error)
}

type WebSocketService struct {
	ConnRepo     ConnectionRepository
	Gateway      websocket.GatewayClient
	StoreTimeout time.Duration
}

func NewWebSocketService(repo ConnectionRepository, gateway websocket.GatewayClient, storeTimeout time.Duration) *WebSocketService {
	return &WebSocketService{
		ConnRepo:     repo,
		Gateway:      gateway,
		StoreTimeout: storeTimeout,
	}
}

func (s *WebSocketService) RegisterConnection(ctx context.Context, userID int64, connectionID string, exp int64) apierror.ErrorResponse {
	ctx, cancel := storeContext(ctx, s.StoreTimeout)
	defer cancel()

	now := utils.NowUTC()
	conn := &entity.Connection{
		ConnectionID:    connectionID,
		UserID:          userID,
		ExpiresAt:       exp * 1000, // "exp" is stored in seconds, our app uses millis
		LastHeartbeatAt: now,        // Avoid users getting disconnected immediately
		CreatedAt:       now,
	}

	if err := s.ConnRepo.Save(ctx, conn); err != nil {
		return storeFailure(ctx, err, "failed to save connection %s", connectionID)
	}
	return nil
}

func (s *WebSocketService) RemoveConnection(ctx context.Context, connectionID string) {
	ctx, cancel := storeContext(ctx, s.StoreTimeout)
	defer cancel()

	// We don't return error here because if it fails, it's not the client's fault
	if err := s.ConnRepo.Delete(ctx, connectionID); err != nil {
		log.Warnf("failed to remove connection %s: %v", connectionID, err)
	}
}

// FindConnection returns the connection, or nil when it is not registered.
func (s *WebSocketService) FindConnection(ctx context.Context, connID string) (*entity.Connection, apierror.ErrorResponse) {
	ctx, cancel := storeContext(ctx, s.StoreTimeout)
	defer cancel()

	conn, err := s.ConnRepo.FindByID(ctx, connID)
	if err != nil {
		return nil, storeFailure(ctx, err, "failed to fetch connection %s", connID)
	}
	return conn, nil
}

// HandlePing refreshes the heartbeat of connID and acknowledges it.
func (s *WebSocketService) HandlePing(ctx context.Context, connID string) {
	storeCtx, cancel := storeContext(ctx, s.StoreTimeout)
	defer cancel()

	found, err := s.ConnRepo.UpdateHeartbeat(storeCtx, connID, utils.NowUTC())
	if err != nil {
		log.Errorf("failed to update heartbeat: %v", err)
		return
	}

	if !found {
		log.Warnf("heartbeat from unknown connection %s", connID)
		return
	}

	go s.DispatchToConnection(context.Background(), connID, &events.Ack{})
}

// DispatchToUsers sends evt to every open connection of the given users.
func (s *WebSocketService) DispatchToUsers(ctx context.Context, userIDs []int64, evt events.SocketEvent) {
	conns, err := s.ConnRepo.FindByUserIDs(ctx, userIDs)
	if err != nil {
		log.Errorf("failed to fetch connections for users %v: %v", userIDs, err)
		return
	}

	envelope := &contract.OutgoingSocketMessage{
		Type: evt.GetType(),
		Data: evt,
	}

	for _, connID := range conns {
		// One stale connection must not block the others
		s.post(ctx, connID, envelope)
	}
}

func (s *WebSocketService) DispatchToConnection(ctx context.Context, connID string, evt events.SocketEvent) {
	s.post(ctx, connID, &contract.OutgoingSocketMessage{
		Type: evt.GetType(),
		Data: evt,
	})
}

func (s *WebSocketService) post(ctx context.Context, connID string, msg *contract.OutgoingSocketMessage) {
	err := s.Gateway.PostToConnection(ctx, connID, msg)
	if err == nil {
		return
	}

	if !errors.Is(err, websocket.ErrConnectionGone) {
		log.Warnf("failed to push %s to connection %s: %v", msg.Type, connID, err)
		return
	}

	log.Debugf("connection %s is gone, forgetting it", connID)
	if err := s.ConnRepo.Delete(ctx, connID); err != nil {
		log.Errorf("failed to remove connection %s: %v", connID, err)
	}
}

// TerminateConnections sends a "poison pill" message to each connection, then disconnects it.
func (s *WebSocketService) TerminateConnections(ctx context.Context, connIDs []string, kill *events.ConnectionKill) {
	for _, connID := range connIDs {
		s.DispatchToConnection(ctx, connID, kill)

		// Tell AWS we are dropping the connection
		if err := s.Gateway.DeleteConnection(ctx, connID); err != nil {
			log.Debugf("gateway refused to drop %s: %v", connID, err)
		}

		if err := s.ConnRepo.Delete(ctx, connID); err != nil {
			log.Errorf("failed to remove connection %s: %v", connID, err)
		}
	}
}
