package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sharenotes/cmd/internal/contract"
	"sharenotes/cmd/internal/domain/events"
	"sharenotes/cmd/internal/domain/sqlite/repository"
	"sharenotes/cmd/internal/infrastructure/aws/websocket"
	"sharenotes/cmd/internal/testutil"
)

type posted struct {
	connID string
	msg    *contract.OutgoingSocketMessage
}

type fakeGateway struct {
	mu      sync.Mutex
	posts   []posted
	dropped []string
	gone    map[string]bool
}

func (g *fakeGateway) PostToConnection(_ context.Context, connID string, data interface{}) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gone[connID] {
		return websocket.ErrConnectionGone
	}
	g.posts = append(g.posts, posted{connID: connID, msg: data.(*contract.OutgoingSocketMessage)})
	return nil
}

func (g *fakeGateway) DeleteConnection(_ context.Context, connID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dropped = append(g.dropped, connID)
	return nil
}

// received returns the messages of type typ posted to connID.
func (g *fakeGateway) received(connID string, typ contract.EventType) []*contract.OutgoingSocketMessage {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []*contract.OutgoingSocketMessage
	for _, p := range g.posts {
		if p.connID == connID && p.msg.Type == typ {
			out = append(out, p.msg)
		}
	}
	return out
}

func newWebSocketService(t *testing.T, f *fixture) (*WebSocketService, *fakeGateway) {
	t.Helper()
	gateway := &fakeGateway{}
	return NewWebSocketService(repository.NewConnectionRepository(f.db), gateway, time.Second), gateway
}

func TestWebSocketService_RegisterAndDispatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ws, gateway := newWebSocketService(t, f)
	alice := testutil.CreateUser(t, f.db, "alice@example.com")
	bob := testutil.CreateUser(t, f.db, "bob@example.com")

	exp := time.Now().Add(time.Hour).Unix()
	require.Nil(t, ws.RegisterConnection(ctx, alice.ID, "conn-a1", exp))
	require.Nil(t, ws.RegisterConnection(ctx, alice.ID, "conn-a2", exp))
	require.Nil(t, ws.RegisterConnection(ctx, bob.ID, "conn-b", exp))

	conn, apierr := ws.FindConnection(ctx, "conn-a1")
	require.Nil(t, apierr)
	require.NotNil(t, conn)
	assert.Equal(t, exp*1000, conn.ExpiresAt)

	ws.DispatchToUsers(ctx, []int64{alice.ID}, &events.NoteDeleted{NoteID: 7})
	assert.Len(t, gateway.received("conn-a1", contract.EventNoteDeleted), 1)
	assert.Len(t, gateway.received("conn-a2", contract.EventNoteDeleted), 1)
	assert.Empty(t, gateway.received("conn-b", contract.EventNoteDeleted))

	ws.RemoveConnection(ctx, "conn-a1")
	conn, apierr = ws.FindConnection(ctx, "conn-a1")
	require.Nil(t, apierr)
	assert.Nil(t, conn)
}

func TestWebSocketService_HandlePing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ws, gateway := newWebSocketService(t, f)
	alice := testutil.CreateUser(t, f.db, "alice@example.com")

	require.Nil(t, ws.RegisterConnection(ctx, alice.ID, "conn-a", time.Now().Add(time.Hour).Unix()))

	ws.HandlePing(ctx, "conn-a")
	assert.Eventually(t, func() bool {
		return len(gateway.received("conn-a", contract.EventAck)) == 1
	}, time.Second, 5*time.Millisecond)

	// Unknown senders are not acknowledged.
	ws.HandlePing(ctx, "conn-ghost")
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, gateway.received("conn-ghost", contract.EventAck))
}

func TestWebSocketService_TerminateConnections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ws, gateway := newWebSocketService(t, f)
	alice := testutil.CreateUser(t, f.db, "alice@example.com")

	require.Nil(t, ws.RegisterConnection(ctx, alice.ID, "conn-a", time.Now().Add(time.Hour).Unix()))

	ws.TerminateConnections(ctx, []string{"conn-a"}, &events.ConnectionKill{Code: contract.KillCodeStale})

	kills := gateway.received("conn-a", contract.EventConnectionKill)
	require.Len(t, kills, 1)
	assert.Equal(t, contract.KillCodeStale, kills[0].Data.(*events.ConnectionKill).Code)
	assert.Equal(t, []string{"conn-a"}, gateway.dropped)

	conn, apierr := ws.FindConnection(ctx, "conn-a")
	require.Nil(t, apierr)
	assert.Nil(t, conn)
}

func TestWebSocketService_ForgetsGoneConnections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ws, gateway := newWebSocketService(t, f)
	alice := testutil.CreateUser(t, f.db, "alice@example.com")
	exp := time.Now().Add(time.Hour).Unix()
	require.Nil(t, ws.RegisterConnection(ctx, alice.ID, "conn-live", exp))
	require.Nil(t, ws.RegisterConnection(ctx, alice.ID, "conn-gone", exp))
	gateway.gone = map[string]bool{"conn-gone": true}

	ws.DispatchToUsers(ctx, []int64{alice.ID}, &events.Ack{})

	assert.Len(t, gateway.received("conn-live", contract.EventAck), 1)

	conn, apierr := ws.FindConnection(ctx, "conn-gone")
	require.Nil(t, apierr)
	assert.Nil(t, conn)

	conn, apierr = ws.FindConnection(ctx, "conn-live")
	require.Nil(t, apierr)
	assert.NotNil(t, conn)
}
