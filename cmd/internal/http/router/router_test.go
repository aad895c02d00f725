package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"sharenotes/cmd/internal/contract"
	"sharenotes/cmd/internal/domain/entity"
	"sharenotes/cmd/internal/domain/policy"
	"sharenotes/cmd/internal/domain/sqlite/repository"
	"sharenotes/cmd/internal/http/handler"
	"sharenotes/cmd/internal/http/middleware"
	"sharenotes/cmd/internal/infrastructure/aws/websocket"
	"sharenotes/cmd/internal/service"
	"sharenotes/cmd/internal/testutil"
	"sharenotes/cmd/internal/utils"
	"sharenotes/cmd/internal/utils/validators"
)

const gatewaySecret = "gw-secret"

type api struct {
	t  *testing.T
	e  *echo.Echo
	db *gorm.DB
}

func newAPI(t *testing.T) *api {
	t.Helper()
	utils.InitHMAC(testutil.TokenSecret)

	db := testutil.NewDB(t)
	noteRepo := repository.NewNoteRepository(db)
	shareRepo := repository.NewShareRepository(db)
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	connRepo := repository.NewConnectionRepository(db)

	validate := validators.New()
	sharePolicy := policy.NewSharePolicy()
	wsService := service.NewWebSocketService(connRepo, websocket.LogGatewayClient{}, time.Second)

	noteService := service.NewNoteService(noteRepo, shareRepo, sharePolicy, wsService, validate, time.Second)
	shareService := service.NewShareService(noteRepo, shareRepo, userRepo, profileRepo, sharePolicy, wsService, validate, time.Second)
	profileService := service.NewProfileService(profileRepo, userRepo, nil, policy.NewUserPolicy(), wsService, validate, time.Second)
	userService := service.NewUserService(userRepo, profileRepo, validate, nil, time.Second)
	editorService := service.NewEditorService(noteService, userRepo, wsService, validate, time.Hour)

	e := echo.New()
	Register(e, &Routes{
		Notes:         handler.NewNoteDefault(noteService),
		Shares:        handler.NewShareDefault(shareService),
		Profiles:      handler.NewProfileDefault(profileService),
		Users:         handler.NewUserDefault(userService),
		Sockets:       handler.NewWSDefault(wsService, editorService),
		UserRepo:      userRepo,
		GatewaySecret: gatewaySecret,
	})
	return &api{t: t, e: e, db: db}
}

// do sends body as JSON on behalf of user (nil for anonymous) and decodes the answer into out.
func (a *api) do(method, path string, user *entity.User, body any, out any, headers ...string) int {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if user != nil {
		req.Header.Set(echo.HeaderAuthorization, testutil.BearerToken(a.t, user))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	if out != nil && rec.Code < 300 {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

func TestRoutes_NoteLifecycle(t *testing.T) {
	a := newAPI(t)
	alice := testutil.CreateUser(t, a.db, "alice@example.com")
	bob := testutil.CreateUser(t, a.db, "bob@example.com")

	var note contract.NoteResponse
	code := a.do(http.MethodPost, "/api/notes", alice, contract.CreateNoteRequest{Title: "Groceries", Content: "milk, eggs"}, &note)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "Groceries", note.Title)

	var listed struct {
		Notes []*contract.NoteResponse `json:"notes"`
	}
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/notes?q=GROC", alice, nil, &listed))
	require.Len(t, listed.Notes, 1)

	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/notes?q=pizza", alice, nil, &listed))
	assert.Empty(t, listed.Notes)

	var share contract.ShareResponse
	code = a.do(http.MethodPost, "/api/notes/"+id(note.ID)+"/shares", alice, contract.ShareRequest{Email: "bob@example.com"}, &share)
	require.Equal(t, http.StatusCreated, code)

	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/notes/shared", bob, nil, &listed))
	require.Len(t, listed.Notes, 1)
	assert.Equal(t, note.ID, listed.Notes[0].ID)

	code = a.do(http.MethodPatch, "/api/notes/"+id(note.ID), bob, map[string]string{"content": "cake"}, nil)
	assert.Equal(t, http.StatusForbidden, code)

	// Anonymous readers only see public notes.
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/notes/"+id(note.ID), nil, nil, nil))
	require.Equal(t, http.StatusOK, a.do(http.MethodPut, "/api/notes/"+id(note.ID)+"/visibility", alice, map[string]bool{"is_public": true}, &note))
	assert.True(t, note.IsPublic)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/notes/"+id(note.ID), nil, nil, nil))

	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, "/api/shares/"+id(share.ID), alice, nil, nil))
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/notes/shared", bob, nil, &listed))
	assert.Empty(t, listed.Notes)

	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, "/api/notes/"+id(note.ID), alice, nil, nil))
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/notes/"+id(note.ID)+"/shares", alice, nil, nil))
}

func TestRoutes_InputErrors(t *testing.T) {
	a := newAPI(t)
	alice := testutil.CreateUser(t, a.db, "alice@example.com")

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/notes", nil, nil, nil))
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/notes/abc", alice, nil, nil))
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPut, "/api/notes/1/visibility", alice, map[string]any{}, nil))

	// No identity provider is configured in tests.
	signup := contract.CreateUserRequest{Username: "Dana", Email: "dana@example.com", Password: "Str0ng!Pass"}
	assert.Equal(t, http.StatusServiceUnavailable, a.do(http.MethodPost, "/api/users", nil, signup, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/notes", bytes.NewBufferString("title=x"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Set(echo.HeaderAuthorization, testutil.BearerToken(t, alice))
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestRoutes_ProfilesAndCurrentUser(t *testing.T) {
	a := newAPI(t)
	alice := testutil.CreateUser(t, a.db, "alice@example.com")

	var me contract.UserResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/users/@me", alice, nil, &me))
	assert.Equal(t, alice.ID, me.ID)

	var profile contract.ProfileResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodPatch, "/api/profiles/@me", alice, map[string]string{"bio": "hi"}, &profile))
	assert.Equal(t, "hi", *profile.Bio)

	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/profiles/"+id(alice.ID), nil, nil, &profile))
	assert.Equal(t, "alice", *profile.DisplayName)

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/profiles/@me", nil, nil, nil))
}

func TestRoutes_SocketAutosave(t *testing.T) {
	a := newAPI(t)
	alice := testutil.CreateUser(t, a.db, "alice@example.com")
	note := testutil.CreateNote(t, a.db, alice, "draft", 1000)

	conn := []string{websocket.HeaderConnectionID, "conn-1", middleware.HeaderGatewaySecret, gatewaySecret}

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPost, "/ws/connect", alice, nil, nil, websocket.HeaderConnectionID, "conn-1"))
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/ws/connect", alice, nil, nil, conn...))

	open := map[string]any{"type": contract.EventNoteOpen, "data": map[string]string{"note_id": id(note.ID)}}
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/ws/message", nil, open, nil, conn...))

	edit := map[string]any{"type": contract.EventNoteEdit, "data": map[string]string{"content": "saved on disconnect"}}
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/ws/message", nil, edit, nil, conn...))

	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/ws/disconnect", nil, nil, nil, conn...))

	var got contract.NoteResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/notes/"+id(note.ID), alice, nil, &got))
	assert.Equal(t, "saved on disconnect", got.Content)

	// The connection is gone, so are its messages.
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPost, "/ws/message", nil, open, nil, conn...))
}

func TestRoutes_Health(t *testing.T) {
	a := newAPI(t)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/health", nil, nil, nil))
}
