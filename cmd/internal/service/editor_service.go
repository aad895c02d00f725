package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
	"github.com/patrickmn/go-cache"
	"sharenotes/cmd/internal/contract"
	"sharenotes/cmd/internal/domain/entity"
	"sharenotes/cmd/internal/domain/events"
	"sharenotes/cmd/internal/editor"
	"sharenotes/cmd/internal/utils/apierror"
)

const (
	EditorSessionTTL     = 30 * time.Minute
	editorCleanupEvery   = 5 * time.Minute
	editorFlushOnEvicted = 10 * time.Second
)

// EditorService runs one debounced editing session per socket connection.
// NOTE_EDIT messages are buffered and saved through NoteService on behalf
// of the connection's user.
type EditorService struct {
	Notes    *NoteService
	Users    UserRepository
	WS       *WebSocketService
	Validate *validator.Validate
	Debounce time.Duration
	Clock    editor.Clock
	sessions *cache.Cache
}

func NewEditorService(notes *NoteService, users UserRepository, ws *WebSocketService, validate *validator.Validate, debounce time.Duration) *EditorService {
	e := &EditorService{
		Notes:    notes,
		Users:    users,
		WS:       ws,
		Validate: validate,
		Debounce: debounce,
		Clock:    editor.SystemClock{},
		sessions: cache.New(EditorSessionTTL, editorCleanupEvery),
	}

	// Sessions of connections that went silent still get their edits saved.
	e.sessions.OnEvicted(func(connID string, val interface{}) {
		ctx, cancel := context.WithTimeout(context.Background(), editorFlushOnEvicted)
		defer cancel()

		if err := val.(*editor.Session).Close(ctx); err != nil {
			log.Warnf("failed to flush evicted editor session of %s: %v", connID, err)
		}
	})
	return e
}

// HandleMessage routes an incoming socket message sent by connID.
func (e *EditorService) HandleMessage(ctx context.Context, connID string, msg *contract.IncomingSocketMessage) apierror.ErrorResponse {
	switch msg.Type {
	case contract.EventPing:
		e.WS.HandlePing(ctx, connID)
		return nil

	case contract.EventNoteOpen:
		var data contract.NoteOpenData
		if apierr := e.decode(msg.Data, &data); apierr != nil {
			return apierr
		}
		return e.Open(ctx, connID, data.NoteID)

	case contract.EventNoteEdit:
		var data contract.NoteEditData
		if apierr := e.decode(msg.Data, &data); apierr != nil {
			return apierr
		}
		return e.Edit(connID, &data)

	case contract.EventNoteClose:
		e.Close(connID)
		return nil

	default:
		log.Debugf("ignoring socket message %q from %s", msg.Type, connID)
		return nil
	}
}

// Open starts editing noteID on connID. Pending edits of a previously open
// note are saved in the background.
func (e *EditorService) Open(ctx context.Context, connID string, noteID int64) apierror.ErrorResponse {
	actor, apierr := e.connectionUser(ctx, connID)
	if apierr != nil {
		return apierr
	}

	note, apierr := e.Notes.GetNote(ctx, actor, noteID)
	if apierr != nil {
		return apierr
	}

	session := e.session(connID, actor)
	session.Open(note)
	return nil
}

func (e *EditorService) Edit(connID string, data *contract.NoteEditData) apierror.ErrorResponse {
	val, ok := e.sessions.Get(connID)
	if !ok {
		return apierror.NoOpenNoteError
	}

	session := val.(*editor.Session)
	if data.Title != nil {
		if err := session.EditTitle(*data.Title); err != nil {
			return apierror.NoOpenNoteError
		}
	}
	if data.Content != nil {
		if err := session.EditContent(*data.Content); err != nil {
			return apierror.NoOpenNoteError
		}
	}

	// Keep active sessions away from expiration. A session closed meanwhile stays closed.
	_ = e.sessions.Replace(connID, session, cache.DefaultExpiration)
	return nil
}

// Close flushes and forgets the session of connID. Safe to call for unknown connections.
func (e *EditorService) Close(connID string) {
	// Delete runs OnEvicted synchronously, which flushes the session.
	e.sessions.Delete(connID)
}

// CloseAll flushes every open session. Used on shutdown.
func (e *EditorService) CloseAll() {
	for connID := range e.sessions.Items() {
		e.sessions.Delete(connID)
	}
}

// session returns the session of connID, creating it when missing. Concurrent
// callers always end up with the same session.
func (e *EditorService) session(connID string, actor *entity.User) *editor.Session {
	for {
		if val, ok := e.sessions.Get(connID); ok {
			return val.(*editor.Session)
		}

		session := editor.New(&actorSaver{notes: e.Notes, actor: actor}, editor.Options{
			Debounce: e.Debounce,
			Clock:    e.Clock,
			Listener: &socketListener{ws: e.WS, connID: connID},
		})
		if err := e.sessions.Add(connID, session, cache.DefaultExpiration); err == nil {
			return session
		}
	}
}

func (e *EditorService) connectionUser(ctx context.Context, connID string) (*entity.User, apierror.ErrorResponse) {
	conn, apierr := e.WS.FindConnection(ctx, connID)
	if apierr != nil {
		return nil, apierr
	}

	if conn == nil {
		return nil, apierror.UnauthorizedError
	}

	storeCtx, cancel := storeContext(ctx, e.Notes.StoreTimeout)
	defer cancel()

	user, err := e.Users.FindActiveByID(storeCtx, conn.UserID)
	if err != nil {
		return nil, storeFailure(storeCtx, err, "failed to resolve user of connection %s", connID)
	}

	if user == nil || user.Suspended {
		return nil, apierror.UnauthorizedError
	}
	return user, nil
}

func (e *EditorService) decode(raw json.RawMessage, dst any) apierror.ErrorResponse {
	if err := json.Unmarshal(raw, dst); err != nil {
		return apierror.MalformedBodyError
	}

	if err := e.Validate.Struct(dst); err != nil {
		return apierror.FromValidationError(err)
	}
	return nil
}

// actorSaver saves through NoteService as a fixed user.
type actorSaver struct {
	notes *NoteService
	actor *entity.User
}

func (a *actorSaver) SaveNote(ctx context.Context, noteID int64, patch editor.Patch) (*contract.NoteResponse, error) {
	resp, apierr := a.notes.UpdateNote(ctx, a.actor, noteID, &contract.UpdateNoteRequest{
		Title:   patch.Title,
		Content: patch.Content,
	})
	if apierr != nil {
		return nil, apierr
	}
	return resp, nil
}

func (a *actorSaver) SetVisibility(ctx context.Context, noteID int64, isPublic bool) (*contract.NoteResponse, error) {
	resp, apierr := a.notes.ToggleVisibility(ctx, a.actor, noteID, isPublic)
	if apierr != nil {
		return nil, apierr
	}
	return resp, nil
}

// socketListener reports save outcomes back to the editing connection.
type socketListener struct {
	ws     *WebSocketService
	connID string
}

func (l *socketListener) OnSaved(note *contract.NoteResponse) {
	l.ws.DispatchToConnection(context.Background(), l.connID, &events.NoteSaved{NoteResponse: note})
}

func (l *socketListener) OnError(noteID int64, err error) {
	evt := &events.SaveFailed{
		NoteID:  noteID,
		Status:  http.StatusInternalServerError,
		Message: apierror.InternalServerError.Message,
	}

	var apierr apierror.ErrorResponse
	if errors.As(err, &apierr) {
		evt.Status = apierr.Code()
		evt.Message = apierr.Error()
	}

	log.Warnf("autosave of note %d on %s failed: %v", noteID, l.connID, err)
	l.ws.DispatchToConnection(context.Background(), l.connID, evt)
}
