package contract

import "encoding/json"

type EventType string

const (
	EventPing EventType = "ping"

	EventConnectionKill EventType = "CONNECTION_KILL"
	EventAck            EventType = "ACK"

	EventNoteCreated EventType = "NOTE_CREATED"
	EventNoteUpdated EventType = "NOTE_UPDATED"
	EventNoteDeleted EventType = "NOTE_DELETED"

	EventNoteShared   EventType = "NOTE_SHARED"
	EventShareRevoked EventType = "SHARE_REVOKED"

	EventProfileUpdated EventType = "PROFILE_UPDATED"

	// Socket autosave
	EventNoteOpen   EventType = "NOTE_OPEN"
	EventNoteEdit   EventType = "NOTE_EDIT"
	EventNoteClose  EventType = "NOTE_CLOSE"
	EventNoteSaved  EventType = "NOTE_SAVED"
	EventSaveFailed EventType = "SAVE_FAILED"
)

type KillCode string

const (
	KillCodeExpired       KillCode = "EXPIRED"
	KillCodeStale         KillCode = "STALE"
	KillCodeUnknownSender KillCode = "UNKNOWN_SENDER"
)

// IncomingSocketMessage is used for messages we receive from the users.
type IncomingSocketMessage struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// OutgoingSocketMessage is what we send to the Client
type OutgoingSocketMessage struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type NoteOpenData struct {
	NoteID int64 `json:"note_id,string" validate:"required"`
}

type NoteEditData struct {
	Title   *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Content *string `json:"content,omitempty" validate:"omitempty,max=100000"`
}
