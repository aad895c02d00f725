package events

import "sharenotes/cmd/internal/contract"

type SocketEvent interface {
	GetType() contract.EventType
}

type Ack struct{}

func (*Ack) GetType() contract.EventType {
	return contract.EventAck
}

type ConnectionKill struct {
	Code   contract.KillCode `json:"code"`
	Reason *string           `json:"reason,omitempty"`
}

func (e *ConnectionKill) GetType() contract.EventType {
	return contract.EventConnectionKill
}

type NoteCreated struct {
	*contract.NoteResponse
}

func (e *NoteCreated) GetType() contract.EventType {
	return contract.EventNoteCreated
}

type NoteUpdated struct {
	*contract.NoteResponse
}

func (e *NoteUpdated) GetType() contract.EventType {
	return contract.EventNoteUpdated
}

// NoteDeleted holds only the note ID.
type NoteDeleted struct {
	NoteID int64 `json:"id,string"`
}

func (e *NoteDeleted) GetType() contract.EventType {
	return contract.EventNoteDeleted
}

// NoteShared is sent to the recipient of a new or changed grant.
type NoteShared struct {
	Share *contract.ShareResponse `json:"share"`
	Note  *contract.NoteResponse  `json:"note"`
}

func (e *NoteShared) GetType() contract.EventType {
	return contract.EventNoteShared
}

type ShareRevoked struct {
	ShareID int64 `json:"id,string"`
	NoteID  int64 `json:"note_id,string"`
}

func (e *ShareRevoked) GetType() contract.EventType {
	return contract.EventShareRevoked
}

type ProfileUpdated struct {
	*contract.ProfileResponse
}

func (e *ProfileUpdated) GetType() contract.EventType {
	return contract.EventProfileUpdated
}

// NoteSaved acknowledges a debounced socket save.
type NoteSaved struct {
	*contract.NoteResponse
}

func (e *NoteSaved) GetType() contract.EventType {
	return contract.EventNoteSaved
}

type SaveFailed struct {
	NoteID  int64  `json:"note_id,string"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (e *SaveFailed) GetType() contract.EventType {
	return contract.EventSaveFailed
}
