package entity

// Share grants SharedWithID access to a single note.
//
// There is at most one share per (note, user) pair, so re-sharing a note
// with the same user updates CanEdit instead of creating a second row.
type Share struct {
	ID           int64 `gorm:"primaryKey;autoIncrement:false"`
	NoteID       int64 `gorm:"not null;uniqueIndex:idx_share_note_target"` // References: notes(id)
	OwnerID      int64 `gorm:"not null;index"`                             // References: users(id)
	SharedWithID int64 `gorm:"not null;uniqueIndex:idx_share_note_target;index"`
	CanEdit      bool  `gorm:"not null"`
	CreatedAt    int64 `gorm:"not null;autoCreateTime:false"`
}

// Grants reports whether this share is the grant of 'user' on 'note'.
func (s *Share) Grants(user *User, note *Note) bool {
	if s == nil || user == nil || note == nil {
		return false
	}
	return s.SharedWithID == user.ID && s.NoteID == note.ID
}
