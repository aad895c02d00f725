package entity

// DefaultNoteTitle is used when a note is created without a title.
const DefaultNoteTitle = "Untitled Note"

type Note struct {
	ID        int64  `gorm:"primaryKey;autoIncrement:false"`
	OwnerID   int64  `gorm:"not null;index"` // References: users(id)
	Title     string `gorm:"not null"`
	Content   string `gorm:"not null"`
	IsPublic  bool   `gorm:"not null;default:false"`
	CreatedAt int64  `gorm:"not null;autoCreateTime:false"`
	UpdatedAt int64  `gorm:"not null;autoUpdateTime:false;index"`
}

// IsOwnedBy reports whether the user created this note.
// A nil user (anonymous caller) never owns anything.
func (n *Note) IsOwnedBy(user *User) bool {
	return user != nil && n.OwnerID == user.ID
}
