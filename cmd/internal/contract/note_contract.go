package contract

const (
	MaxNoteTitleLength   = 200
	MaxNoteContentLength = 100_000
)

type NoteResponse struct {
	ID        int64  `json:"id,string"`
	OwnerID   int64  `json:"owner_id,string"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	IsPublic  bool   `json:"is_public"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type CreateNoteRequest struct {
	Title   string `json:"title" validate:"max=200"`
	Content string `json:"content" validate:"max=100000" sanitize:"-"`
}

// UpdateNoteRequest is a partial update, nil fields are left untouched.
type UpdateNoteRequest struct {
	Title    *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Content  *string `json:"content,omitempty" validate:"omitempty,max=100000" sanitize:"-"`
	IsPublic *bool   `json:"is_public,omitempty"`
}

// IsEmpty reports whether the request does not change anything.
func (r *UpdateNoteRequest) IsEmpty() bool {
	return r.Title == nil && r.Content == nil && r.IsPublic == nil
}

type VisibilityRequest struct {
	IsPublic *bool `json:"is_public" validate:"required"`
}
