package contract

type ShareRequest struct {
	Email   string `json:"email" validate:"required,email"`
	CanEdit bool   `json:"can_edit"`
}

type ShareResponse struct {
	ID         int64        `json:"id,string"`
	NoteID     int64        `json:"note_id,string"`
	OwnerID    int64        `json:"owner_id,string"`
	CanEdit    bool         `json:"can_edit"`
	CreatedAt  string       `json:"created_at"`
	SharedWith *ShareTarget `json:"shared_with"`
}

// ShareTarget holds the presentation fields of the user a note is shared with.
type ShareTarget struct {
	ID          int64   `json:"id,string"`
	Email       string  `json:"email"`
	DisplayName *string `json:"display_name"`
}
