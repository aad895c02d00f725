package contract

const MaxAvatarSizeBytes = 5 * 1024 * 1024

var ValidAvatarFileTypes = []string{"png", "jpg", "jpeg", "webp", "gif"}

type ProfileResponse struct {
	ID          int64   `json:"id,string"`
	DisplayName *string `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
	Bio         *string `json:"bio"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name" validate:"omitempty,min=1,max=80"`
	Bio         *string `json:"bio" validate:"omitempty,max=500"`
}
