package contract

type EmailStatus string

const (
	EmailStatusAvailable EmailStatus = "AVAILABLE"
	EmailStatusExists    EmailStatus = "TAKEN"
	EmailStatusVerifying EmailStatus = "VERIFYING"
)

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=2,max=80"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=64,hasspecial,hasdigit,hasupper,haslower" sanitize:"-"`
}

type UserLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=64" sanitize:"-"`
}

type ConfirmSignupRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,min=1,max=8,nowhitespaces"`
}

type ResendConfirmRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type UserStatusRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type UserStatusResponse struct {
	Status EmailStatus `json:"status"`
}

type UserResponse struct {
	ID         int64  `json:"id,string"`
	Email      string `json:"email"`
	Perms      int64  `json:"permissions"`
	IsVerified bool   `json:"is_verified"`
	CreatedAt  string `json:"created_at"`
}

type UserLoginResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
}
