package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse abstracts all API error responses to the user.
//
// Every response also satisfies `error`, so services can hand it to code
// that only knows about plain Go errors (the editor, the CLI client).
//
// In general, the whole ErrorResponse can be sent for serialization.
type ErrorResponse interface {
	error

	// Code is the HTTP status code to be returned.
	Code() int
}

type APIError struct {
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (a *APIError) Code() int {
	return a.Status
}

func (a *APIError) Error() string {
	return fmt.Sprintf("%d: %s", a.Status, a.Message)
}

type StructuredError struct {
	Errors map[string][]string `json:"errors"`
	Status int                 `json:"-"`
}

func (s *StructuredError) Code() int {
	return s.Status
}

func (s *StructuredError) Error() string {
	parts := make([]string, 0, len(s.Errors))
	for field, problems := range s.Errors {
		parts = append(parts, field+": "+strings.Join(problems, ", "))
	}
	return fmt.Sprintf("%d: %s", s.Status, strings.Join(parts, "; "))
}

func (s *StructuredError) Add(field, problem string) {
	s.Errors[field] = append(s.Errors[field], problem)
}

var (
	MalformedBodyError    = NewSimple(400, "Malformed request body")
	InvalidIDError        = NewSimple(400, "The provided ID is invalid, IDs are positive integers")
	InvalidMediaTypeError = NewSimple(415, "Unsupported media type")

	// Store failures. Transport problems and unexpected backend errors
	// both end up here; the details only go to the logs.
	InternalServerError = NewSimple(500, "Internal server error")
	StoreTimeoutError   = NewSimple(504, "The data store did not answer in time")

	NotFoundError = NewSimple(404, "Resource not found")

	UnauthorizedError     = NewSimple(401, "Authentication required")
	InvalidAuthTokenError = NewSimple(401, "Invalid or expired authentication token")
	MissingAccessError    = NewSimple(403, "Missing access")

	/*
	 * Sharing
	 */
	UserEmailNotFoundError = NewSimple(404, "No user found with this email")
	SelfShareError         = NewSimple(400, "Notes cannot be shared with their owner")

	/*
	 * Socket autosave
	 */
	NoOpenNoteError = NewSimple(409, "No note is open on this connection")

	/*
	 * Files
	 */
	MissingFileError     = NewSimple(400, "Missing file in form field 'file'")
	MissingFileNameError = NewSimple(400, "Uploaded file has no name")
	StorageDisabledError = NewSimple(503, "File uploads are not configured on this server")

	/*
	 * Used for authentications
	 */
	UserAlreadyExistsError      = NewSimple(409, "An account with this email already exists")
	UserAlreadyConfirmedError   = NewSimple(400, "User is already confirmed")
	IDPInvalidPasswordError     = NewSimple(400, "Provided password does not meet requirements")
	IDPExistingEmailError       = NewSimple(400, "Email already exists")
	IDPUserNotFoundError        = NewSimple(404, "User not found")
	IDPUserNotConfirmedError    = NewSimple(400, "User is not confirmed yet")
	IDPCredentialsMismatchError = NewSimple(400, "Credentials mismatch")
	IDPConfirmCodeMismatchError = NewSimple(400, "Confirmation code mismatch")
	IDPConfirmCodeExpiredError  = NewSimple(400, "Confirmation code has expired")
	IDPInvalidParameterError    = NewSimple(400, "Invalid parameters provided, the user is likely already verified")
	IDPDisabledError            = NewSimple(503, "Account management is not configured on this server")
)

// FromValidationError maps validator failures to a 400 with one entry per field.
// Anything that is not a validation failure is reported as an internal error.
func FromValidationError(err error) ErrorResponse {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return InternalServerError
	}

	problems := map[string][]string{}
	for _, fe := range ve {
		field := strings.ToLower(fe.Field())

		switch fe.Tag() {
		case "required":
			problems[field] = append(problems[field], "This field is required")
		case "min":
			problems[field] = append(problems[field], "Value is too short, min: "+fe.Param())
		case "max":
			problems[field] = append(problems[field], "Value is too long, max: "+fe.Param())
		case "hasupper":
			problems[field] = append(problems[field], "Value must have at least one uppercase character")
		case "haslower":
			problems[field] = append(problems[field], "Value must have at least one lowercase character")
		case "hasdigit":
			problems[field] = append(problems[field], "Value must have at least one number")
		case "hasspecial":
			problems[field] = append(problems[field], "Value must have at least one special character")
		case "email":
			problems[field] = append(problems[field], "Value must be a valid email address")

		default:
			problems[field] = append(problems[field], "Invalid value provided")
		}
	}

	return &StructuredError{
		Errors: problems,
		Status: http.StatusBadRequest,
	}
}

func NewSimple(status int, msg string, args ...any) *APIError {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return &APIError{Status: status, Message: msg}
}

func NewStructured(code int) *StructuredError {
	return &StructuredError{
		Errors: make(map[string][]string),
		Status: code,
	}
}

func NewForbiddenError(msg string) *APIError {
	return NewSimple(http.StatusForbidden, msg)
}

func NewPermissionError(perm int64) *APIError {
	return NewSimple(http.StatusForbidden, "Missing permissions: %d", perm)
}

func NewMissingParamError(name string) *APIError {
	return NewSimple(http.StatusBadRequest, "Missing required parameter '%s'", name)
}

func NewInvalidParamTypeError(name, dataType string) *APIError {
	return NewSimple(http.StatusBadRequest, "Parameter '%s' has invalid type, expected: %s", name, dataType)
}

func NewInvalidFileExtError(ext string) *APIError {
	return NewSimple(http.StatusBadRequest, "File extension '%s' is not allowed", ext)
}

func NewFileTooLargeError(maxBytes int64) *APIError {
	return NewSimple(http.StatusRequestEntityTooLarge, "File is too large, max: %d bytes", maxBytes)
}

// HasCode reports whether err is an ErrorResponse carrying the given status.
func HasCode(err error, status int) bool {
	var resp ErrorResponse
	if !errors.As(err, &resp) {
		return false
	}
	return resp.Code() == status
}
