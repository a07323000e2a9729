package responses

import (
	"fmt"
)

// Error codes shared by the http api and its client
const (
	CodeInternal       = 1
	CodeLocked         = 2
	CodeNotFound       = 3
	CodeInvalidVersion = 4
	CodeUnsupported    = 5
	CodeBadRequest     = 6
)

// Error describes an error for humans and machines
type Error struct {
	Status  int    `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e Error) Error() string {
	return fmt.Sprintf("status: %d, code: %d, message: %q", e.Status, e.Code, e.Message)
}

// NewError - a brand new error
func NewError(status, code int, message string) *Error {
	return &Error{
		Status:  status,
		Code:    code,
		Message: message,
	}
}
