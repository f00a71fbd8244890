package service

import "errors"

var (
	ErrInvalidPhoneNumber = errors.New("INVALID_PHONE_NUMBER")
	ErrInvalidAmount      = errors.New("INVALID_AMOUNT")
)

type Error struct {
	Code  string
	Cause error
}

func NewServiceError(code string, cause error) error {
	return Error{Code: code, Cause: cause}
}

func (e Error) Error() string {
	return e.Cause.Error()
}

func (e Error) Unwrap() error {
	return e.Cause
}
