package errors

import "fmt"

var (
	ErrWorkerPanic         = fmt.Errorf("worker panic")
	ErrDuplicateConnection = fmt.Errorf("connection already registered")
	ErrUserAlreadyExists   = fmt.Errorf("username already taken")
	ErrUnknownUser         = fmt.Errorf("unknown user")
	ErrInvalidCredentials  = fmt.Errorf("invalid credentials")
	ErrInvalidPassword     = fmt.Errorf("password does not meet complexity requirements")
	ErrTokenGeneration     = fmt.Errorf("token generation failed")
	ErrEmptyCensoredWords  = fmt.Errorf("no censored words have been found")
	ErrBlobOutsideStore    = fmt.Errorf("blob reference escapes the store directory")
)
