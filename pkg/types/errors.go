package types

import "errors"

var (
	ErrRequestNotFound = errors.New("request not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrUnknownRole     = errors.New("unknown role")
)
