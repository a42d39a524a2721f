package models

import "errors"

var (
	ErrInvalidStatus       = errors.New("invalid task status")
	ErrInvalidRole         = errors.New("invalid user role")
	ErrInvalidConversation = errors.New("invalid conversation type")
)
