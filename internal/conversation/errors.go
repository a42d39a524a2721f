package conversation

import "errors"

var (
	// ErrPermissionDenied is returned when the sender's role may not post.
	ErrPermissionDenied = errors.New("permission denied")

	ErrEmptyMessage        = errors.New("message content is empty")
	ErrUnknownConversation = errors.New("unknown conversation type")
)
