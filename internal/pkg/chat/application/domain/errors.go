package chat

import (
	"errors"
	"fmt"
)

// Error kinds. Every domain error wraps exactly one of them so callers can
// classify with errors.Is without knowing the concrete failure.
var (
	ErrValidation = errors.New("chat: validation failed")
	ErrForbidden  = errors.New("chat: forbidden")
	ErrNotFound   = errors.New("chat: not found")
)

// Domain-level errors for chat behaviors
var (
	ErrEmptyMessage         = fmt.Errorf("%w: message content is empty", ErrValidation)
	ErrMissingIdentity      = fmt.Errorf("%w: conversation and sender ids are required", ErrValidation)
	ErrSelfConversation     = fmt.Errorf("%w: a conversation needs two distinct participants", ErrValidation)
	ErrInvalidConversation  = fmt.Errorf("%w: conversation/message mismatch", ErrValidation)
	ErrNotParticipant       = fmt.Errorf("%w: user is not a participant in the conversation", ErrForbidden)
	ErrConversationNotFound = fmt.Errorf("%w: conversation does not exist", ErrNotFound)
	ErrParticipantNotFound  = fmt.Errorf("%w: user is not a participant of the conversation", ErrNotFound)
	ErrMessageNotFound      = fmt.Errorf("%w: message does not exist", ErrNotFound)
)
