package errors

import "errors"

// Custom application errors
var (
	ErrInvalidInterval  = errors.New("interval must be a whole number of minutes between 5 and 1440")
	ErrChatNotFound     = errors.New("no reminder settings found for this chat")
	ErrStoreUnavailable = errors.New("reminder storage is temporarily unavailable")
	ErrTelegramAPI      = errors.New("failed to talk to the Telegram API")
	ErrScheduling       = errors.New("failed to schedule the reminder timer")
	ErrInternalServer   = errors.New("internal error")
)
