package core

import (
	"errors"

	"github.com/calcws/calcws-go/pkg/interfaces"
)

// Error kinds for one call. Call sites wrap these with fmt.Errorf("%w: …")
// so the underlying cause and attempt count survive; callers match with
// errors.Is. Only ErrConnectionFailed is retried — every other kind
// terminates the call on first occurrence.
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrConnectionFailed    = interfaces.ErrConnectionFailed
	ErrProtocol            = errors.New("protocol violation")
	ErrServer              = errors.New("server error")
	ErrUnexpected          = errors.New("unexpected error")
	ErrUnsupportedProtocol = interfaces.ErrUnsupportedProtocol
)
