package board

import "errors"

// ErrInvalidCommand is the root of every command validation failure. A
// failed Apply leaves the document untouched; callers match with
// errors.Is and report the wrapped detail.
var ErrInvalidCommand = errors.New("invalid command")

// ErrUnknownEntity wraps ErrInvalidCommand for commands that target an
// entity ID not present in the document.
var ErrUnknownEntity = errors.New("unknown entity")
