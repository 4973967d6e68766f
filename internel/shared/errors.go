package shared

import (
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNotConnected       = errors.New("not connected")
	ErrConnection         = errors.New("connection failed")
	ErrAuth               = errors.New("bad credentials")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidName        = errors.New("invalid name")
	ErrInvalidPath        = errors.New("invalid path")
	ErrNotADirectory      = errors.New("not a directory")
	ErrIsADirectory       = errors.New("is a directory")
	ErrChecksum           = errors.New("checksum mismatch")
	ErrLength             = errors.New("length mismatch")
	ErrChunkTooLarge      = errors.New("chunk too large")
	ErrAborted            = errors.New("transfer aborted")
	ErrBusy               = errors.New("server busy")
	ErrProvisioning       = errors.New("storage unavailable")
	ErrInsufficientSpace  = errors.New("insufficient storage")
	ErrTransferInProgress = errors.New("transfer already in progress")
)

var public = []error{
	ErrNotFound,
	ErrAlreadyExists,
	ErrInvalidName,
	ErrInvalidPath,
	ErrNotADirectory,
	ErrIsADirectory,
	ErrChecksum,
	ErrLength,
	ErrChunkTooLarge,
	ErrAborted,
	ErrBusy,
	ErrProvisioning,
	ErrInsufficientSpace,
	ErrTransferInProgress,
}

// Message returns the text sent to a client for err. Wrapped context may carry
// server paths, so only the sentinel text goes out; name validation keeps its
// detail because it only ever quotes the client's own input.
func Message(err error) string {
	if errors.Is(err, ErrInvalidName) {
		return err.Error()
	}
	for _, e := range public {
		if errors.Is(err, e) {
			return e.Error()
		}
	}
	return "internal server error"
}

// FromMessage turns a message received from the server back into an error.
// Known sentinels stay matchable with errors.Is.
func FromMessage(msg string) error {
	for _, e := range public {
		if msg == e.Error() {
			return e
		}
		if suffix := ": " + e.Error(); strings.HasSuffix(msg, suffix) {
			return errors.Wrap(e, strings.TrimSuffix(msg, suffix))
		}
	}
	if msg == "" {
		msg = "unknown error"
	}
	return errors.New(msg)
}
