package lookup

import (
	"errors"
	"fmt"
)

// Status is a native result code. Zero is success.
type Status uint16

const (
	StatusOK               Status = 0
	StatusInvalidHandle    Status = 6
	StatusUnsupportedFlags Status = 774
	StatusNotFound         Status = 1028
	StatusNoFTMatches      Status = 3874
	StatusNoDocuments      Status = 17412
)

var statusText = map[Status]string{
	StatusInvalidHandle:    "invalid handle",
	StatusUnsupportedFlags: "unsupported return flag(s)",
	StatusNotFound:         "entry not found in index",
	StatusNoFTMatches:      "no documents found",
	StatusNoDocuments:      "no documents in collection",
}

// StatusError carries a non-zero native status.
type StatusError struct {
	Code   Status
	Detail string
}

func NewStatusError(code Status, detail string) *StatusError {
	return &StatusError{Code: code, Detail: detail}
}

func (e *StatusError) Error() string {
	msg, ok := statusText[e.Code]
	if !ok {
		msg = "backend error"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return fmt.Sprintf("%s (status %d)", msg, e.Code)
}

// Code extracts the native status of err, StatusOK when err carries none.
func Code(err error) Status {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code
	}
	return StatusOK
}

// IsNotFound reports the two sentinel statuses that mean "nothing matched".
func IsNotFound(err error) bool {
	switch Code(err) {
	case StatusNotFound, StatusNoDocuments:
		return true
	}
	return false
}
