package repositories

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("record not found")

	// ErrRemoteCallFailed matches every failed call to the posts API,
	// transport errors and non-2xx responses alike.
	ErrRemoteCallFailed = errors.New("remote call failed")

	// ErrImageUnsupported is returned when an image upload is requested
	// from a remote configured for JSON payloads.
	ErrImageUnsupported = errors.New("image uploads require multipart payloads")

	// ErrImageEmpty is returned for an image upload without data.
	ErrImageEmpty = errors.New("image upload has no data")
)

// RemoteCallError describes a failed request to the posts API.
type RemoteCallError struct {
	Op         string
	Method     string
	URL        string
	StatusCode int
	Err        error
}

func (e *RemoteCallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s %s: status %d", e.Op, e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s %s: %v", e.Op, e.Method, e.URL, e.Err)
}

func (e *RemoteCallError) Unwrap() error {
	return e.Err
}

func (e *RemoteCallError) Is(target error) bool {
	return target == ErrRemoteCallFailed
}
