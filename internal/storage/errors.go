package storage

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Backends wrap SDK failures in *Error carrying one of
// these so callers can branch with errors.Is.
var (
	ErrNotFound           = errors.New("object not found")
	ErrBucketNotFound     = errors.New("bucket not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoCredentials      = errors.New("no credentials found")
	ErrThrottled          = errors.New("request throttled")
	ErrUnavailable        = errors.New("service unavailable")
)

// Error describes a failed backend operation.
type Error struct {
	Op      string
	Backend string
	Bucket  string
	Key     string
	// Kind is one of the sentinel errors, or nil when the failure is not
	// classified.
	Kind error
	Err  error
}

func (e *Error) Error() string {
	cause := e.Err
	if e.Kind != nil {
		cause = e.Kind
	}
	switch {
	case e.Bucket != "" && e.Key != "":
		return fmt.Sprintf("%s %s: %s/%s: %v", e.Backend, e.Op, e.Bucket, e.Key, cause)
	case e.Bucket != "":
		return fmt.Sprintf("%s %s: %s: %v", e.Backend, e.Op, e.Bucket, cause)
	default:
		return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, cause)
	}
}

func (e *Error) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Describe turns an error into the one-line explanation shown in place of a
// failed listing.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoCredentials):
		return "No credentials found. Configure a profile or pass --profile"
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid credentials. Check the access key and secret"
	case errors.Is(err, ErrAccessDenied):
		return "Access denied"
	case errors.Is(err, ErrBucketNotFound):
		return "Bucket not found"
	case errors.Is(err, ErrNotFound):
		return "Not found"
	case errors.Is(err, ErrThrottled):
		return "Request throttled, try again later"
	case errors.Is(err, ErrUnavailable):
		return "Service unavailable"
	default:
		return err.Error()
	}
}
