// Package filesystem provides the one-level directory listing abstraction that the
// poller walks, with SFTP, S3, local and in-memory implementations.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/aws/smithy-go"
	"github.com/pkg/sftp"

	pkgerrors "github.com/joe/dirpoll/pkg/errors"
)

// Entry is one element of a single-level directory listing.
type Entry struct {
	// Name is the bare entry name, never empty and never containing a separator.
	Name string

	// IsDir indicates a subdirectory (or an S3 common prefix).
	IsDir bool

	// Size is the file size in bytes. Meaningless for directories.
	Size int64

	// ModTime is the last modification time, nil when the store did not report one.
	ModTime *time.Time

	// Raw is the provider-specific handle (os.FileInfo, types.Object, ...).
	Raw any
}

// Lister lists the entries directly under one directory.
// Implementations must not recurse.
type Lister interface {
	List(ctx context.Context, dir string) ([]Entry, error)
}

// ListError is returned by every Lister when a directory cannot be listed.
// Its category tells callers whether the directory is simply absent or unreadable
// (see NotFoundOrPermission) or whether the store itself is failing.
type ListError struct {
	Path     string
	Err      error
	category pkgerrors.ErrorCategory
}

// NewListError wraps a transport error for path and classifies it.
// An error that already is a ListError is returned unchanged.
func NewListError(path string, err error) *ListError {
	var listErr *ListError
	if errors.As(err, &listErr) {
		return listErr
	}

	return &ListError{
		Path:     path,
		Err:      err,
		category: classifyListError(err),
	}
}

// Category returns the error category. It makes ListError a pkg/errors.Categorized.
func (e *ListError) Category() pkgerrors.ErrorCategory {
	return e.category
}

// Error implements the error interface.
func (e *ListError) Error() string {
	return fmt.Sprintf("failed to list %s: %v", e.Path, e.Err)
}

// Unwrap returns the transport error.
func (e *ListError) Unwrap() error {
	return e.Err
}

// NotFoundOrPermission reports whether the directory is missing or forbidden.
func (e *ListError) NotFoundOrPermission() bool {
	return e.category.NotFoundOrPermission()
}

// IsNotFoundOrPermission reports whether err is a ListError for a missing or forbidden directory.
func IsNotFoundOrPermission(err error) bool {
	var listErr *ListError
	if errors.As(err, &listErr) {
		return listErr.NotFoundOrPermission()
	}

	return false
}

// classifyListError maps transport errors onto error categories. Typed errors are
// checked first; anything else falls back to message matching.
//
//nolint:cyclop // One case per transport error family
func classifyListError(err error) pkgerrors.ErrorCategory {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return pkgerrors.CategoryPath
	case errors.Is(err, fs.ErrPermission):
		return pkgerrors.CategoryPermission
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return pkgerrors.CategoryConnection
	}

	var statusErr *sftp.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.FxCode() {
		case sftp.ErrSSHFxNoSuchFile:
			return pkgerrors.CategoryPath
		case sftp.ErrSSHFxPermissionDenied:
			return pkgerrors.CategoryPermission
		case sftp.ErrSSHFxNoConnection, sftp.ErrSSHFxConnectionLost:
			return pkgerrors.CategoryConnection
		}
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket", "NoSuchKey", "NotFound":
			return pkgerrors.CategoryPath
		case "AccessDenied", "AllAccessDisabled", "Forbidden":
			return pkgerrors.CategoryPermission
		case "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
			return pkgerrors.CategoryAuth
		case "SlowDown", "Throttling", "RequestLimitExceeded":
			return pkgerrors.CategoryThrottled
		}
	}

	return pkgerrors.Classify(err)
}
