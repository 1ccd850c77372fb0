package poller

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/joe/dirpoll/pkg/filesystem"
)

// ErrInvalidEntryName is returned when a lister reports an entry whose name is
// empty or contains a separator. Such an entry cannot be addressed.
var ErrInvalidEntryName = errors.New("invalid entry name")

// RemoteFile describes one polled file or directory.
type RemoteFile struct {
	// Host identifies the store, e.g. sftp://user@host:22 or s3://bucket.
	Host string

	// EndpointPath is the polled root directory.
	EndpointPath string

	// AbsoluteFilePath is the entry's full path in the store.
	AbsoluteFilePath string

	// RelativeFilePath is the path relative to EndpointPath, no leading separator.
	RelativeFilePath string

	// FileName equals RelativeFilePath.
	FileName string

	// FileNameOnly is the bare entry name.
	FileNameOnly string

	// Size in bytes. Zero for directories.
	Size int64

	// LastModified in Unix milliseconds. Zero when the store reported no
	// modification time, and always zero for directories.
	LastModified int64

	IsDirectory bool

	// Absolute reports whether the containing directory path is absolute.
	Absolute bool

	// Entry is the listed entry this file was built from.
	Entry filesystem.Entry
}

// ModTime returns LastModified as a time. Unknown times are the Unix epoch.
func (f *RemoteFile) ModTime() time.Time {
	return time.UnixMilli(f.LastModified)
}

// LastModifiedKnown reports whether the store reported a modification time.
func (f *RemoteFile) LastModifiedKnown() bool {
	return f.LastModified != 0
}

// String returns the relative path.
func (f *RemoteFile) String() string {
	return f.RelativeFilePath
}

// descriptorFactory builds RemoteFiles for one poll.
type descriptorFactory struct {
	host         string
	endpointPath string
	onFallback   func(root, abs string)
}

// build materializes the descriptor for entry listed under dir.
func (d *descriptorFactory) build(dir string, entry filesystem.Entry) (*RemoteFile, error) {
	if !validEntryName(entry.Name) {
		return nil, fmt.Errorf("failed to describe %q in %s: %w", entry.Name, dir, ErrInvalidEntryName)
	}

	absolutePath := Concat(dir, entry.Name)
	relativePath := d.relativePath(absolutePath)

	file := &RemoteFile{
		Host:             d.host,
		EndpointPath:     d.endpointPath,
		AbsoluteFilePath: absolutePath,
		RelativeFilePath: relativePath,
		FileName:         relativePath,
		FileNameOnly:     entry.Name,
		IsDirectory:      entry.IsDir,
		Absolute:         IsAbsolute(dir),
		Entry:            entry,
	}

	if !entry.IsDir {
		file.Size = entry.Size
		file.LastModified = lastModified(entry)
	}

	return file, nil
}

// relativePath computes the path of abs under the endpoint root.
func (d *descriptorFactory) relativePath(abs string) string {
	rel, ok := RelativeTo(d.endpointPath, abs)
	if !ok && d.onFallback != nil {
		d.onFallback(d.endpointPath, abs)
	}

	return rel
}

// supplier returns a memoized builder so the descriptor is built at most once.
func (d *descriptorFactory) supplier(dir string, entry filesystem.Entry) func() (*RemoteFile, error) {
	return sync.OnceValues(func() (*RemoteFile, error) {
		return d.build(dir, entry)
	})
}

// relativeSupplier returns a memoized relative path for abs.
func (d *descriptorFactory) relativeSupplier(abs string) func() string {
	return sync.OnceValue(func() string {
		return d.relativePath(abs)
	})
}

// validEntryName reports whether name addresses exactly one child of a directory.
func validEntryName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.Contains(name, Separator)
}

// lastModified returns the entry time in Unix milliseconds, 0 when unknown.
func lastModified(entry filesystem.Entry) int64 {
	if entry.ModTime == nil {
		return 0
	}

	return entry.ModTime.UnixMilli()
}
