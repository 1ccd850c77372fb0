package filesystem

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
)

// RealFileSystem implements Lister on the local filesystem.
// It is mostly useful for mounted shares and for trying a poll configuration locally.
type RealFileSystem struct{}

// NewRealFileSystem creates a new RealFileSystem instance.
func NewRealFileSystem() *RealFileSystem {
	return &RealFileSystem{}
}

// List returns the entries directly under dir, in the order os.ReadDir reports them
// (sorted by file name).
func (fsys *RealFileSystem) List(ctx context.Context, dir string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewListError(dir, err)
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, NewListError(dir, err)
	}

	entries := make([]Entry, 0, len(dirEntries))

	for _, dirEntry := range dirEntries {
		info, err := entryInfo(dir, dirEntry)
		if err != nil {
			// Removed between ReadDir and Stat.
			if os.IsNotExist(err) {
				continue
			}

			return nil, NewListError(filepath.Join(dir, dirEntry.Name()), err)
		}

		modTime := info.ModTime()
		entries = append(entries, Entry{
			Name:    dirEntry.Name(),
			IsDir:   info.IsDir(),
			Size:    info.Size(),
			ModTime: &modTime,
			Raw:     info,
		})
	}

	return entries, nil
}

// entryInfo stats a directory entry, following symlinks so a link to a directory
// lists as a directory.
func entryInfo(dir string, dirEntry fs.DirEntry) (fs.FileInfo, error) {
	if dirEntry.Type()&fs.ModeSymlink != 0 {
		return os.Stat(filepath.Join(dir, dirEntry.Name())) //nolint:wrapcheck // Wrapped by caller
	}

	return dirEntry.Info() //nolint:wrapcheck // Wrapped by caller
}
