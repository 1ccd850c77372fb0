package filesystem

import (
	"context"
	"io/fs"
	"path"
	"time"

	"github.com/pkg/sftp"

	pkgerrors "github.com/joe/dirpoll/pkg/errors"
)

// SFTPFileSystem implements Lister over SFTP.
type SFTPFileSystem struct {
	pool ClientPool
}

// NewSFTPFileSystem creates an SFTP lister drawing sessions from pool.
func NewSFTPFileSystem(pool ClientPool) *SFTPFileSystem {
	return &SFTPFileSystem{pool: pool}
}

// List returns the entries directly under dir in the order the server reports them.
// Symbolic links are resolved so a link to a directory lists as a directory.
func (fsys *SFTPFileSystem) List(ctx context.Context, dir string) ([]Entry, error) {
	client, err := fsys.pool.Acquire(ctx)
	if err != nil {
		return nil, NewListError(dir, err)
	}

	infos, err := client.ReadDir(dir)
	if err != nil {
		listErr := NewListError(dir, err)
		fsys.giveBack(client, listErr)

		return nil, listErr
	}

	entries := make([]Entry, 0, len(infos))

	for _, info := range infos {
		if info.Name() == "." || info.Name() == ".." {
			continue
		}

		if info.Mode()&fs.ModeSymlink != 0 {
			// Dangling links keep their lstat attributes
			if target, statErr := client.Stat(path.Join(dir, info.Name())); statErr == nil {
				info = &renamedInfo{FileInfo: target, name: info.Name()}
			}
		}

		entries = append(entries, Entry{
			Name:    info.Name(),
			IsDir:   info.IsDir(),
			Size:    info.Size(),
			ModTime: sftpModTime(info),
			Raw:     info,
		})
	}

	fsys.pool.Release(client)

	return entries, nil
}

// Close closes the session pool.
func (fsys *SFTPFileSystem) Close() error {
	if fsys.pool != nil {
		return fsys.pool.Close() //nolint:wrapcheck // Cleanup error passed through
	}

	return nil
}

// giveBack discards sessions whose connection failed and releases the rest.
func (fsys *SFTPFileSystem) giveBack(client *sftp.Client, err *ListError) {
	if err.Category() == pkgerrors.CategoryConnection {
		fsys.pool.Discard(client)
		return
	}

	fsys.pool.Release(client)
}

// sftpModTime returns nil when the server did not send a modification time.
func sftpModTime(info fs.FileInfo) *time.Time {
	if stat, ok := info.Sys().(*sftp.FileStat); ok && stat.Mtime == 0 {
		return nil
	}

	modTime := info.ModTime()

	return &modTime
}

// renamedInfo reports a symlink target's attributes under the link's name.
type renamedInfo struct {
	fs.FileInfo
	name string
}

func (r *renamedInfo) Name() string {
	return r.name
}
