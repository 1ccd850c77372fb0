package filesystem

import (
	"context"

	"github.com/pkg/sftp"
)

// ClientPool hands out SFTP sessions to SFTPFileSystem.
// SFTPClientPool is the production implementation.
type ClientPool interface {
	// Acquire blocks until a session is available or ctx is done.
	Acquire(ctx context.Context) (*sftp.Client, error)

	// Release returns a healthy session.
	Release(client *sftp.Client)

	// Discard closes a session whose connection failed.
	Discard(client *sftp.Client)

	Close() error
}

var _ ClientPool = (*SFTPClientPool)(nil)
