package filesystem

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pkg/sftp"
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("pool is closed")

// ClientFactory opens a new SFTP session.
type ClientFactory func() (*sftp.Client, error)

// SFTPClientPool manages a bounded set of SFTP sessions.
// It uses a channel-based semaphore pattern for thread-safe concurrent access.
// Sessions are created lazily up to maxSize; a session discarded after a
// connection failure is replaced on a later Acquire.
type SFTPClientPool struct {
	newClient  ClientFactory
	clients    chan *sftp.Client // idle sessions
	maxSize    int
	actualSize int32      // sessions currently open (atomic)
	mu         sync.Mutex // protects closed and sends on clients
	closed     bool
}

// NewSFTPClientPool creates a pool of at most maxSize sessions. One session is
// opened immediately so connection problems surface at startup.
func NewSFTPClientPool(newClient ClientFactory, maxSize int) (*SFTPClientPool, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("maxSize must be greater than 0, got %d", maxSize) //nolint:err113 // Validation error with actual value
	}

	pool := &SFTPClientPool{
		newClient: newClient,
		clients:   make(chan *sftp.Client, maxSize),
		maxSize:   maxSize,
	}

	client, err := newClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create initial client: %w", err)
	}

	pool.clients <- client
	pool.actualSize = 1

	return pool, nil
}

// Acquire retrieves an idle session, opens a new one when below maxSize, or
// blocks until one is released or ctx is done.
func (p *SFTPClientPool) Acquire(ctx context.Context) (*sftp.Client, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()

	if closed {
		return nil, ErrPoolClosed
	}

	select {
	case client, ok := <-p.clients:
		if !ok {
			return nil, ErrPoolClosed
		}

		return client, nil
	default:
	}

	if atomic.AddInt32(&p.actualSize, 1) <= int32(p.maxSize) { //nolint:gosec // maxSize is small
		client, err := p.newClient()
		if err != nil {
			atomic.AddInt32(&p.actualSize, -1)
			return nil, fmt.Errorf("failed to create client: %w", err)
		}

		return client, nil
	}

	atomic.AddInt32(&p.actualSize, -1)

	select {
	case client, ok := <-p.clients:
		if !ok {
			return nil, ErrPoolClosed
		}

		return client, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to acquire SFTP client: %w", ctx.Err())
	}
}

// Release returns a session to the pool.
// If the pool is closed, the session is closed instead.
func (p *SFTPClientPool) Release(client *sftp.Client) {
	if client == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		atomic.AddInt32(&p.actualSize, -1)
		_ = client.Close()

		return
	}

	select {
	case p.clients <- client:
	default:
		atomic.AddInt32(&p.actualSize, -1)
		_ = client.Close()
	}
}

// Discard closes a session that failed and frees its slot.
func (p *SFTPClientPool) Discard(client *sftp.Client) {
	if client == nil {
		return
	}

	atomic.AddInt32(&p.actualSize, -1)
	_ = client.Close()
}

// Close closes the pool and all idle sessions.
// Close is idempotent. It does not close the underlying SSH connection.
func (p *SFTPClientPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.clients)
	p.mu.Unlock()

	var firstErr error
	for client := range p.clients {
		atomic.AddInt32(&p.actualSize, -1)
		if err := client.Close(); err != nil && firstErr == nil { //nolint:noinlineerr // Inline error check is idiomatic for cleanup
			firstErr = err
		}
	}

	return firstErr //nolint:wrapcheck // Cleanup error passed through
}

// MaxSize returns the maximum pool size.
func (p *SFTPClientPool) MaxSize() int {
	return p.maxSize
}

// Size returns the number of open sessions, idle or in use.
func (p *SFTPClientPool) Size() int {
	return int(atomic.LoadInt32(&p.actualSize))
}
