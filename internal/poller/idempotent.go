package poller

import (
	"fmt"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultIdempotentCacheSize bounds the idempotent repository.
const DefaultIdempotentCacheSize = 1000

// IdempotentKey selects what identifies an already polled file.
type IdempotentKey int

// IdempotentKey values.
const (
	// KeyPath treats a file as seen once its relative path was polled.
	KeyPath IdempotentKey = iota
	// KeyChanged also keys on size and modification time, so a rewritten file is polled again.
	KeyChanged
)

// String returns the string representation of IdempotentKey
func (k IdempotentKey) String() string {
	if k == KeyChanged {
		return "changed"
	}

	return "path"
}

// ParseIdempotentKey parses "path" or "changed".
func ParseIdempotentKey(s string) (IdempotentKey, error) {
	switch strings.ToLower(s) {
	case "path", "":
		return KeyPath, nil
	case "changed":
		return KeyChanged, nil
	default:
		return KeyPath, fmt.Errorf("invalid idempotent key: %s (valid: path, changed)", s) //nolint:err113 // Validation error with actual value
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for go-arg and yaml
func (k *IdempotentKey) UnmarshalText(text []byte) error {
	parsed, err := ParseIdempotentKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (k IdempotentKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// IdempotentFilter rejects files polled in earlier cycles. It remembers the most
// recent keys in an LRU cache. Directories always pass.
type IdempotentFilter struct {
	cache *lru.Cache[string, struct{}]
	key   IdempotentKey
}

// NewIdempotentFilter creates a filter remembering up to size keys.
func NewIdempotentFilter(size int, key IdempotentKey) (*IdempotentFilter, error) {
	if size <= 0 {
		size = DefaultIdempotentCacheSize
	}

	cache, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create idempotent cache: %w", err)
	}

	return &IdempotentFilter{cache: cache, key: key}, nil
}

// Accept records an unseen file and accepts it; seen files are rejected.
// A file whose descriptor cannot be built is rejected.
func (f *IdempotentFilter) Accept(c *Candidate) bool {
	if c.IsDirectory {
		return true
	}

	file, err := c.File()
	if err != nil {
		return false
	}

	seen, _ := f.cache.ContainsOrAdd(f.keyOf(file), struct{}{})

	return !seen
}

// Forget removes a file so it is polled again, for files accepted but dropped
// from the batch.
func (f *IdempotentFilter) Forget(file *RemoteFile) {
	f.cache.Remove(f.keyOf(file))
}

// Len returns the number of remembered keys.
func (f *IdempotentFilter) Len() int {
	return f.cache.Len()
}

func (f *IdempotentFilter) keyOf(file *RemoteFile) string {
	if f.key == KeyChanged {
		return file.RelativeFilePath + "-" + strconv.FormatInt(file.Size, 10) + "-" + strconv.FormatInt(file.LastModified, 10)
	}

	return file.RelativeFilePath
}
