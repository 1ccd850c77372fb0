package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"sync"
	"time"
)

// ErrNotADirectory is returned when listing a path that names a file.
var ErrNotADirectory = errors.New("not a directory")

// MockFileSystem is an in-memory Lister for testing.
// Children are listed in the order they were added, which lets tests control the
// listing order a remote store would return.
type MockFileSystem struct {
	mu        sync.RWMutex
	nodes     map[string]*mockNode
	failures  map[string]error
	listCalls []string
}

// mockNode represents a file or directory in the mock filesystem.
type mockNode struct {
	name     string
	isDir    bool
	size     int64
	modTime  *time.Time
	children []string // child names, insertion order
}

// NewMockFileSystem creates a new in-memory filesystem containing only the root "/".
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		nodes: map[string]*mockNode{
			"/": {name: "/", isDir: true},
		},
		failures: make(map[string]error),
	}
}

// List returns the children of dir in insertion order.
func (fs *MockFileSystem) List(ctx context.Context, dir string) ([]Entry, error) {
	cleaned := cleanMockPath(dir)

	fs.mu.Lock()
	fs.listCalls = append(fs.listCalls, cleaned)
	failure := fs.failures[cleaned]
	fs.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, NewListError(dir, err)
	}

	if failure != nil {
		return nil, NewListError(dir, failure)
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	node, exists := fs.nodes[cleaned]
	if !exists {
		return nil, NewListError(dir, os.ErrNotExist)
	}

	if !node.isDir {
		return nil, NewListError(dir, ErrNotADirectory)
	}

	entries := make([]Entry, 0, len(node.children))

	for _, name := range node.children {
		child := fs.nodes[path.Join(cleaned, name)]
		entry := Entry{
			Name:  child.name,
			IsDir: child.isDir,
			Raw:   path.Join(cleaned, name),
		}

		if !child.isDir {
			entry.Size = child.size
			if child.modTime != nil {
				modTime := *child.modTime
				entry.ModTime = &modTime
			}
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// Helper methods for testing

// AddFile adds a file of the given size, creating parent directories as needed.
func (fs *MockFileSystem) AddFile(filePath string, size int64, modTime time.Time) {
	fs.addNode(filePath, &mockNode{size: size, modTime: &modTime})
}

// AddFileWithoutModTime adds a file whose store reports no modification time.
func (fs *MockFileSystem) AddFileWithoutModTime(filePath string, size int64) {
	fs.addNode(filePath, &mockNode{size: size})
}

// AddDir adds a directory, creating parent directories as needed.
func (fs *MockFileSystem) AddDir(dirPath string) {
	fs.addNode(dirPath, &mockNode{isDir: true})
}

// FailList makes every List call for dirPath return err, classified like a transport error.
func (fs *MockFileSystem) FailList(dirPath string, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.failures[cleanMockPath(dirPath)] = err
}

// ListCalls returns the directories listed so far, in call order.
func (fs *MockFileSystem) ListCalls() []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	return append([]string(nil), fs.listCalls...)
}

// Paths returns every path in the mock filesystem, sorted.
func (fs *MockFileSystem) Paths() []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	paths := make([]string, 0, len(fs.nodes))
	for p := range fs.nodes {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	return paths
}

// addNode inserts node at p, replacing an existing node of the same path but
// keeping its position among its siblings.
func (fs *MockFileSystem) addNode(p string, node *mockNode) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	cleaned := cleanMockPath(p)
	if cleaned == "/" {
		return
	}

	parent := path.Dir(cleaned)
	fs.mkdirAllLocked(parent)

	node.name = path.Base(cleaned)
	if existing, ok := fs.nodes[cleaned]; ok {
		node.children = existing.children
	} else {
		parentNode := fs.nodes[parent]
		parentNode.children = append(parentNode.children, node.name)
	}

	fs.nodes[cleaned] = node
}

// mkdirAllLocked creates p and its parents. Assumes the lock is held.
func (fs *MockFileSystem) mkdirAllLocked(p string) {
	if _, exists := fs.nodes[p]; exists {
		return
	}

	parent := path.Dir(p)
	fs.mkdirAllLocked(parent)

	name := path.Base(p)
	fs.nodes[p] = &mockNode{name: name, isDir: true}
	parentNode := fs.nodes[parent]
	parentNode.children = append(parentNode.children, name)
}

// String describes the mock for test failure messages.
func (fs *MockFileSystem) String() string {
	return fmt.Sprintf("MockFileSystem(%d nodes)", len(fs.Paths()))
}

// cleanMockPath roots and cleans a path so "in", "/in" and "/in/" are the same node.
func cleanMockPath(p string) string {
	return path.Clean("/" + p)
}
