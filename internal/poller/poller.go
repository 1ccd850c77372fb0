// Package poller walks a remote directory tree one listing at a time and
// selects the files a poll cycle should hand downstream.
//
// A Poller lists the root, classifies each entry as a file or a directory,
// asks the Filter about it, and recurses into accepted directories. Traversal is
// depth-first and sequential: entries are visited in listing order (or by name
// with PreSort), and an accepted directory is fully walked before the next
// sibling is considered. A Capacity is consulted before each candidate; once it
// reports no room the walk stops without issuing further listings.
//
// Depth counts from the root listing: entries of the root are at depth 1,
// entries of its subdirectories at depth 2, and so on. A directory is descended
// into only when its depth is below MaxDepth; a file is taken only when its
// depth is at least MinDepth.
package poller

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/joe/dirpoll/internal/metrics"
	"github.com/joe/dirpoll/pkg/filesystem"
)

// UnlimitedDepth lets the walk descend as deep as the tree goes.
const UnlimitedDepth = math.MaxInt32

// Options configures a Poller.
type Options struct {
	// Root is the directory to poll (the endpoint path).
	Root string

	// Host identifies the store in the produced RemoteFiles.
	Host string

	// Recursive enables descending into subdirectories.
	Recursive bool

	// MinDepth is the smallest depth a file may be taken from.
	MinDepth int

	// MaxDepth bounds the depth of directories descended into.
	MaxDepth int

	// PreSort orders each listing by name before visiting it.
	PreSort bool

	// IgnoreFileNotFoundOrPermissionError treats a missing or forbidden
	// directory as empty instead of failing the poll.
	IgnoreFileNotFoundOrPermissionError bool
}

// DefaultOptions returns options for a recursive, unbounded poll of root.
func DefaultOptions(root string) Options {
	return Options{
		Root:      root,
		Recursive: true,
		MaxDepth:  UnlimitedDepth,
	}
}

// Result is the outcome of one poll cycle.
type Result struct {
	// Files in discovery order.
	Files []*RemoteFile

	// Exhausted is true when the capacity ran out before the walk finished.
	Exhausted bool

	Duration time.Duration
}

// Poller runs poll cycles against one source. It is not safe for concurrent
// Poll calls; callers serialize cycles per source.
type Poller struct {
	lister    filesystem.Lister
	opts      Options
	filter    Filter
	capacity  Capacity
	readiness Readiness
	logger    *zap.Logger
	emitter   EventEmitter
	factory   *descriptorFactory
}

// New creates a Poller that accepts everything, has unlimited capacity and
// does not log.
func New(lister filesystem.Lister, opts Options) *Poller {
	p := &Poller{
		lister:    lister,
		opts:      opts,
		filter:    AcceptAll{},
		capacity:  Unlimited{},
		readiness: NewReadyLatch(nil),
		logger:    zap.NewNop(),
	}

	p.factory = &descriptorFactory{
		host:         opts.Host,
		endpointPath: TrimTrailingSeparator(opts.Root),
		onFallback: func(root, abs string) {
			p.logger.Debug("path is not under the endpoint root, using fallback relative path",
				zap.String("root", root), zap.String("path", abs))
		},
	}

	return p
}

// SetFilter sets the filter consulted for every candidate.
func (p *Poller) SetFilter(filter Filter) {
	if filter == nil {
		filter = AcceptAll{}
	}

	p.filter = filter
}

// SetCapacity sets the capacity signal.
func (p *Poller) SetCapacity(capacity Capacity) {
	if capacity == nil {
		capacity = Unlimited{}
	}

	p.capacity = capacity
}

// SetReadiness sets the readiness signal marked after the first listing.
func (p *Poller) SetReadiness(readiness Readiness) {
	if readiness == nil {
		readiness = NewReadyLatch(nil)
	}

	p.readiness = readiness
}

// SetLogger sets the logger. Per-entry tracing is logged at debug level.
func (p *Poller) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}

	p.logger = logger
}

// SetEventEmitter sets the event emitter. The emitter is optional.
func (p *Poller) SetEventEmitter(emitter EventEmitter) {
	p.emitter = emitter
}

// emit sends an event if an emitter is configured.
func (p *Poller) emit(event Event) {
	if p.emitter != nil {
		p.emitter.Emit(event)
	}
}

// Poll runs one cycle from the root. On a fatal error the files collected so
// far are returned along with the error.
func (p *Poller) Poll(ctx context.Context) (*Result, error) {
	start := time.Now()
	files := make([]*RemoteFile, 0)

	p.emit(PollStarted{Root: p.opts.Root})

	completed, err := p.pollDirectory(ctx, p.opts.Root, &files, 0)

	result := &Result{
		Files:     files,
		Exhausted: err == nil && !completed,
		Duration:  time.Since(start),
	}

	p.emit(PollComplete{Files: len(files), Exhausted: result.Exhausted, Err: err})

	return result, err
}

// pollDirectory lists dir and handles its entries at depth+1, appending accepted
// files to files. It returns false when the capacity ran out.
func (p *Poller) pollDirectory(ctx context.Context, dir string, files *[]*RemoteFile, depth int) (bool, error) {
	dir = TrimTrailingSeparator(dir)

	p.logger.Debug("polling directory", zap.String("path", dir), zap.Int("depth", depth))

	result := p.list(ctx, dir)

	switch result.kind {
	case listingFatal:
		return false, result.err
	case listingEmpty:
		p.logger.Debug("no files found in directory", zap.String("path", dir))
		p.emit(DirectoryListed{Path: dir, Depth: depth})

		return true, nil
	case listingEntries:
	}

	entries := result.entries
	if p.opts.PreSort {
		entries = sortByName(entries)
	}

	p.logger.Debug("found entries in directory", zap.String("path", dir), zap.Int("count", len(entries)))
	p.emit(DirectoryListed{Path: dir, Depth: depth, Entries: len(entries)})

	for _, entry := range entries {
		if !p.capacity.HasRoom(*files) {
			p.logger.Debug("poll capacity reached", zap.String("path", dir), zap.Int("files", len(*files)))
			return false, nil
		}

		// "." and ".." would never terminate and names with a separator break relative paths
		if !validEntryName(entry.Name) {
			p.logger.Debug("skipping entry with invalid name", zap.String("path", dir), zap.String("name", entry.Name))
			continue
		}

		switch item := classify(entry).(type) {
		case directoryEntry:
			canPollMore, err := p.handleDirectory(ctx, dir, item, entries, files, depth+1)
			if err != nil {
				return false, err
			}

			if !canPollMore {
				return false, nil
			}
		case fileEntry:
			if err := p.handleFile(dir, item, entries, files, depth+1); err != nil {
				return false, err
			}
		}
	}

	return true, nil
}

// list lists dir and folds ignorable failures into an empty listing.
func (p *Poller) list(ctx context.Context, dir string) listing {
	start := time.Now()

	entries, err := p.lister.List(ctx, dir)
	if err != nil {
		if !p.opts.IgnoreFileNotFoundOrPermissionError || !filesystem.IsNotFoundOrPermission(err) {
			metrics.RecordListing(metrics.OutcomeError, time.Since(start))
			return fatalListing(fmt.Errorf("failed to poll directory %s: %w", dir, err))
		}

		metrics.RecordListing(metrics.OutcomeIgnored, time.Since(start))
		p.logger.Debug("cannot list directory, it does not exist or is not readable",
			zap.String("path", dir), zap.Error(err))
		p.emit(DirectorySkipped{Path: dir, Err: err})
		p.readiness.MarkReady()

		return emptyListing()
	}

	p.readiness.MarkReady()

	if len(entries) == 0 {
		metrics.RecordListing(metrics.OutcomeEmpty, time.Since(start))
	} else {
		metrics.RecordListing(metrics.OutcomeOK, time.Since(start))
	}

	return entriesListing(entries)
}

// handleDirectory descends into an accepted directory. It returns false when
// the capacity ran out below it.
func (p *Poller) handleDirectory(
	ctx context.Context,
	dir string,
	item directoryEntry,
	siblings []filesystem.Entry,
	files *[]*RemoteFile,
	depth int,
) (bool, error) {
	if !p.opts.Recursive || depth >= p.opts.MaxDepth {
		return true, nil
	}

	candidate := p.candidate(dir, item.Entry, siblings)

	if !p.filter.Accept(candidate) {
		p.logger.Debug("directory rejected", zap.String("path", candidate.AbsolutePath))
		return true, nil
	}

	return p.pollDirectory(ctx, candidate.AbsolutePath, files, depth)
}

// handleFile appends an accepted file.
func (p *Poller) handleFile(
	dir string,
	item fileEntry,
	siblings []filesystem.Entry,
	files *[]*RemoteFile,
	depth int,
) error {
	if depth < p.opts.MinDepth {
		return nil
	}

	candidate := p.candidate(dir, item.Entry, siblings)

	if !p.filter.Accept(candidate) {
		p.logger.Debug("file rejected", zap.String("path", candidate.AbsolutePath))
		return nil
	}

	file, err := candidate.File()
	if err != nil {
		return err
	}

	*files = append(*files, file)

	p.logger.Debug("file accepted", zap.String("path", file.AbsoluteFilePath), zap.Int64("size", file.Size))
	p.emit(FileAccepted{File: file})

	return nil
}

// candidate prepares an entry for the filter. Nothing expensive is computed
// until the filter asks for it.
func (p *Poller) candidate(dir string, entry filesystem.Entry, siblings []filesystem.Entry) *Candidate {
	absolutePath := Concat(dir, entry.Name)

	return &Candidate{
		File:         p.factory.supplier(dir, entry),
		Name:         entry.Name,
		AbsolutePath: absolutePath,
		RelativePath: p.factory.relativeSupplier(absolutePath),
		IsDirectory:  entry.IsDir,
		Siblings:     siblings,
	}
}
