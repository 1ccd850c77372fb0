package poller

import (
	"sort"

	"github.com/joe/dirpoll/pkg/filesystem"
)

// classifiedEntry is a listed entry that is known to be a file or a directory.
// The two variants are fileEntry and directoryEntry.
type classifiedEntry interface {
	listed() filesystem.Entry
}

type fileEntry struct {
	filesystem.Entry
}

func (e fileEntry) listed() filesystem.Entry { return e.Entry }

type directoryEntry struct {
	filesystem.Entry
}

func (e directoryEntry) listed() filesystem.Entry { return e.Entry }

// classify decides the variant of a listed entry.
func classify(entry filesystem.Entry) classifiedEntry {
	if entry.IsDir {
		return directoryEntry{entry}
	}

	return fileEntry{entry}
}

// sortByName orders entries by name, ascending. Equal names keep listing order.
func sortByName(entries []filesystem.Entry) []filesystem.Entry {
	sorted := make([]filesystem.Entry, len(entries))
	copy(sorted, entries)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	return sorted
}

// listingKind distinguishes the three results of listing a directory.
type listingKind int

const (
	listingEmpty listingKind = iota
	listingEntries
	listingFatal
)

// listing is the result of listing one directory: empty (including an ignored
// failure), a non-empty set of entries, or a fatal error.
type listing struct {
	kind    listingKind
	entries []filesystem.Entry
	err     error
}

func emptyListing() listing {
	return listing{kind: listingEmpty}
}

func entriesListing(entries []filesystem.Entry) listing {
	if len(entries) == 0 {
		return emptyListing()
	}

	return listing{kind: listingEntries, entries: entries}
}

func fatalListing(err error) listing {
	return listing{kind: listingFatal, err: err}
}
