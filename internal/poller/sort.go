package poller

import (
	"fmt"
	"sort"
	"strings"
)

// SortBy represents the ordering applied to a poll result.
type SortBy int

const (
	// SortNone keeps discovery order
	SortNone SortBy = iota
	// SortName orders by relative path
	SortName
	// SortSize orders by size, smallest first
	SortSize
	// SortModified orders by last modification, oldest first; unknown times sort first
	SortModified
)

// String returns the string representation of SortBy
func (s SortBy) String() string {
	switch s {
	case SortNone:
		return "none"
	case SortName:
		return "name"
	case SortSize:
		return "size"
	case SortModified:
		return "modified"
	default:
		return "unknown"
	}
}

// ParseSortBy parses a string into a SortBy
func ParseSortBy(s string) (SortBy, error) {
	s = strings.ToLower(s)
	switch s {
	case "none", "":
		return SortNone, nil
	case "name", "path":
		return SortName, nil
	case "size":
		return SortSize, nil
	case "modified", "lastmodified", "mtime":
		return SortModified, nil
	default:
		return SortNone, fmt.Errorf("invalid sort order: %s (valid: none, name, size, modified)", s) //nolint:err113 // Validation error with actual value
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for go-arg and yaml
func (s *SortBy) UnmarshalText(text []byte) error {
	parsed, err := ParseSortBy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (s SortBy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SortFiles orders files in place. The sort is stable, so ties keep discovery order.
func SortFiles(files []*RemoteFile, by SortBy, reverse bool) {
	var less func(a, b *RemoteFile) bool

	switch by {
	case SortName:
		less = func(a, b *RemoteFile) bool { return a.RelativeFilePath < b.RelativeFilePath }
	case SortSize:
		less = func(a, b *RemoteFile) bool { return a.Size < b.Size }
	case SortModified:
		less = func(a, b *RemoteFile) bool { return a.LastModified < b.LastModified }
	default:
		if reverse {
			reverseFiles(files)
		}

		return
	}

	sort.SliceStable(files, func(i, j int) bool {
		if reverse {
			return less(files[j], files[i])
		}

		return less(files[i], files[j])
	})
}

func reverseFiles(files []*RemoteFile) {
	for i, j := 0, len(files)-1; i < j; i, j = i+1, j-1 {
		files[i], files[j] = files[j], files[i]
	}
}
