package poller

import (
	"strings"

	"github.com/joe/dirpoll/pkg/filesystem"
)

// Done file name placeholders.
const (
	placeholderName            = "${file:name}"
	placeholderNameNoExt       = "${file:name.noext}"
	placeholderNameNoExtSingle = "${file:name.noext.single}"
	placeholderStart           = "${"
)

// MatchesDoneFile reports whether marker names an entry of the listing.
// Any path in marker is ignored; the match is exact and case-sensitive.
func MatchesDoneFile(marker string, entries []filesystem.Entry) bool {
	onlyName := StripPath(marker)

	for _, entry := range entries {
		if entry.Name == onlyName {
			return true
		}
	}

	return false
}

// DoneFileFilter accepts a file only when its done file is present in the same
// directory. Done files themselves are never accepted. Directories pass.
type DoneFileFilter struct {
	// Pattern is a fixed name such as "ready" or a template such as
	// "${file:name}.done" or "${file:name.noext}.ready".
	Pattern string
}

// Accept implements Filter.
func (d DoneFileFilter) Accept(c *Candidate) bool {
	if c.IsDirectory || d.Pattern == "" {
		return true
	}

	if d.IsDoneFile(c.Name) {
		return false
	}

	return MatchesDoneFile(d.DoneFileName(c.AbsolutePath), c.Siblings)
}

// DoneFileName returns the done file path for the file at absolutePath.
func (d DoneFileFilter) DoneFileName(absolutePath string) string {
	name := StripPath(absolutePath)

	expanded := strings.NewReplacer(
		placeholderNameNoExtSingle, stripExtension(name, true),
		placeholderNameNoExt, stripExtension(name, false),
		placeholderName, name,
	).Replace(d.Pattern)

	dir := strings.TrimSuffix(absolutePath, name)

	return Concat(dir, expanded)
}

// IsDoneFile reports whether name is a done file for this pattern. For templates
// the static part of the pattern is compared as a prefix or a suffix depending
// on where it sits.
func (d DoneFileFilter) IsDoneFile(name string) bool {
	start := strings.Index(d.Pattern, placeholderStart)
	if start < 0 {
		return name == d.Pattern
	}

	static := d.Pattern
	for _, placeholder := range []string{placeholderNameNoExtSingle, placeholderNameNoExt, placeholderName} {
		static = strings.Replace(static, placeholder, "", 1)
	}

	if static == "" {
		return false
	}

	if start > 0 {
		return strings.HasPrefix(name, static)
	}

	return strings.HasSuffix(name, static)
}

// stripExtension removes all extensions, or only the last one when single is set.
func stripExtension(name string, single bool) string {
	var idx int
	if single {
		idx = strings.LastIndex(name, ".")
	} else {
		idx = strings.Index(name, ".")
	}

	if idx <= 0 {
		return name
	}

	return name[:idx]
}
