package poller

import "strings"

// Separator is the path separator of every supported store.
const Separator = "/"

// TrimTrailingSeparator removes trailing separators. The bare root "/" is kept.
func TrimTrailingSeparator(dir string) string {
	trimmed := strings.TrimRight(dir, Separator)
	if trimmed == "" && strings.HasPrefix(dir, Separator) {
		return Separator
	}

	return trimmed
}

// Concat joins a directory and an entry name with exactly one separator.
func Concat(dir, name string) string {
	dir = TrimTrailingSeparator(dir)
	name = strings.TrimLeft(name, Separator)

	switch dir {
	case "":
		return name
	case Separator:
		return Separator + name
	default:
		return dir + Separator + name
	}
}

// EnsureRelative strips leading separators.
func EnsureRelative(p string) string {
	return strings.TrimLeft(p, Separator)
}

// IsAbsolute reports whether p starts at the store root.
func IsAbsolute(p string) bool {
	return strings.HasPrefix(p, Separator)
}

// StripPath returns the last element of p.
func StripPath(p string) string {
	p = strings.TrimRight(p, Separator)
	if idx := strings.LastIndex(p, Separator); idx >= 0 {
		return p[idx+1:]
	}

	return p
}

// RelativeTo returns abs relative to root. ok is false when root is not a
// leading directory of abs; the result then falls back to the text after the
// first occurrence of root, or to abs itself, without leading separators.
func RelativeTo(root, abs string) (rel string, ok bool) {
	root = TrimTrailingSeparator(root)

	switch {
	case root == "" || root == ".":
		return EnsureRelative(strings.TrimPrefix(abs, "./")), true
	case abs == root:
		return "", true
	case strings.HasPrefix(abs, root) && (root == Separator || strings.HasPrefix(abs[len(root):], Separator)):
		return EnsureRelative(abs[len(root):]), true
	}

	if idx := strings.Index(abs, root); idx >= 0 {
		return EnsureRelative(abs[idx+len(root):]), false
	}

	return EnsureRelative(abs), false
}
