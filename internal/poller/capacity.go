package poller

// Capacity reports whether a poll cycle may take more files.
type Capacity interface {
	HasRoom(files []*RemoteFile) bool
}

// Unlimited never runs out of room.
type Unlimited struct{}

// HasRoom always returns true.
func (Unlimited) HasRoom([]*RemoteFile) bool {
	return true
}

// MaxMessages limits a cycle to Max files. When Eager is false the traversal is
// not cut short; the caller truncates after sorting instead.
type MaxMessages struct {
	Max   int
	Eager bool
}

// HasRoom reports whether fewer than Max files were collected.
func (m MaxMessages) HasRoom(files []*RemoteFile) bool {
	if !m.Eager || m.Max <= 0 {
		return true
	}

	return len(files) < m.Max
}
