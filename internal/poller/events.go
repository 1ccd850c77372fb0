package poller

// Event is the interface implemented by all poller events.
type Event interface {
	isEvent()
}

// EventEmitter is the interface for emitting events.
type EventEmitter interface {
	Emit(event Event)
}

// EmitterFunc adapts a function to EventEmitter.
type EmitterFunc func(event Event)

// Emit calls f(event).
func (f EmitterFunc) Emit(event Event) {
	f(event)
}

// PollStarted is emitted when a poll cycle begins.
type PollStarted struct {
	Root string
}

func (PollStarted) isEvent() {}

// DirectoryListed is emitted after a directory was listed.
type DirectoryListed struct {
	Path    string
	Depth   int // call depth, 0 for the root
	Entries int
}

func (DirectoryListed) isEvent() {}

// DirectorySkipped is emitted when a directory could not be listed because it
// is missing or forbidden and the failure was ignored.
type DirectorySkipped struct {
	Path string
	Err  error
}

func (DirectorySkipped) isEvent() {}

// FileAccepted is emitted when a file is appended to the poll result.
type FileAccepted struct {
	File *RemoteFile
}

func (FileAccepted) isEvent() {}

// PollComplete is emitted when a poll cycle ends, successfully or not.
type PollComplete struct {
	Files     int
	Exhausted bool // the batch limit cut the cycle short
	Err       error
}

func (PollComplete) isEvent() {}
