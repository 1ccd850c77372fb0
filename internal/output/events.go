package output

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"

	"github.com/joe/dirpoll/internal/poller"
)

const eventBufferSize = 100

// EventPrinter writes poller events to w from a background goroutine so a slow
// writer never stalls traversal.
// It implements poller.EventEmitter.
type EventPrinter struct {
	w       io.Writer
	events  chan poller.Event
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

// NewEventPrinter starts an EventPrinter writing to w.
func NewEventPrinter(w io.Writer) *EventPrinter {
	printer := &EventPrinter{
		w:      w,
		events: make(chan poller.Event, eventBufferSize),
		done:   make(chan struct{}),
	}

	go printer.drain()

	return printer
}

// Emit implements poller.EventEmitter.
// Events are dropped when the buffer is full.
func (e *EventPrinter) Emit(event poller.Event) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return
	}

	select {
	case e.events <- event:
	default:
		e.dropped.Add(1)
	}
}

// Dropped returns the number of events lost to a full buffer.
func (e *EventPrinter) Dropped() int64 {
	return e.dropped.Load()
}

// Close flushes buffered events and stops the printer.
func (e *EventPrinter) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}

	e.closed = true
	close(e.events)
	e.mu.Unlock()

	<-e.done
}

func (e *EventPrinter) drain() {
	defer close(e.done)

	for event := range e.events {
		if line := FormatEvent(event); line != "" {
			_, _ = fmt.Fprintln(e.w, line)
		}
	}
}

// FormatEvent renders an event as one line. Unknown events render empty.
func FormatEvent(event poller.Event) string {
	switch ev := event.(type) {
	case poller.PollStarted:
		return "polling " + ev.Root
	case poller.DirectoryListed:
		return fmt.Sprintf("listed %s (depth %d): %d entries", ev.Path, ev.Depth, ev.Entries)
	case poller.DirectorySkipped:
		return fmt.Sprintf("skipped %s: %v", ev.Path, ev.Err)
	case poller.FileAccepted:
		return fmt.Sprintf("accepted %s (%s)", ev.File.RelativeFilePath, humanize.Bytes(uint64(max(ev.File.Size, 0))))
	case poller.PollComplete:
		switch {
		case ev.Err != nil:
			return fmt.Sprintf("poll failed after %d files: %v", ev.Files, ev.Err)
		case ev.Exhausted:
			return fmt.Sprintf("poll stopped at limit: %d files", ev.Files)
		default:
			return fmt.Sprintf("poll complete: %d files", ev.Files)
		}
	default:
		return ""
	}
}
