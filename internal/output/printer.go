// Package output renders poll batches and traversal progress for the CLI.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/joe/dirpoll/internal/config"
	"github.com/joe/dirpoll/internal/consumer"
	"github.com/joe/dirpoll/internal/poller"
)

// FileRecord is the JSON form of a polled file.
type FileRecord struct {
	Cycle        string     `json:"cycle"`
	Host         string     `json:"host"`
	Root         string     `json:"root"`
	Path         string     `json:"path"`
	RelativePath string     `json:"relative_path"`
	Name         string     `json:"name"`
	Size         int64      `json:"size"`
	LastModified *time.Time `json:"last_modified,omitempty"`
}

// NewFileRecord converts a polled file. An unknown modification time is omitted.
func NewFileRecord(cycle string, file *poller.RemoteFile) FileRecord {
	record := FileRecord{
		Cycle:        cycle,
		Host:         file.Host,
		Root:         file.EndpointPath,
		Path:         file.AbsoluteFilePath,
		RelativePath: file.RelativeFilePath,
		Name:         file.FileNameOnly,
		Size:         file.Size,
	}

	if file.LastModifiedKnown() {
		modTime := file.ModTime().UTC()
		record.LastModified = &modTime
	}

	return record
}

// Printer writes batches to w.
type Printer struct {
	w       io.Writer
	format  config.OutputFormat
	styled  bool
	encoder *json.Encoder
	now     func() time.Time
}

// NewPrinter creates a Printer. styled enables colors and relative times and
// should only be set when w is a terminal.
func NewPrinter(w io.Writer, format config.OutputFormat, styled bool) *Printer {
	return &Printer{
		w:       w,
		format:  format,
		styled:  styled,
		encoder: json.NewEncoder(w),
		now:     time.Now,
	}
}

// PrintBatch writes every file of batch.
func (p *Printer) PrintBatch(batch *consumer.Batch) error {
	if p.format == config.OutputJSON {
		for _, file := range batch.Files {
			if err := p.encoder.Encode(NewFileRecord(batch.ID, file)); err != nil {
				return fmt.Errorf("failed to write file record: %w", err)
			}
		}

		return nil
	}

	var builder strings.Builder

	if p.styled {
		builder.WriteString(p.header(batch))
		builder.WriteString("\n")
	}

	for _, file := range batch.Files {
		builder.WriteString(p.line(file))
		builder.WriteString("\n")
	}

	if _, err := io.WriteString(p.w, builder.String()); err != nil {
		return fmt.Errorf("failed to write batch: %w", err)
	}

	return nil
}

func (p *Printer) header(batch *consumer.Batch) string {
	var total int64
	for _, file := range batch.Files {
		total += file.Size
	}

	title := TitleStyle().Render(fmt.Sprintf("poll %s", shortID(batch.ID)))
	summary := fmt.Sprintf("%d files, %s", len(batch.Files), humanize.Bytes(uint64(max(total, 0))))

	if batch.Dropped > 0 {
		summary += WarningStyle().Render(fmt.Sprintf(", %d deferred", batch.Dropped))
	}

	if batch.Exhausted {
		summary += WarningStyle().Render(", limit reached")
	}

	return title + " " + DimStyle().Render(summary)
}

// line formats one file as path, size and modification time separated by tabs.
func (p *Printer) line(file *poller.RemoteFile) string {
	size := humanize.Bytes(uint64(max(file.Size, 0)))

	modified := "-"
	if file.LastModifiedKnown() {
		modified = file.ModTime().UTC().Format(time.RFC3339)
	}

	if !p.styled {
		return file.RelativeFilePath + "\t" + size + "\t" + modified
	}

	if file.LastModifiedKnown() {
		modified = humanize.RelTime(file.ModTime(), p.now(), "ago", "from now")
	}

	return PathStyle().Render(file.RelativeFilePath) + "\t" + DimStyle().Render(size+"\t"+modified)
}

func shortID(id string) string {
	const length = 8
	if len(id) > length {
		return id[:length]
	}

	return id
}
