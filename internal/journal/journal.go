// Package journal records every executed, undone and redone annotation
// command as JSON lines. The journal is an audit trail, not state: writes
// are asynchronous and best-effort, and a journal failure never fails the
// mutation it describes.
package journal

import (
	"encoding/json"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Entry is one journaled mutation.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Op        string    `json:"op"` // execute, undo, redo, clear, load
	Command   string    `json:"command,omitempty"`
	ShapeID   string    `json:"shape_id,omitempty"`
	Kind      string    `json:"kind,omitempty"`
	Count     int       `json:"count"`
}

// Writer appends entries to a rotated JSONL file through a buffered channel
// and a single write loop.
type Writer struct {
	writeCh chan Entry
	done    chan struct{}
	wg      sync.WaitGroup
	logger  *lumberjack.Logger
}

// NewWriter creates a journal writing to dir/annotations.jsonl.
func NewWriter(dir string, bufferSize, maxSizeMB int) *Writer {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	w := &Writer{
		writeCh: make(chan Entry, bufferSize),
		done:    make(chan struct{}),
		logger: &lumberjack.Logger{
			Filename:   filepath.Join(dir, "annotations.jsonl"),
			MaxSize:    maxSizeMB,
			MaxBackups: 10,
			MaxAge:     30,
			LocalTime:  false,
		},
	}
	w.wg.Add(1)
	go w.writeLoop()
	return w
}

// Record queues an entry. Never blocks; when the buffer is full the entry
// is dropped with a warning.
func (w *Writer) Record(e Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	select {
	case w.writeCh <- e:
	case <-w.done:
	default:
		slog.Warn("journal buffer full, dropping entry", "op", e.Op)
	}
}

// Close stops the write loop, flushes what is already queued and closes the
// underlying file.
func (w *Writer) Close() error {
	close(w.done)
	w.wg.Wait()
	for {
		select {
		case e := <-w.writeCh:
			w.writeEntry(e)
		default:
			return w.logger.Close()
		}
	}
}

func (w *Writer) writeLoop() {
	defer w.wg.Done()
	for {
		select {
		case e := <-w.writeCh:
			w.writeEntry(e)
		case <-w.done:
			return
		}
	}
}

func (w *Writer) writeEntry(e Entry) {
	data, err := json.Marshal(e)
	if err != nil {
		slog.Error("journal marshal failed", "error", err)
		return
	}
	if _, err := w.logger.Write(append(data, '\n')); err != nil {
		slog.Error("journal write failed", "error", err)
	}
}
