package eventlog

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"os"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/simflow/simflow/core/payload"
)

// Columns is the fixed column set of every event log, in write order.
var Columns = []string{"time", "component_id", "component_type", "action", "values", "PDV", "addition"}

// DefaultBufferSize is the write-buffer budget used when none is configured.
const DefaultBufferSize = 1 << 20

// Row is one event log entry. Values and Addition are open key/value maps;
// PDV is the token container at the moment of logging.
type Row struct {
	Time          float64
	ComponentID   string
	ComponentType string
	Action        string
	Values        map[string]any
	PDV           *payload.Container
	Addition      map[string]any
}

// Logger is a buffered, mutex-guarded CSV writer. Close is idempotent and
// flushes the buffer; it must be called before the process exits.
type Logger struct {
	mu     sync.Mutex
	file   *os.File
	buf    *bufio.Writer
	writer *csv.Writer
	closed bool
	diag   logrus.FieldLogger
}

// New opens (or creates) the log file at path in append mode with the given
// buffer budget in bytes (0 selects DefaultBufferSize). The header row is
// written when the file is empty.
func New(path string, bufferSize int, diag logrus.FieldLogger) (*Logger, error) {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if diag == nil {
		diag = logrus.StandardLogger()
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	logger := &Logger{
		file: file,
		buf:  bufio.NewWriterSize(file, bufferSize),
		diag: diag.WithField("log_file", path),
	}
	logger.writer = csv.NewWriter(logger.buf)

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.Size() == 0 {
		if err := logger.writer.Write(Columns); err != nil {
			file.Close()
			return nil, err
		}
	}
	return logger, nil
}

// LogEvent appends one row. Serialisation or write failures are reported to
// the diagnostic logger; the simulation keeps running.
func (l *Logger) LogEvent(row Row) {
	record := []string{
		strconv.FormatFloat(row.Time, 'g', -1, 64),
		row.ComponentID,
		row.ComponentType,
		row.Action,
		l.marshalCell(row.Values),
		l.marshalContainer(row.PDV),
		l.marshalCell(row.Addition),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		l.diag.Warn("event dropped: log already closed")
		return
	}
	if err := l.writer.Write(record); err != nil {
		l.diag.WithError(err).Error("event log write failed")
	}
}

// Flush forces buffered rows to disk.
func (l *Logger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.flushLocked()
}

func (l *Logger) flushLocked() error {
	l.writer.Flush()
	if err := l.writer.Error(); err != nil {
		l.diag.WithError(err).Error("event log flush failed")
		return err
	}
	if err := l.buf.Flush(); err != nil {
		l.diag.WithError(err).Error("event log flush failed")
		return err
	}
	return nil
}

// Close flushes and closes the underlying file. Calling Close more than once
// is a no-op.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	flushErr := l.flushLocked()
	closeErr := l.file.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// marshalCell renders an open map as JSON; nil maps become empty cells.
// encoding/json sorts map keys, so identical runs produce identical bytes.
func (l *Logger) marshalCell(m map[string]any) string {
	if m == nil {
		return ""
	}
	encoded, err := json.Marshal(m)
	if err != nil {
		l.diag.WithError(err).Error("event value serialisation failed")
		return ""
	}
	return string(encoded)
}

func (l *Logger) marshalContainer(c *payload.Container) string {
	if c == nil {
		return ""
	}
	encoded, err := json.Marshal(c)
	if err != nil {
		l.diag.WithError(err).Error("container serialisation failed")
		return ""
	}
	return string(encoded)
}
