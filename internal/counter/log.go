package counter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// TimestampLayout is the format of the Timestamp column.
const TimestampLayout = "2006-01-02 15:04:05"

var logHeader = []string{"Timestamp", "Count"}

// CountLog appends one Timestamp,Count row per processed frame.
type CountLog struct {
	path string
}

// NewCountLog creates a log writing to path.
func NewCountLog(path string) *CountLog {
	return &CountLog{path: path}
}

// Path returns the log file path.
func (l *CountLog) Path() string {
	return l.path
}

// Append writes a row, creating the file with its header when it is new or empty.
func (l *CountLog) Append(at time.Time, count int) error {
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create count log directory: %w", err)
		}
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) //nolint:gosec // path is from trusted config
	if err != nil {
		return fmt.Errorf("open count log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat count log: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(logHeader); err != nil {
			return fmt.Errorf("write count log header: %w", err)
		}
	}
	if err := w.Write([]string{at.Format(TimestampLayout), strconv.Itoa(count)}); err != nil {
		return fmt.Errorf("write count log row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush count log: %w", err)
	}
	return nil
}
