package attendance

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// ExportCSV appends records to the attendance file as name,first_seen,last_seen rows.
func ExportCSV(path string, records []Record) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create attendance directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) //nolint:gosec // path is from trusted config
	if err != nil {
		return fmt.Errorf("open attendance file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, records); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close attendance file: %w", err)
	}
	return nil
}

// WriteCSV writes records as CSV rows without a header.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	for _, r := range records {
		row := []string{r.Name, r.FirstSeen.Format(time.RFC3339Nano), r.LastSeen.Format(time.RFC3339Nano)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write attendance row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush attendance rows: %w", err)
	}
	return nil
}

// LoadCSV reads an attendance file written by ExportCSV. A missing file yields no records.
func LoadCSV(path string) ([]Record, error) {
	f, err := os.Open(path) //nolint:gosec // path is from trusted config
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open attendance file: %w", err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV parses name,first_seen,last_seen rows.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3

	var records []Record
	for line := 1; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read attendance row %d: %w", line, err)
		}

		first, err := time.Parse(time.RFC3339Nano, row[1])
		if err != nil {
			return nil, fmt.Errorf("parse first_seen on row %d: %w", line, err)
		}
		last, err := time.Parse(time.RFC3339Nano, row[2])
		if err != nil {
			return nil, fmt.Errorf("parse last_seen on row %d: %w", line, err)
		}
		records = append(records, Record{Name: row[0], FirstSeen: first, LastSeen: last})
	}
	return records, nil
}
