package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LoadCSV reads a CSV/TSV file into a Frame.
func LoadCSV(path string, opt Options) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Frame{Name: filepath.Base(path), Path: path}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var readErr error
	row := 0
	next := func() ([]string, bool) {
		rec, err := r.Read()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				readErr = fmt.Errorf("read row %d: %w", row+1, err)
			}
			return nil, false
		}
		row++
		cp := make([]string, len(rec))
		copy(cp, rec)
		return cp, true
	}
	fr := build(filepath.Base(path), header, next, opt)
	if readErr != nil {
		return nil, readErr
	}
	fr.Path = path
	return fr, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
