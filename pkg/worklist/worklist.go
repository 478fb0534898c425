// Package worklist builds the ordered list of series ids a fetch run works
// through.
package worklist

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// DefaultColumn is the CSV header holding series ids.
const DefaultColumn = "SeriesID"

// ErrColumnNotFound is returned when the CSV header lacks the id column.
var ErrColumnNotFound = errors.New("id column not found")

// ErrInvalidID is returned for ids that cannot name a payload file.
var ErrInvalidID = errors.New("invalid series id")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FromCSV loads the distinct values of column from the CSV file at path,
// sorted ascending. A leading UTF-8 byte order mark is ignored.
func FromCSV(path, column string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open worklist csv: %w", err)
	}
	defer f.Close()

	ids, err := FromReader(f, column)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ids, nil
}

// FromReader is FromCSV over an arbitrary reader.
func FromReader(r io.Reader, column string) ([]string, error) {
	if column == "" {
		column = DefaultColumn
	}

	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %q (empty file)", ErrColumnNotFound, column)
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	idx := -1
	for i, name := range header {
		if strings.TrimSpace(name) == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}

	seen := make(map[string]struct{})
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if idx >= len(record) {
			continue
		}
		id := strings.TrimSpace(record[idx])
		if id == "" {
			continue
		}
		if err := ValidateID(id); err != nil {
			return nil, err
		}
		seen[id] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// FromList parses a comma-separated id list. Caller order is kept; blanks
// and repeated ids are dropped.
func FromList(s string) []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(s, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// Limit returns the first n ids. A non-positive n returns ids unchanged.
func Limit(ids []string, n int) []string {
	if n <= 0 || n >= len(ids) {
		return ids
	}
	return ids[:n]
}

// ValidateID rejects ids that cannot be used as a file name component:
// empty, "." or "..", or containing a path separator or NUL.
func ValidateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, "/\\\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// Validate checks every id with ValidateID and reports the first offender.
func Validate(ids []string) error {
	for _, id := range ids {
		if err := ValidateID(id); err != nil {
			return err
		}
	}
	return nil
}
