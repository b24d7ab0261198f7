package blockfile

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/dchest/safefile"
)

const (
	metadataFile   = "fields.json"
	postingsPrefix = "postings."
	normsPrefix    = "norms."
	storedPrefix   = "stored."

	// a single postings line can hold a very long list
	maxLineSize = 64 << 20
)

// escapeName makes a field name safe for use as a file name component.
// The result never contains '.', which separates name components.
func escapeName(s string) string {
	return strings.ReplaceAll(url.PathEscape(s), ".", "%2E")
}

func postingsFile(field, blockKey string) string {
	return postingsPrefix + escapeName(field) + "." + hex.EncodeToString([]byte(blockKey))
}

func postingsFilePrefix(field string) string {
	return postingsPrefix + escapeName(field) + "."
}

func normsFile(field string) string {
	return normsPrefix + escapeName(field)
}

func storedFile(field string) string {
	return storedPrefix + escapeName(field)
}

func isIndexFile(name string) bool {
	return name == metadataFile ||
		strings.HasPrefix(name, postingsPrefix) ||
		strings.HasPrefix(name, normsPrefix) ||
		strings.HasPrefix(name, storedPrefix)
}

// writeLines atomically replaces path with one JSON document per line.
func writeLines[T any](path string, lines []T) error {
	f, err := safefile.Create(path, 0o644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, line := range lines {
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("encoding line of %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Commit(); err != nil {
		return fmt.Errorf("committing %s: %w", path, err)
	}
	return nil
}

// scanLines calls fn with every non-empty line of path. It returns
// os.ErrNotExist (wrapped) when the file is missing. Returning false from
// fn stops the scan.
func scanLines(path string, fn func(line []byte) bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return scan(f, fn)
}

func scan(r io.Reader, fn func(line []byte) bool) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		if !fn(line) {
			return nil
		}
	}
	return sc.Err()
}
