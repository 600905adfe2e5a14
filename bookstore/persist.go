package bookstore

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format names a persisted file layout.
type Format string

const (
	FormatJSON   Format = "json"
	FormatXML    Format = "xml"
	FormatSQLite Format = "sqlite"
)

// Codec converts a snapshot to and from a byte stream.
type Codec interface {
	Encode(w io.Writer, snap *Snapshot) error
	Decode(r io.Reader) (*Snapshot, error)
}

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "json":
		return FormatJSON, nil
	case "xml":
		return FormatXML, nil
	case "sqlite", "sqlite3", "db":
		return FormatSQLite, nil
	}
	return "", invalidField("format", "name", fmt.Sprintf("unknown format %q", s))
}

// FormatForPath picks the format from the file extension.
func FormatForPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", invalidField("format", "name", fmt.Sprintf("cannot tell format of %q", path))
	}
	return ParseFormat(ext)
}

func codecFor(f Format) (Codec, bool) {
	switch f {
	case FormatJSON:
		return JSONCodec{}, true
	case FormatXML:
		return XMLCodec{}, true
	}
	return nil, false
}

// Save writes the full store state to path.
func (s *Store) Save(path string, f Format) error {
	snap := s.Snapshot()

	if f == FormatSQLite {
		if err := saveSQLite(path, snap); err != nil {
			return fileError("save "+path, err)
		}
		s.logger.Info("store saved", "path", path, "format", f)
		return nil
	}

	codec, ok := codecFor(f)
	if !ok {
		return invalidField("format", "name", fmt.Sprintf("unknown format %q", f))
	}
	var buf bytes.Buffer
	if err := codec.Encode(&buf, snap); err != nil {
		return wrapInternal("encode "+path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fileError("save "+path, err)
	}
	s.logger.Info("store saved", "path", path, "format", f)
	return nil
}

// Load replaces the full store state with the content of path. A missing
// file yields a KindFileOperation error wrapping fs.ErrNotExist; unreadable
// content wraps ErrMalformedSnapshot. The store is unchanged on error.
func (s *Store) Load(path string, f Format) error {
	var (
		snap *Snapshot
		err  error
	)

	switch f {
	case FormatSQLite:
		if _, statErr := os.Stat(path); statErr != nil {
			return fileError("load "+path, statErr)
		}
		if snap, err = loadSQLite(path); err != nil {
			return malformed(path, err)
		}
	default:
		codec, ok := codecFor(f)
		if !ok {
			return invalidField("format", "name", fmt.Sprintf("unknown format %q", f))
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return fileError("load "+path, readErr)
		}
		if snap, err = codec.Decode(bytes.NewReader(data)); err != nil {
			return malformed(path, err)
		}
	}

	if err := s.Restore(snap); err != nil {
		return malformed(path, err)
	}
	s.logger.Info("store loaded", "path", path, "format", f,
		"items", s.items.len(), "transactions", s.transactions.len())
	return nil
}
