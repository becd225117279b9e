package loader

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Encode writes elems in the given format.
func Encode(w io.Writer, format Format, elems []Element) error {
	switch format {
	case FormatJSONL:
		return WriteJSONL(w, elems)
	case FormatYAML:
		return WriteYAML(w, elems)
	}
	return WriteText(w, elems)
}

// Digest identifies the exact bytes of an outline file.
type Digest [sha256.Size]byte

// FileDigest hashes the current contents of path.
func FileDigest(path string) (Digest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Digest{}, err
	}
	return sha256.Sum256(data), nil
}

// SaveFile writes elems to path in the format its extension selects. The
// file is replaced atomically so a concurrent reader or watcher never sees
// a half-written outline.
func SaveFile(path string, elems []Element) error {
	_, err := Save(path, elems)
	return err
}

// Save is SaveFile returning the digest of what was written, so the caller
// can tell its own write apart from later edits.
func Save(path string, elems []Element) (Digest, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, FormatFor(path), elems); err != nil {
		return Digest{}, err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return Digest{}, fmt.Errorf("save outline: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return Digest{}, fmt.Errorf("save outline: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return Digest{}, fmt.Errorf("save outline: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return Digest{}, fmt.Errorf("save outline: %w", err)
	}
	return sha256.Sum256(buf.Bytes()), nil
}
