package agent

import (
	"encoding/base64"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonmsawyer/cmdb/internal/checksum"
)

// LocalFile is the resolved state of one file on this host. A missing
// file still participates in comparison: mtime 0, empty content.
type LocalFile struct {
	Path         string
	Exists       bool
	Mtime        int64
	Content      string // wire form: text as-is, binary base64-encoded
	IsBinary     bool
	SHA1Checksum string // always over the raw bytes / UTF-8 text
}

// ResolveLocal stats and reads a file. Bytes that decode as UTF-8 are
// treated as text; anything else travels base64 with IsBinary set.
func ResolveLocal(path string) (*LocalFile, error) {
	lf := &LocalFile{Path: path}

	st, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		lf.SHA1Checksum = checksum.Bytes(nil)
		return lf, nil
	}
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	lf.Exists = true
	lf.Mtime = st.ModTime().Unix()
	if utf8.Valid(raw) {
		lf.Content = string(raw)
	} else {
		lf.IsBinary = true
		lf.Content = base64.StdEncoding.EncodeToString(raw)
	}
	lf.SHA1Checksum = checksum.Bytes(raw)
	return lf, nil
}

// WriteLocal writes fetched content to disk and stamps the file with the
// remote mtime, so the next poll sees convergence instead of re-pushing.
func WriteLocal(path, content string, isBinary bool, mtime int64) error {
	raw := []byte(content)
	if isBinary {
		var err error
		if raw, err = base64.StdEncoding.DecodeString(content); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return err
	}
	ts := time.Unix(mtime, 0)
	return os.Chtimes(path, ts, ts)
}

// FilesystemCaseSensitive probes whether the local filesystem folds case,
// by checking a fresh temp file under its upper-cased name.
func FilesystemCaseSensitive() bool {
	f, err := os.CreateTemp("", "cmdb-case-*")
	if err != nil {
		return true
	}
	name := f.Name()
	_ = f.Close()
	defer os.Remove(name)

	upper := filepath.Join(filepath.Dir(name), strings.ToUpper(filepath.Base(name)))
	_, err = os.Stat(upper)
	return err != nil
}
