package agent

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jonmsawyer/cmdb/internal/checksum"
)

func TestResolveLocal_Text(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motd")
	require.NoError(t, os.WriteFile(path, []byte("hello\n"), 0o644))
	stamp := time.Unix(1700000000, 0)
	require.NoError(t, os.Chtimes(path, stamp, stamp))

	lf, err := ResolveLocal(path)
	require.NoError(t, err)
	require.True(t, lf.Exists)
	require.False(t, lf.IsBinary)
	require.Equal(t, "hello\n", lf.Content)
	require.Equal(t, int64(1700000000), lf.Mtime)
	require.Equal(t, checksum.Bytes([]byte("hello\n")), lf.SHA1Checksum)
}

func TestResolveLocal_Binary(t *testing.T) {
	raw := []byte{0x00, 0xff, 0xfe, 0x7f}
	path := filepath.Join(t.TempDir(), "blob")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	lf, err := ResolveLocal(path)
	require.NoError(t, err)
	require.True(t, lf.IsBinary)
	require.Equal(t, base64.StdEncoding.EncodeToString(raw), lf.Content)
	// digest covers the raw bytes, not the base64 form
	require.Equal(t, checksum.Bytes(raw), lf.SHA1Checksum)
}

func TestResolveLocal_Missing(t *testing.T) {
	lf, err := ResolveLocal(filepath.Join(t.TempDir(), "ghost"))
	require.NoError(t, err)
	require.False(t, lf.Exists)
	require.Zero(t, lf.Mtime)
	require.Equal(t, checksum.Bytes(nil), lf.SHA1Checksum)
}

func TestWriteLocal_StampsMtime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts")
	require.NoError(t, WriteLocal(path, "127.0.0.1 localhost\n", false, 1700000000))

	st, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, int64(1700000000), st.ModTime().Unix())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1 localhost\n", string(got))
}

func TestWriteLocal_Binary(t *testing.T) {
	raw := []byte{0xde, 0xad, 0xbe, 0xef}
	path := filepath.Join(t.TempDir(), "blob")
	require.NoError(t, WriteLocal(path, base64.StdEncoding.EncodeToString(raw), true, 42))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, raw, got)
}

func TestWriteLocal_BadBase64(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob")
	require.Error(t, WriteLocal(path, "!!!not-base64!!!", true, 42))
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))
}
