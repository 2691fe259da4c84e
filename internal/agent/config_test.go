package agent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigURL(t *testing.T) {
	cfg := &Config{Hostname: "cmdb.example.com", Port: 8000, URI: "/cmdb"}

	require.Equal(t, "http://cmdb.example.com:8000/cmdb/clients/register/", cfg.URL("clients/register"))
	require.Equal(t, "http://cmdb.example.com:8000/cmdb/clients/poll/", cfg.URL("/clients/poll/"))
	require.Equal(t, "http://cmdb.example.com:8000/cmdb", cfg.URL(""))
}

func TestConfigURL_NormalizesURI(t *testing.T) {
	cfg := &Config{Hostname: "localhost", Port: 9000, URI: "cmdb/"}
	require.Equal(t, "http://localhost:9000/cmdb/clients/status/", cfg.URL("clients/status"))
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	require.Error(t, (&Config{Port: 8000, URI: "/cmdb"}).Validate())
	require.Error(t, (&Config{Hostname: "h", Port: 0, URI: "/cmdb"}).Validate())
	require.Error(t, (&Config{Hostname: "h", Port: 70000, URI: "/cmdb"}).Validate())
	require.Error(t, (&Config{Hostname: "h", Port: 8000}).Validate())
}

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	want := &Config{
		Hostname:      "cmdb.example.com",
		Port:          8443,
		URI:           "/cmdb",
		APIKey:        "da39a3ee5e6b4b0d3255bfef95601890afd80709",
		EncryptionKey: "0123456789abcdef0123456789abcdef",
		SyncLogFile:   "/var/log/cmdb-sync.log",
	}
	require.NoError(t, want.WriteTo(path))

	got, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, want, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("hostname = \"\"\nport = 8000\nuri = \"/cmdb\"\n"), 0o600))

	_, err := LoadConfig(path)
	require.Error(t, err)
}
