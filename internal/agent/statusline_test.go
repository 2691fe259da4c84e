package agent

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jonmsawyer/cmdb/internal/protocol"
)

const (
	digestA = "da39a3ee5e6b4b0d3255bfef95601890afd80709"
	digestB = "a9993e364706816aba3e25717850c26c9cd0d89d"
)

func TestStatusLine(t *testing.T) {
	for _, tc := range []struct {
		name   string
		local  LocalFile
		remote RemoteState
		want   string
	}{
		{
			"converged",
			LocalFile{Exists: true, Mtime: 100, SHA1Checksum: digestA},
			RemoteState{FilePath: "/etc/hosts", Revision: 4, Mtime: 100, SHA1Checksum: digestA},
			"=    " + "      " + "/etc/hosts r4",
		},
		{
			"local missing",
			LocalFile{Exists: false, SHA1Checksum: digestA},
			RemoteState{FilePath: "/etc/hosts", Revision: 1, Mtime: 100, SHA1Checksum: digestB},
			"?C   " + "      " + "/etc/hosts r1",
		},
		{
			"local newer with mismatch",
			LocalFile{Exists: true, Mtime: 200, SHA1Checksum: digestA},
			RemoteState{FilePath: "/etc/motd", Revision: 2, Mtime: 100, SHA1Checksum: digestB},
			">C   " + "      " + "/etc/motd r2",
		},
		{
			"local older",
			LocalFile{Exists: true, Mtime: 50, SHA1Checksum: digestA},
			RemoteState{FilePath: "/etc/motd", Revision: 3, Mtime: 100, SHA1Checksum: digestA},
			"<    " + "      " + "/etc/motd r3",
		},
		{
			"disabled binary encrypted",
			LocalFile{Exists: true, Mtime: 100, SHA1Checksum: digestA},
			RemoteState{FilePath: "/etc/key.bin", Revision: 7, Mtime: 100, SHA1Checksum: digestA,
				IsDisabled: true, IsBinary: true, IsEncrypted: true},
			"= DB#" + "      " + "/etc/key.bin r7",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, StatusLine(&tc.local, tc.remote))
		})
	}
}

func TestRemoteFromEntry(t *testing.T) {
	rev, mtime := int64(4), int64(1700000000)
	sum := digestA
	bin, enc := true, false
	e := protocol.ConfigEntry{
		FilePath: "/etc/hosts", Revision: &rev, Mtime: &mtime,
		SHA1Checksum: &sum, IsBinary: &bin, IsEncrypted: &enc,
	}

	r := RemoteFromEntry(e)
	require.Equal(t, int64(4), r.Revision)
	require.Equal(t, int64(1700000000), r.Mtime)
	require.Equal(t, digestA, r.SHA1Checksum)
	require.True(t, r.IsBinary)
	require.False(t, r.IsEncrypted)
}

func TestRemoteFromEntry_DisabledNilFields(t *testing.T) {
	r := RemoteFromEntry(protocol.ConfigEntry{FilePath: "/etc/shadow", IsDisabled: true})
	require.True(t, r.IsDisabled)
	require.Zero(t, r.Revision)
	require.Empty(t, r.SHA1Checksum)
}
