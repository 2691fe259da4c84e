package agent

import (
	"fmt"

	"github.com/jonmsawyer/cmdb/internal/protocol"
)

// RemoteState is the flattened server-side view of one tracked path, as
// reported by poll, config_status, or fetch.
type RemoteState struct {
	FilePath     string
	IsDisabled   bool
	Revision     int64
	Mtime        int64
	SHA1Checksum string
	IsBinary     bool
	IsEncrypted  bool
}

// RemoteFromEntry flattens a poll/config_status entry.
func RemoteFromEntry(e protocol.ConfigEntry) RemoteState {
	r := RemoteState{FilePath: e.FilePath, IsDisabled: e.IsDisabled}
	if e.Revision != nil {
		r.Revision = *e.Revision
	}
	if e.Mtime != nil {
		r.Mtime = *e.Mtime
	}
	if e.SHA1Checksum != nil {
		r.SHA1Checksum = *e.SHA1Checksum
	}
	if e.IsBinary != nil {
		r.IsBinary = *e.IsBinary
	}
	if e.IsEncrypted != nil {
		r.IsEncrypted = *e.IsEncrypted
	}
	return r
}

// StatusLine renders the five-column audit line for one tracked path:
//
//	[age][checksum][disabled][binary][encrypted]      path rN
//
// age:      '?' local missing, '<' local older, '=' same age, '>' local newer
// checksum: ' ' digests match, 'C' mismatch
// disabled: 'D' remote disabled, ' ' enabled
// binary:   'B' remote binary, ' ' text
// encrypted:'#' remote sealed, ' ' plain
func StatusLine(local *LocalFile, remote RemoteState) string {
	age := byte('?')
	if local.Exists {
		switch {
		case local.Mtime > remote.Mtime:
			age = '>'
		case local.Mtime < remote.Mtime:
			age = '<'
		default:
			age = '='
		}
	}

	sum := byte('C')
	if local.SHA1Checksum == remote.SHA1Checksum {
		sum = ' '
	}

	disabled := byte(' ')
	if remote.IsDisabled {
		disabled = 'D'
	}
	binary := byte(' ')
	if remote.IsBinary {
		binary = 'B'
	}
	encrypted := byte(' ')
	if remote.IsEncrypted {
		encrypted = '#'
	}

	return fmt.Sprintf("%c%c%c%c%c      %s r%d",
		age, sum, disabled, binary, encrypted, remote.FilePath, remote.Revision)
}
