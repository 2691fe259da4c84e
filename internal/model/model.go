// Package model defines domain entities used by services and repositories.
package model

import "time"

// Client is a registered host identified by a bearer API key.
type Client struct {
	ID            int64
	Name          string // FQDN, stored lowercase, unique
	APIKey        string // 40-char lowercase hex, unique
	DateCreated   time.Time
	IsDisabled    bool // default true; registration flips it on save
	IsBlacklisted bool // terminal, never auto-clears
}

// Configuration is one file path under sync control for one client.
// FilePath is stored case-folded when IsCaseSensitive is false;
// (ClientID, FilePath) is unique.
type Configuration struct {
	ID              int64
	ClientID        int64
	FilePath        string
	IsCaseSensitive bool
	IsDisabled      bool
}

// Revision is an immutable, numbered content snapshot of a Configuration.
// Revision numbers start at 1 and increase by exactly 1 per accepted push.
// Mtime is the source file's last-modified time in integer seconds, not
// the commit time.
type Revision struct {
	ID              int64
	ConfigurationID int64
	Revision        int64
	SHA1Checksum    string
	Mtime           int64
	Content         string
	IsBinary        bool
	IsEncrypted     bool
	UpdatedAt       time.Time
}

// RevisionView is the read model returned by fetch and push: the latest
// revision of one configuration plus its disabled flag.
type RevisionView struct {
	FilePath     string
	IsDisabled   bool
	Revision     int64
	SHA1Checksum string
	Mtime        int64
	Content      string
	IsBinary     bool
	IsEncrypted  bool
}

// ConfigSummary is one poll/config_status entry. Disabled entries carry
// only FilePath and IsDisabled; enabled entries also carry the latest
// revision metadata (never the content itself).
type ConfigSummary struct {
	FilePath      string
	IsDisabled    bool
	Revision      int64
	SHA1Checksum  string
	Mtime         int64
	ContentLength int64
	IsBinary      bool
	IsEncrypted   bool
}

// PushRequest carries a validated push through the service layer.
type PushRequest struct {
	FilePath      string
	CaseSensitive bool
	Mtime         int64
	SHA1Checksum  string
	Content       string
	IsBinary      bool
	IsEncrypted   bool
}

// AddRequest carries a validated catalog add through the service layer.
type AddRequest struct {
	FilePath      string
	CaseSensitive bool
	Mtime         int64
	Payload       string
	IsBinary      bool
	IsEncrypted   bool
}
