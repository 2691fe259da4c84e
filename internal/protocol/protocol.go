// Package protocol defines the JSON shapes exchanged between the agent
// and the server. One resource per verb; every error response is
// {"error": "<message>"} carried on HTTP 200.
package protocol

// APIKeyLen is the exact length of a bearer key on the wire. Requests
// presenting a key of any other length are rejected before lookup.
const APIKeyLen = 40

// RegisterRequest is the body of POST register.
type RegisterRequest struct {
	FQDN string `json:"fqdn"`
}

// StatusResponse answers register and status. APIKey rides only on a
// successful register.
type StatusResponse struct {
	Name          string `json:"name"`
	DateCreated   string `json:"date_created"`
	IsDisabled    bool   `json:"is_disabled"`
	IsBlacklisted bool   `json:"is_blacklisted"`
	APIKey        string `json:"api_key,omitempty"`
}

// UnregisterRequest is the body of POST unregister.
type UnregisterRequest struct {
	APIKey string `json:"api_key"`
}

// UnregisterResponse confirms the disable.
type UnregisterResponse struct {
	FQDN       string `json:"fqdn"`
	IsDisabled bool   `json:"is_disabled"`
}

// InfoResponse answers GET info.
type InfoResponse struct {
	Name                   string `json:"name"`
	DateCreated            string `json:"date_created"`
	APIKey                 string `json:"api_key"`
	IsDisabled             bool   `json:"is_disabled"`
	IsBlacklisted          bool   `json:"is_blacklisted"`
	ConfigurationsTracking int64  `json:"configurations_tracking"`
}

// ConfigEntry is one tracked path in a poll or config_status response.
// Revision metadata is omitted for disabled entries.
type ConfigEntry struct {
	FilePath      string  `json:"file_path"`
	IsDisabled    bool    `json:"is_disabled"`
	Revision      *int64  `json:"revision,omitempty"`
	SHA1Checksum  *string `json:"sha1_checksum,omitempty"`
	Mtime         *int64  `json:"mtime,omitempty"`
	ContentLength *int64  `json:"content_length,omitempty"`
	IsBinary      *bool   `json:"is_binary,omitempty"`
	IsEncrypted   *bool   `json:"is_encrypted,omitempty"`
}

// ConfigStatusResponse answers GET config_status.
type ConfigStatusResponse struct {
	Name           string        `json:"name"`
	IsDisabled     bool          `json:"is_disabled"`
	IsBlacklisted  bool          `json:"is_blacklisted"`
	Configurations []ConfigEntry `json:"configurations"`
}

// PollResponse answers GET poll: the authoritative snapshot of every
// tracked configuration, metadata only.
type PollResponse struct {
	ClientName         string        `json:"client_name"`
	DateCreated        string        `json:"date_created"`
	IsDisabled         bool          `json:"is_disabled"`
	IsBlacklisted      bool          `json:"is_blacklisted"`
	ConfigurationCount int64         `json:"configuration_count"`
	Configurations     []ConfigEntry `json:"configurations"`
}

// ConfigurationBody is the nested payload of add and remove.
type ConfigurationBody struct {
	FilePath      string `json:"file_path"`
	Mtime         int64  `json:"mtime"`
	Payload       string `json:"payload"`
	CaseSensitive bool   `json:"case_sensitive"`
}

// AddRemoveRequest is the body of POST add and POST remove.
type AddRemoveRequest struct {
	APIKey        string            `json:"api_key"`
	Type          string            `json:"type"`
	Configuration ConfigurationBody `json:"configuration"`
}

// AddRemoveResponse echoes the submitted fields on success.
type AddRemoveResponse struct {
	FilePath      string `json:"file_path"`
	Mtime         int64  `json:"mtime"`
	Payload       string `json:"payload"`
	CaseSensitive bool   `json:"case_sensitive"`
}

// FetchResponse answers GET fetch with the latest revision content.
type FetchResponse struct {
	FilePath     string  `json:"file_path"`
	IsDisabled   bool    `json:"is_disabled"`
	Revision     *int64  `json:"revision,omitempty"`
	Mtime        *int64  `json:"mtime,omitempty"`
	SHA1Checksum *string `json:"sha1_checksum,omitempty"`
	Content      *string `json:"content,omitempty"`
	IsBinary     *bool   `json:"is_binary,omitempty"`
	IsEncrypted  *bool   `json:"is_encrypted,omitempty"`
}

// PushRequest is the body of POST push.
type PushRequest struct {
	APIKey        string `json:"api_key"`
	FilePath      string `json:"file_path"`
	Mtime         int64  `json:"mtime"`
	SHA1Checksum  string `json:"sha1_checksum"`
	Content       string `json:"content"`
	CaseSensitive bool   `json:"case_sensitive"`
	IsBinary      bool   `json:"is_binary,omitempty"`
	IsEncrypted   bool   `json:"is_encrypted,omitempty"`
}

// PushResponse confirms an accepted push.
type PushResponse struct {
	OK       string `json:"ok"`
	Revision int64  `json:"revision,omitempty"`
}

// ErrorResponse is the uniform error shape.
type ErrorResponse struct {
	Error string `json:"error"`
}
