// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Authentication and client-state sentinels.
var (
	// ErrInvalidAPIKey indicates a bearer key of the wrong shape (not 40 lowercase hex).
	ErrInvalidAPIKey = errors.New("invalid api_key")

	// ErrUnknownClient indicates no client exists for the presented key.
	ErrUnknownClient = errors.New("unknown client")

	// ErrClientDisabled indicates the client exists but is currently disabled.
	ErrClientDisabled = errors.New("client disabled")

	// ErrBlacklisted indicates the client is blacklisted; this state never auto-clears.
	ErrBlacklisted = errors.New("client blacklisted")

	// ErrAlreadyRegistered indicates a register call for a name that is already enabled.
	ErrAlreadyRegistered = errors.New("already registered")

	// ErrRateLimited indicates temporary lockout of register attempts.
	ErrRateLimited = errors.New("rate limited")
)

// Catalog and revision store sentinels.
var (
	// ErrAlreadyTracked indicates an add for a (client, path) pair that exists.
	ErrAlreadyTracked = errors.New("already tracked")

	// ErrNotTracked indicates the (client, path) pair does not exist.
	ErrNotTracked = errors.New("not tracked")

	// ErrAmbiguous indicates more than one configuration matched one normalized
	// path; the uniqueness invariant should make this impossible, but it is
	// checked and reported rather than silently picking one row.
	ErrAmbiguous = errors.New("multiple configurations match")

	// ErrConfigDisabled indicates a push or fetch against a disabled configuration.
	ErrConfigDisabled = errors.New("configuration disabled")

	// ErrChecksumMismatch indicates the claimed digest does not match the content.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrStaleWrite indicates a push with mtime older than the stored revision.
	ErrStaleWrite = errors.New("stale write")

	// ErrSameAge indicates a push with mtime equal to the stored revision;
	// ordering is ambiguous, so the write is refused rather than overwriting.
	ErrSameAge = errors.New("same age")
)

// Payload sentinels.
var (
	// ErrEncoding indicates a payload that cannot be represented on the wire.
	ErrEncoding = errors.New("payload encoding")

	// ErrEncryption indicates the envelope cannot seal or open the payload.
	ErrEncryption = errors.New("encryption")
)
