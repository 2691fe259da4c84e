// Package checksum computes the content digests used for integrity checks
// and change detection. The wire contract fixes the digest at SHA-1
// rendered as 40 lowercase hex characters; the same shape is used for
// client API keys.
package checksum

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"unicode/utf8"

	"github.com/jonmsawyer/cmdb/internal/errs"
)

// HexLen is the length of a rendered digest (and of an API key).
const HexLen = 40

// Bytes returns the digest of raw bytes.
func Bytes(b []byte) string {
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}

// Text digests a text payload as its UTF-8 encoding. Text that is not
// valid UTF-8 cannot be represented on the wire and fails with ErrEncoding.
func Text(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("digest text: %w", errs.ErrEncoding)
	}
	return Bytes([]byte(s)), nil
}

// Payload digests wire content: text is digested as UTF-8, binary
// content arrives base64-encoded and is digested over the decoded bytes.
func Payload(content string, isBinary bool) (string, error) {
	if !isBinary {
		return Text(content)
	}
	raw, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return "", fmt.Errorf("digest binary: %w", errs.ErrEncoding)
	}
	return Bytes(raw), nil
}

// Valid reports whether s is a well-formed digest: exactly HexLen
// lowercase hex characters.
func Valid(s string) bool {
	if len(s) != HexLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
