// Package envelope seals configuration content with a fixed symmetric key
// before transmission and opens it after retrieval. Sealed content is
// armored with a version-tagged prefix so sealing already-sealed content
// (or opening already-open content) is a no-op that returns the input
// unchanged. Content digests are always computed over the pre-seal
// plaintext, so the envelope never changes what counts as "the same
// content". Binary content reaches Seal in its wire form (base64 text),
// which makes one armor path serve text and binary alike.
package envelope

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/jonmsawyer/cmdb/internal/errs"
)

// KeyLen is the required symmetric key length in bytes.
const KeyLen = chacha20poly1305.KeySize

// prefix tags sealed content on the wire and in storage.
const prefix = "cmdb-enc-v1:"

// Envelope seals and opens content with XChaCha20-Poly1305.
type Envelope struct {
	key []byte
}

// New builds an envelope from a raw 32-byte key.
func New(key []byte) (*Envelope, error) {
	if len(key) != KeyLen {
		return nil, fmt.Errorf("key must be %d bytes: %w", KeyLen, errs.ErrEncryption)
	}
	return &Envelope{key: append([]byte(nil), key...)}, nil
}

// FromString builds an envelope from a 32-character ASCII key string, the
// shape carried in the agent config file. An empty key yields a nil
// envelope, meaning encryption is not configured.
func FromString(key string) (*Envelope, error) {
	if key == "" {
		return nil, nil
	}
	if len(key) != KeyLen {
		return nil, fmt.Errorf("key must be a %d character ascii string: %w", KeyLen, errs.ErrEncryption)
	}
	return New([]byte(key))
}

// Sealed reports whether content is already in the sealed state.
func Sealed(content string) bool { return strings.HasPrefix(content, prefix) }

// Seal encrypts content. Already-sealed content is returned unchanged.
func (e *Envelope) Seal(content string) (string, error) {
	if e == nil {
		return "", fmt.Errorf("no key configured: %w", errs.ErrEncryption)
	}
	if Sealed(content) {
		return content, nil
	}
	aead, err := chacha20poly1305.NewX(e.key)
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, errs.ErrEncryption)
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("%v: %w", err, errs.ErrEncryption)
	}
	out := make([]byte, 0, len(nonce)+len(content)+aead.Overhead())
	out = append(out, nonce...)
	out = append(out, aead.Seal(nil, nonce, []byte(content), nil)...)
	return prefix + base64.RawURLEncoding.EncodeToString(out), nil
}

// Open decrypts sealed content. Already-open content is returned unchanged.
func (e *Envelope) Open(content string) (string, error) {
	if e == nil {
		return "", fmt.Errorf("no key configured: %w", errs.ErrEncryption)
	}
	if !Sealed(content) {
		return content, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(content, prefix))
	if err != nil {
		return "", fmt.Errorf("bad armor: %w", errs.ErrEncryption)
	}
	if len(raw) < chacha20poly1305.NonceSizeX {
		return "", fmt.Errorf("sealed content too short: %w", errs.ErrEncryption)
	}
	aead, err := chacha20poly1305.NewX(e.key)
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, errs.ErrEncryption)
	}
	nonce, ct := raw[:chacha20poly1305.NonceSizeX], raw[chacha20poly1305.NonceSizeX:]
	pt, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("open: %w", errs.ErrEncryption)
	}
	return string(pt), nil
}
