package checksum

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jonmsawyer/cmdb/internal/errs"
)

func TestBytes_KnownVectors(t *testing.T) {
	require.Equal(t, "da39a3ee5e6b4b0d3255bfef95601890afd80709", Bytes(nil))
	require.Equal(t, "a9993e364706816aba3e25717850c26c9cd0d89d", Bytes([]byte("abc")))
}

func TestText_MatchesBytes(t *testing.T) {
	d, err := Text("a=1")
	require.NoError(t, err)
	require.Equal(t, Bytes([]byte("a=1")), d)
	require.Len(t, d, HexLen)
}

func TestText_InvalidUTF8(t *testing.T) {
	_, err := Text(string([]byte{0xff, 0xfe}))
	require.ErrorIs(t, err, errs.ErrEncoding)
}

func TestPayload_Binary(t *testing.T) {
	raw := []byte{0x00, 0x01, 0xff}
	d, err := Payload(base64.StdEncoding.EncodeToString(raw), true)
	require.NoError(t, err)
	require.Equal(t, Bytes(raw), d)
}

func TestPayload_BadBase64(t *testing.T) {
	_, err := Payload("not base64!!", true)
	require.ErrorIs(t, err, errs.ErrEncoding)
}

func TestValid(t *testing.T) {
	require.True(t, Valid(Bytes([]byte("x"))))
	require.False(t, Valid(""))
	require.False(t, Valid("short"))
	// uppercase hex is not a valid digest on this wire
	require.False(t, Valid("DA39A3EE5E6B4B0D3255BFEF95601890AFD80709"))
	require.False(t, Valid("zz39a3ee5e6b4b0d3255bfef95601890afd80709"))
}
