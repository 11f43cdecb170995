package krypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	return bytes.Repeat([]byte{0x42}, KeyLength)
}

func TestSealOpen_RoundTrip(t *testing.T) {
	key := testKey()
	plaintext := []byte("p@ssw0rd with spaces and ünicode")

	blob, err := Seal(key, plaintext, nil)
	require.NoError(t, err)
	require.Greater(t, len(blob), gcmNonceSize)

	got, err := Open(key, blob, nil)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestSealOpen_WithAAD(t *testing.T) {
	key := testKey()
	aad := []byte("record:42")

	blob, err := Seal(key, []byte("secret"), aad)
	require.NoError(t, err)

	got, err := Open(key, blob, aad)
	require.NoError(t, err)
	require.Equal(t, []byte("secret"), got)

	_, err = Open(key, blob, []byte("record:43"))
	require.ErrorIs(t, err, ErrAuthFailed)
}

func TestSeal_EmptyPlaintext(t *testing.T) {
	key := testKey()

	blob, err := Seal(key, nil, nil)
	require.NoError(t, err)

	got, err := Open(key, blob, nil)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestSeal_FreshNoncePerCall(t *testing.T) {
	key := testKey()

	blob1, err := Seal(key, []byte("same plaintext"), nil)
	require.NoError(t, err)
	blob2, err := Seal(key, []byte("same plaintext"), nil)
	require.NoError(t, err)

	require.NotEqual(t, blob1, blob2)
	require.NotEqual(t, blob1[:gcmNonceSize], blob2[:gcmNonceSize])
}

func TestOpen_WrongKey(t *testing.T) {
	blob, err := Seal(testKey(), []byte("secret"), nil)
	require.NoError(t, err)

	other := bytes.Repeat([]byte{0x43}, KeyLength)
	_, err = Open(other, blob, nil)
	require.ErrorIs(t, err, ErrAuthFailed)
}

func TestOpen_TamperedCiphertext(t *testing.T) {
	key := testKey()
	blob, err := Seal(key, []byte("secret"), nil)
	require.NoError(t, err)

	for _, pos := range []int{0, gcmNonceSize, len(blob) - 1} {
		tampered := bytes.Clone(blob)
		tampered[pos] ^= 0x01
		_, err := Open(key, tampered, nil)
		require.ErrorIs(t, err, ErrAuthFailed, "flipped bit at %d must not authenticate", pos)
	}
}

func TestOpen_TruncatedBlob(t *testing.T) {
	key := testKey()

	for _, blob := range [][]byte{nil, {}, make([]byte, gcmNonceSize-1)} {
		_, err := Open(key, blob, nil)
		require.ErrorIs(t, err, ErrAuthFailed)
	}
}

func TestSealOpen_KeySize(t *testing.T) {
	short := make([]byte, 16)

	_, err := Seal(short, []byte("x"), nil)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = Open(short, make([]byte, 32), nil)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestConstantTimeCompare(t *testing.T) {
	require.True(t, ConstantTimeCompare([]byte("abc"), []byte("abc")))
	require.False(t, ConstantTimeCompare([]byte("abc"), []byte("abd")))
	require.False(t, ConstantTimeCompare([]byte("abc"), []byte("abcd")))
}
