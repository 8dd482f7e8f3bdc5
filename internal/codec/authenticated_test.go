package codec

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	apperrors "emandate/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testAESKey  = base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	testHMACKey = base64.StdEncoding.EncodeToString([]byte("an-hmac-key-that-is-long-enough-for-sha384"))
)

func newTestAuthenticated(t *testing.T) *Authenticated {
	t.Helper()
	a, err := NewAuthenticated(testAESKey, testHMACKey)
	require.NoError(t, err)
	return a
}

func TestNewAuthenticated_RejectsBadKeys(t *testing.T) {
	_, err := NewAuthenticated("not base64!", testHMACKey)
	assert.Error(t, err)

	_, err = NewAuthenticated(base64.StdEncoding.EncodeToString([]byte("16-byte-aes-key!")), testHMACKey)
	assert.Error(t, err)

	_, err = NewAuthenticated(testAESKey, "")
	assert.Error(t, err)
}

func TestAuthenticated_RoundTrip(t *testing.T) {
	a := newTestAuthenticated(t)

	for _, in := range []string{"", "merchant_id=12&payment_amount=5000", "émandate ✓ 日本語", strings.Repeat("z", 4096)} {
		wire, err := a.Encrypt(in)
		require.NoError(t, err)
		assert.Equal(t, strings.ToUpper(wire), wire)

		out, err := a.Decrypt(wire)
		require.NoError(t, err)
		assert.Equal(t, in, out)

		// Lower-case hex from lenient callers decodes too.
		out, err = a.Decrypt(strings.ToLower(wire))
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

func TestAuthenticated_WireLayout(t *testing.T) {
	a := newTestAuthenticated(t)
	plaintext := "merchant_id=1&payment_amount=100"

	wire, err := a.Encrypt(plaintext)
	require.NoError(t, err)
	raw, err := hex.DecodeString(wire)
	require.NoError(t, err)

	// 48 byte HMAC, 12 byte IV, ciphertext the size of the plaintext plus the 16 byte GCM tag.
	require.Len(t, raw, 48+12+len(plaintext)+16)

	hmacKey, _ := base64.StdEncoding.DecodeString(testHMACKey)
	mac := hmac.New(sha512.New384, hmacKey)
	mac.Write(raw[48:])
	assert.Equal(t, mac.Sum(nil), raw[:48])
}

func TestAuthenticated_FreshIVPerMessage(t *testing.T) {
	a := newTestAuthenticated(t)
	first, err := a.Encrypt("same")
	require.NoError(t, err)
	second, err := a.Encrypt("same")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestAuthenticated_TamperDetection(t *testing.T) {
	a := newTestAuthenticated(t)
	wire, err := a.Encrypt("merchant_id=7&payment_amount=5000")
	require.NoError(t, err)
	raw, err := hex.DecodeString(wire)
	require.NoError(t, err)

	for i := 0; i < len(raw); i++ {
		for bit := 0; bit < 8; bit++ {
			tampered := append([]byte(nil), raw...)
			tampered[i] ^= 1 << bit

			out, err := a.Decrypt(hex.EncodeToString(tampered))
			require.Error(t, err, "byte %d bit %d", i, bit)
			assert.ErrorIs(t, err, apperrors.ErrIntegrity, "byte %d bit %d", i, bit)
			assert.Empty(t, out)
		}
	}
}

func TestAuthenticated_MalformedInput(t *testing.T) {
	a := newTestAuthenticated(t)

	_, err := a.Decrypt("XYZ")
	assert.ErrorIs(t, err, apperrors.ErrDecryption)

	_, err = a.Decrypt(strings.Repeat("AB", 48+12))
	assert.ErrorIs(t, err, apperrors.ErrDecryption)
}

func TestAuthenticated_WrongHMACKeyIsIntegrityError(t *testing.T) {
	a := newTestAuthenticated(t)
	other, err := NewAuthenticated(testAESKey, base64.StdEncoding.EncodeToString([]byte("different")))
	require.NoError(t, err)

	wire, err := other.Encrypt("x=1")
	require.NoError(t, err)

	_, err = a.Decrypt(wire)
	assert.ErrorIs(t, err, apperrors.ErrIntegrity)
}
