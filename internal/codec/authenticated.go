package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	apperrors "emandate/internal/errors"
)

const (
	hmacSize  = sha512.Size384
	nonceSize = 12
	gcmTag    = 16
)

// Authenticated is the external API codec. Wire format, hex encoded in
// upper case:
//
//	HMAC-SHA384(hmacKey, IV || CT) (48) || IV (12) || CT
//
// where CT is the AES-256-GCM ciphertext with its 16 byte tag appended.
type Authenticated struct {
	aead    cipher.AEAD
	hmacKey []byte
	rand    io.Reader
}

// NewAuthenticated takes base64 encoded keys; the AES key must decode to 32 bytes.
func NewAuthenticated(aesKeyB64, hmacKeyB64 string) (*Authenticated, error) {
	aesKey, err := base64.StdEncoding.DecodeString(aesKeyB64)
	if err != nil {
		return nil, fmt.Errorf("decode aes key: %w", err)
	}
	if len(aesKey) != 32 {
		return nil, fmt.Errorf("aes key must be 32 bytes, got %d", len(aesKey))
	}
	hmacKey, err := base64.StdEncoding.DecodeString(hmacKeyB64)
	if err != nil {
		return nil, fmt.Errorf("decode hmac key: %w", err)
	}
	if len(hmacKey) == 0 {
		return nil, fmt.Errorf("hmac key is required")
	}

	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, err
	}
	return &Authenticated{aead: aead, hmacKey: hmacKey, rand: rand.Reader}, nil
}

func (a *Authenticated) Version() Version {
	return VersionAuthenticated
}

func (a *Authenticated) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(a.rand, nonce); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}
	ciphertext := a.aead.Seal(nil, nonce, []byte(plaintext), nil)

	out := make([]byte, 0, hmacSize+nonceSize+len(ciphertext))
	out = append(out, a.sign(nonce, ciphertext)...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return strings.ToUpper(hex.EncodeToString(out)), nil
}

// Decrypt verifies the HMAC before touching the cipher. A mismatch fails
// with an integrity error and nothing is decrypted.
func (a *Authenticated) Decrypt(wire string) (string, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(wire))
	if err != nil {
		return "", apperrors.Decryption(err, "authenticated payload is not hex")
	}
	if len(raw) < hmacSize+nonceSize+gcmTag {
		return "", apperrors.Decryption(nil, "authenticated payload too short: %d bytes", len(raw))
	}

	tag, body := raw[:hmacSize], raw[hmacSize:]
	nonce, ciphertext := body[:nonceSize], body[nonceSize:]
	if !hmac.Equal(tag, a.sign(nonce, ciphertext)) {
		return "", apperrors.Integrity("authenticated payload failed HMAC verification")
	}

	plain, err := a.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", apperrors.Decryption(err, "authenticated payload could not be decrypted")
	}
	return string(plain), nil
}

func (a *Authenticated) sign(nonce, ciphertext []byte) []byte {
	mac := hmac.New(sha512.New384, a.hmacKey)
	mac.Write(nonce)
	mac.Write(ciphertext)
	return mac.Sum(nil)
}
