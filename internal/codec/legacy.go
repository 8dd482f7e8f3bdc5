package codec

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	apperrors "emandate/internal/errors"
)

// Legacy is the fixed key/IV AES-128-CBC codec of the gateway redirect
// channel. It carries no integrity protection and is not replay safe; the
// gateway depends on this exact format.
type Legacy struct {
	block cipher.Block
	iv    []byte
}

// NewLegacy requires key and iv to be exactly 16 bytes each.
func NewLegacy(key, iv string) (*Legacy, error) {
	if len(key) != aes.BlockSize {
		return nil, fmt.Errorf("legacy codec key must be %d bytes, got %d", aes.BlockSize, len(key))
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("legacy codec iv must be %d bytes, got %d", aes.BlockSize, len(iv))
	}
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, err
	}
	return &Legacy{block: block, iv: []byte(iv)}, nil
}

func (l *Legacy) Version() Version {
	return VersionLegacy
}

// Encrypt: UTF-8 -> AES-CBC/PKCS#7 -> base64 -> percent-encode.
func (l *Legacy) Encrypt(plaintext string) (string, error) {
	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(l.block, l.iv).CryptBlocks(out, padded)
	return escapeComponent(base64.StdEncoding.EncodeToString(out)), nil
}

// Decrypt: percent-decode -> trim -> base64 -> AES-CBC/PKCS#7 -> UTF-8.
func (l *Legacy) Decrypt(wire string) (string, error) {
	unescaped, err := url.PathUnescape(wire)
	if err != nil {
		return "", apperrors.Decryption(err, "legacy payload is not percent-encoded")
	}
	// Form decoding upstream may have turned '+' into ' '; base64 never contains spaces.
	unescaped = strings.ReplaceAll(strings.TrimSpace(unescaped), " ", "+")

	raw, err := base64.StdEncoding.DecodeString(unescaped)
	if err != nil {
		return "", apperrors.Decryption(err, "legacy payload is not base64")
	}
	if len(raw) == 0 || len(raw)%aes.BlockSize != 0 {
		return "", apperrors.Decryption(nil, "legacy ciphertext length %d is not a multiple of %d", len(raw), aes.BlockSize)
	}

	out := make([]byte, len(raw))
	cipher.NewCBCDecrypter(l.block, l.iv).CryptBlocks(out, raw)
	plain, err := pkcs7Unpad(out, aes.BlockSize)
	if err != nil {
		return "", apperrors.Decryption(err, "legacy payload has invalid padding")
	}
	if !utf8.Valid(plain) {
		return "", apperrors.Decryption(nil, "legacy payload is not valid UTF-8")
	}
	return string(plain), nil
}

var errBadPadding = errors.New("bad pkcs7 padding")

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, errBadPadding
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errBadPadding
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errBadPadding
		}
	}
	return data[:len(data)-n], nil
}
