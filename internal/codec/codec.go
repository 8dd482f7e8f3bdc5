// Package codec implements the two encrypted transports used to exchange
// mandate data: the legacy fixed key/IV scheme carried in query strings, and
// the authenticated scheme used by the external API. Both encrypt a flat
// query-string Payload.
package codec

import (
	"fmt"
	"strings"

	apperrors "emandate/internal/errors"
)

// Version names a wire scheme. Callers pick the version by channel.
type Version string

const (
	// VersionLegacy is AES-128-CBC, base64, percent-encoded. No integrity.
	VersionLegacy Version = "v1"
	// VersionAuthenticated is HMAC-SHA384 || IV || AES-256-GCM, upper-case hex.
	VersionAuthenticated Version = "v2"
)

// Codec encrypts and decrypts a plaintext string to and from its wire form.
type Codec interface {
	Version() Version
	Encrypt(plaintext string) (string, error)
	Decrypt(wire string) (string, error)
}

// Registry holds one Codec per Version.
type Registry struct {
	codecs map[Version]Codec
}

func NewRegistry(codecs ...Codec) *Registry {
	r := &Registry{codecs: make(map[Version]Codec, len(codecs))}
	for _, c := range codecs {
		r.codecs[c.Version()] = c
	}
	return r
}

func (r *Registry) Codec(v Version) (Codec, error) {
	c, ok := r.codecs[v]
	if !ok {
		return nil, fmt.Errorf("codec %q is not registered", v)
	}
	return c, nil
}

// Encode serializes payload as a query string and encrypts it with v.
func (r *Registry) Encode(v Version, payload *Payload) (string, error) {
	c, err := r.Codec(v)
	if err != nil {
		return "", err
	}
	return c.Encrypt(payload.EncodeQuery())
}

// Decode decrypts wire with v and parses the plaintext query string.
func (r *Registry) Decode(v Version, wire string) (*Payload, error) {
	if strings.TrimSpace(wire) == "" {
		return nil, apperrors.Validation("encrypted payload is required")
	}
	c, err := r.Codec(v)
	if err != nil {
		return nil, err
	}
	plaintext, err := c.Decrypt(wire)
	if err != nil {
		return nil, err
	}
	return DecodeQuery(plaintext)
}
