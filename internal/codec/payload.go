package codec

import (
	"net/url"
	"strings"

	apperrors "emandate/internal/errors"
)

// nullLiteral is how a null value travels inside a query string.
const nullLiteral = "null"

// Payload is an ordered, flat key/value map whose values may be null.
type Payload struct {
	keys   []string
	values map[string]*string
}

func NewPayload() *Payload {
	return &Payload{values: make(map[string]*string)}
}

func (p *Payload) put(key string, value *string) *Payload {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
	return p
}

func (p *Payload) Set(key, value string) *Payload {
	return p.put(key, &value)
}

func (p *Payload) SetNull(key string) *Payload {
	return p.put(key, nil)
}

// SetPtr stores *value, or null when value is nil.
func (p *Payload) SetPtr(key string, value *string) *Payload {
	if value == nil {
		return p.SetNull(key)
	}
	return p.Set(key, *value)
}

// Lookup returns the value for key and whether the key is present. A present
// key with a nil value is null.
func (p *Payload) Lookup(key string) (*string, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Get returns the value for key, or "" when absent or null.
func (p *Payload) Get(key string) string {
	if v := p.values[key]; v != nil {
		return *v
	}
	return ""
}

func (p *Payload) Delete(key string) {
	if _, ok := p.values[key]; !ok {
		return
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (p *Payload) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

func (p *Payload) Len() int {
	return len(p.keys)
}

// EncodeQuery renders key=value pairs joined by '&'. Keys and values are
// percent-encoded; null values are written as the literal "null".
func (p *Payload) EncodeQuery() string {
	var b strings.Builder
	for i, k := range p.keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escapeComponent(k))
		b.WriteByte('=')
		if v := p.values[k]; v != nil {
			b.WriteString(escapeComponent(*v))
		} else {
			b.WriteString(nullLiteral)
		}
	}
	return b.String()
}

// DecodeQuery parses the output of EncodeQuery. The literal "null" decodes
// back to a null value.
func DecodeQuery(s string) (*Payload, error) {
	p := NewPayload()
	if s == "" {
		return p, nil
	}
	for _, pair := range strings.Split(s, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.PathUnescape(rawKey)
		if err != nil {
			return nil, apperrors.Decryption(err, "malformed payload key %q", rawKey)
		}
		if rawValue == nullLiteral {
			p.SetNull(key)
			continue
		}
		value, err := url.PathUnescape(rawValue)
		if err != nil {
			return nil, apperrors.Decryption(err, "malformed payload value for %q", key)
		}
		p.Set(key, value)
	}
	return p, nil
}

const upperhex = "0123456789ABCDEF"

// escapeComponent percent-encodes everything except the characters
// encodeURIComponent leaves alone: A-Z a-z 0-9 - _ . ! ~ * ' ( )
func escapeComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
