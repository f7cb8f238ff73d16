// Package encoding packs staged-edit state for a round trip through the
// client. Entries are msgpack-marshaled and either HMAC-signed (visible but
// tamper-proof) or AES-256-GCM encrypted (fully opaque).
package encoding

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec errors, wrapped into package-level sentinels by the root package.
var (
	ErrInvalidFormat    = errors.New("encoding: invalid format")
	ErrSignatureInvalid = errors.New("encoding: signature verification failed")
	ErrDecryptFailed    = errors.New("encoding: decryption failed")
)

// Encoder handles encoding and decoding of staged-edit state.
type Encoder struct {
	key []byte
	gcm cipher.AEAD
}

// NewEncoder creates an encoder from key. Keys shorter than 32 bytes are
// stretched through SHA-256 to fit AES-256.
func NewEncoder(key []byte) (*Encoder, error) {
	if len(key) < 32 {
		h := sha256.Sum256(key)
		key = h[:]
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Encoder{key: key, gcm: gcm}, nil
}

// Encode serializes a path→value entry map. If sensitive is true the data
// is encrypted; otherwise it is signed.
func (e *Encoder) Encode(entries map[string]any, sensitive bool) (string, error) {
	packed, err := msgpack.Marshal(entries)
	if err != nil {
		return "", err
	}
	if sensitive {
		return e.encrypt(packed)
	}
	return e.sign(packed)
}

// Decode deserializes an encoded entry map. If sensitive is true the data
// is decrypted; otherwise its signature is verified.
func (e *Encoder) Decode(encoded string, sensitive bool) (map[string]any, error) {
	var packed []byte
	var err error
	if sensitive {
		packed, err = e.decrypt(encoded)
	} else {
		packed, err = e.verify(encoded)
	}
	if err != nil {
		return nil, err
	}

	var entries map[string]any
	if err := msgpack.Unmarshal(packed, &entries); err != nil {
		return nil, ErrInvalidFormat
	}
	return entries, nil
}

// sign creates a signed (but visible) encoding: base64.signature
func (e *Encoder) sign(data []byte) (string, error) {
	b64 := base64.RawURLEncoding.EncodeToString(data)
	mac := hmac.New(sha256.New, e.key)
	mac.Write(data)
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil)[:16]) // 16 bytes = 128 bits
	return b64 + "." + sig, nil
}

// verify verifies and decodes a signed string
func (e *Encoder) verify(encoded string) ([]byte, error) {
	parts := strings.SplitN(encoded, ".", 2)
	if len(parts) != 2 {
		return nil, ErrInvalidFormat
	}

	data, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, ErrInvalidFormat
	}

	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, ErrInvalidFormat
	}

	mac := hmac.New(sha256.New, e.key)
	mac.Write(data)
	expected := mac.Sum(nil)[:16]

	if !hmac.Equal(sig, expected) {
		return nil, ErrSignatureInvalid
	}

	return data, nil
}

// encrypt creates an encrypted encoding using AES-256-GCM
func (e *Encoder) encrypt(data []byte) (string, error) {
	nonce := make([]byte, e.gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ciphertext := e.gcm.Seal(nonce, nonce, data, nil)
	return base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

// decrypt decodes and decrypts an encrypted string
func (e *Encoder) decrypt(encoded string) ([]byte, error) {
	ciphertext, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidFormat
	}

	if len(ciphertext) < e.gcm.NonceSize() {
		return nil, ErrInvalidFormat
	}

	nonce := ciphertext[:e.gcm.NonceSize()]
	ciphertext = ciphertext[e.gcm.NonceSize():]

	plain, err := e.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return plain, nil
}
