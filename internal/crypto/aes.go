package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrKeyVersion = errors.New("key version not found")

// KeyRing holds the AES-256 keys by version and the version used for new data.
type KeyRing struct {
	keys    map[string][]byte
	current string
}

// NewKeyRing parses DATA_ENCRYPTION_KEYS ("v1:base64,v2:base64") and checks that current exists.
func NewKeyRing(env, current string) (*KeyRing, error) {
	keys, err := ParseKeysEnv(env)
	if err != nil {
		return nil, err
	}
	if current == "" {
		current = "v1"
	}
	if _, ok := keys[current]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyVersion, current)
	}
	return &KeyRing{keys: keys, current: current}, nil
}

// Seal encrypts with the current key and returns the version it used.
func (k *KeyRing) Seal(plaintext []byte) (ciphertext, nonce []byte, version string, err error) {
	ciphertext, nonce, err = Encrypt(plaintext, k.current, k.keys)
	return ciphertext, nonce, k.current, err
}

// Open decrypts data sealed with any known key version.
func (k *KeyRing) Open(ciphertext, nonce []byte, version string) ([]byte, error) {
	return Decrypt(ciphertext, nonce, version, k.keys)
}

func Encrypt(plaintext []byte, keyVersion string, keysMap map[string][]byte) (ciphertext, nonce []byte, err error) {
	gcm, err := gcmFor(keyVersion, keysMap)
	if err != nil {
		return nil, nil, err
	}
	nonce = make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, err
	}
	return gcm.Seal(nil, nonce, plaintext, nil), nonce, nil
}

func Decrypt(ciphertext, nonce []byte, keyVersion string, keysMap map[string][]byte) ([]byte, error) {
	gcm, err := gcmFor(keyVersion, keysMap)
	if err != nil {
		return nil, err
	}
	return gcm.Open(nil, nonce, ciphertext, nil)
}

func gcmFor(keyVersion string, keysMap map[string][]byte) (cipher.AEAD, error) {
	key, ok := keysMap[keyVersion]
	if !ok {
		return nil, ErrKeyVersion
	}
	if len(key) != 32 {
		return nil, errors.New("key must be 32 bytes")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func ParseKeysEnv(env string) (map[string][]byte, error) {
	out := make(map[string][]byte)
	for _, part := range strings.Split(env, ",") {
		part = strings.TrimSpace(part)
		ver, b64, ok := strings.Cut(part, ":")
		if !ok || strings.TrimSpace(ver) == "" {
			continue
		}
		key, err := decodeKey(strings.TrimSpace(b64))
		if err != nil {
			return nil, err
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("key must be 32 bytes for AES-256 (got %d)", len(key))
		}
		out[strings.TrimSpace(ver)] = key
	}
	return out, nil
}

// decodeKey aceita base64 com ou sem padding (43 ou 44 chars para 32 bytes).
func decodeKey(b64 string) ([]byte, error) {
	if len(b64) == 44 && strings.HasSuffix(b64, "=") {
		b64 = b64[:43]
	}
	if len(b64)%4 != 0 {
		return base64.RawStdEncoding.DecodeString(b64)
	}
	return base64.StdEncoding.DecodeString(b64)
}
