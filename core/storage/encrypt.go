package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"os"
)

// getDEK retrieves the Data Encryption Key from the environment
// (base64-encoded, 32 bytes after decoding). Audit entries and cached views
// name patients and records, so the local store is encrypted at rest.
func getDEK() ([]byte, error) {
	dekB64 := os.Getenv("MEDVAULT_DEK")
	if dekB64 == "" {
		return nil, errors.New("MEDVAULT_DEK not set in environment")
	}
	dek, err := base64.StdEncoding.DecodeString(dekB64)
	if err != nil {
		return nil, errors.New("failed to decode MEDVAULT_DEK: " + err.Error())
	}
	if len(dek) != 32 {
		return nil, errors.New("MEDVAULT_DEK must be 32 bytes (base64-encoded)")
	}
	return dek, nil
}

func newGCM() (cipher.AEAD, error) {
	dek, err := getDEK()
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(dek)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext with AES-256-GCM under a random nonce. aad is
// authenticated but not encrypted; the store passes the record's key, which
// binds every ciphertext to the key it was written under. Audit rows and
// cached views cannot be swapped between keys on disk without failing
// authentication on read.
func Encrypt(plaintext, aad []byte) ([]byte, error) {
	gcm, err := newGCM()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, aad), nil
}

// Decrypt opens a ciphertext produced by Encrypt. The same aad must be
// supplied or authentication fails.
func Decrypt(ciphertext, aad []byte) ([]byte, error) {
	gcm, err := newGCM()
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}
	nonce, ct := ciphertext[:nonceSize], ciphertext[nonceSize:]
	return gcm.Open(nil, nonce, ct, aad)
}
