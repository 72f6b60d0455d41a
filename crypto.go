// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// crypto.go — optional payload sealing. When Config.Encryptor is set every
// stored value (scalar payloads and hash field values, never keys or field
// names) is sealed before it is written and opened after it is read.

package kvpool

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// Encryptor seals and opens stored payloads.
type Encryptor interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// aead seals with a random nonce prepended to the ciphertext.
type aead struct {
	c cipher.AEAD
}

func (a aead) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, a.c.NonceSize(), a.c.NonceSize()+len(plaintext)+a.c.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return a.c.Seal(nonce, nonce, plaintext, nil), nil
}

func (a aead) Decrypt(ciphertext []byte) ([]byte, error) {
	n := a.c.NonceSize()
	if len(ciphertext) < n+a.c.Overhead() {
		return nil, fmt.Errorf("kvpool: ciphertext too short")
	}
	return a.c.Open(nil, ciphertext[:n], ciphertext[n:], nil)
}

// NewAES256GCM creates an AES-256-GCM Encryptor from a 32-byte key.
// Output layout: nonce (12 bytes) || ciphertext || tag.
func NewAES256GCM(key []byte) (Encryptor, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("kvpool: encryption key must be exactly 32 bytes (got %d)", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return aead{c: gcm}, nil
}

// NewXChaCha20Poly1305 creates an XChaCha20-Poly1305 Encryptor from a
// 32-byte key. Its 24-byte nonces are safe to draw at random for any
// number of writes.
func NewXChaCha20Poly1305(key []byte) (Encryptor, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("kvpool: encryption key must be exactly %d bytes (got %d)", chacha20poly1305.KeySize, len(key))
	}
	c, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return aead{c: c}, nil
}
