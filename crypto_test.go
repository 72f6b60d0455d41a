package kvpool_test

import (
	"testing"

	"github.com/AndrewDonelson/kvpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func encryptors(t *testing.T) map[string]kvpool.Encryptor {
	t.Helper()
	gcm, err := kvpool.NewAES256GCM(testKey())
	require.NoError(t, err)
	xc, err := kvpool.NewXChaCha20Poly1305(testKey())
	require.NoError(t, err)
	return map[string]kvpool.Encryptor{"aes-gcm": gcm, "xchacha20": xc}
}

func TestEncryptor_RoundTrip(t *testing.T) {
	for name, enc := range encryptors(t) {
		t.Run(name, func(t *testing.T) {
			plain := []byte("Hello, kvpool!")
			sealed, err := enc.Encrypt(plain)
			require.NoError(t, err)
			assert.NotEqual(t, plain, sealed)

			opened, err := enc.Decrypt(sealed)
			require.NoError(t, err)
			assert.Equal(t, plain, opened)
		})
	}
}

func TestEncryptor_NoncesDiffer(t *testing.T) {
	for name, enc := range encryptors(t) {
		t.Run(name, func(t *testing.T) {
			a, err := enc.Encrypt([]byte("same"))
			require.NoError(t, err)
			b, err := enc.Encrypt([]byte("same"))
			require.NoError(t, err)
			assert.NotEqual(t, a, b)
		})
	}
}

func TestEncryptor_TamperDetection(t *testing.T) {
	for name, enc := range encryptors(t) {
		t.Run(name, func(t *testing.T) {
			sealed, err := enc.Encrypt([]byte("secret"))
			require.NoError(t, err)
			sealed[len(sealed)-1] ^= 0xFF
			_, err = enc.Decrypt(sealed)
			assert.Error(t, err)

			_, err = enc.Decrypt([]byte("short"))
			assert.Error(t, err)
		})
	}
}

func TestEncryptor_InvalidKeyLength(t *testing.T) {
	_, err := kvpool.NewAES256GCM([]byte("short"))
	assert.Error(t, err)
	_, err = kvpool.NewXChaCha20Poly1305([]byte("short"))
	assert.Error(t, err)
}
