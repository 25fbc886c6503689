package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMnemonic = "test test test test test test test test test test test junk"

func encryptForTest(t *testing.T, masterKey []byte, plaintext string) string {
	t.Helper()
	block, err := aes.NewCipher(masterKey)
	require.NoError(t, err)
	gcm, err := cipher.NewGCM(block)
	require.NoError(t, err)
	nonce := make([]byte, gcm.NonceSize())
	_, err = io.ReadFull(rand.Reader, nonce)
	require.NoError(t, err)
	ct := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(append(nonce, ct...))
}

func TestNewHDWalletFromEncryptedFile_RoundTrip(t *testing.T) {
	masterKey := make([]byte, 32)
	for i := range masterKey {
		masterKey[i] = byte(i)
	}
	masterKeyRaw := base64.StdEncoding.EncodeToString(masterKey)

	enc := encryptForTest(t, masterKey, testMnemonic)
	path := filepath.Join(t.TempDir(), "mnemonic.enc")
	require.NoError(t, os.WriteFile(path, []byte(enc+"\n"), 0o600))

	w, err := NewHDWalletFromEncryptedFile(path, "", masterKeyRaw)
	require.NoError(t, err)

	want, err := NewHDWallet(testMnemonic, "")
	require.NoError(t, err)
	assert.Equal(t, want.Address(), w.Address())
}

func TestNewHDWalletFromEncryptedFile_WrongKeyFails(t *testing.T) {
	masterKey := make([]byte, 32)
	wrongKey := make([]byte, 32)
	wrongKey[0] = 1

	enc := encryptForTest(t, masterKey, testMnemonic)
	path := filepath.Join(t.TempDir(), "mnemonic.enc")
	require.NoError(t, os.WriteFile(path, []byte(enc+"\n"), 0o600))

	_, err := NewHDWalletFromEncryptedFile(path, "", base64.StdEncoding.EncodeToString(wrongKey))
	assert.Error(t, err)
}

func TestNewHDWalletFromEncryptedFile_MissingFileFails(t *testing.T) {
	masterKey := make([]byte, 32)
	_, err := NewHDWalletFromEncryptedFile("/nonexistent/path", "", base64.StdEncoding.EncodeToString(masterKey))
	assert.Error(t, err)
}

func TestHDWallet_SignAndNonce(t *testing.T) {
	w, err := NewHDWallet(testMnemonic, "")
	require.NoError(t, err)

	var hash [32]byte
	hash[0] = 0xAB
	sig, err := w.Sign(hash)
	require.NoError(t, err)
	assert.Len(t, sig, 65)

	n1 := w.NextNonce()
	n2 := w.NextNonce()
	assert.Equal(t, n1+1, n2)
}
