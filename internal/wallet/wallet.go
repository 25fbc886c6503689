// Package wallet provides the signing identity each agent uses when
// submitting commitments and reveals, grounded on the reference's
// clob/signing (crypto.Sign/crypto.HexToECDSA) and
// internal/controlplane/server (hdwallet mnemonic derivation) code.
package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"

	"github.com/Belloabraham121/privbatch/pkg/secretstore"
)

// Signer is the identity surface an agent needs: its address, a
// monotonically increasing nonce source, and raw message signing.
// SwapIntent/commitment hashing lives in the domain package; Signer only
// produces the bytes that go over the wire.
type Signer interface {
	Address() common.Address
	NextNonce() uint64
	Sign(hash [32]byte) ([]byte, error)
}

// HDWallet derives a single signing key from a BIP-39 mnemonic. It is a
// development/test identity, not a production key-management story —
// the reference's own deriveWalletFromMnemonic serves the same narrow
// purpose (control-plane convenience endpoint, not a custody system).
type HDWallet struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	nonce      atomic.Uint64
}

// NewHDWallet derives the account at derivationPath from mnemonic.
func NewHDWallet(mnemonic, derivationPath string) (*HDWallet, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	derivationPath = strings.TrimSpace(derivationPath)
	if mnemonic == "" {
		return nil, fmt.Errorf("mnemonic is required")
	}
	if derivationPath == "" {
		derivationPath = "m/44'/60'/0'/0/0"
	}

	w, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("invalid mnemonic: %w", err)
	}

	path, err := hdwallet.ParseDerivationPath(derivationPath)
	if err != nil {
		return nil, fmt.Errorf("invalid derivation path: %w", err)
	}

	account, err := w.Derive(path, false)
	if err != nil {
		return nil, fmt.Errorf("derive failed: %w", err)
	}

	pkHex, err := w.PrivateKeyHex(account)
	if err != nil {
		return nil, fmt.Errorf("private key extraction failed: %w", err)
	}

	return NewHDWalletFromPrivateKeyHex(pkHex)
}

// NewHDWalletFromPrivateKeyHex builds a signer directly from a hex-encoded
// private key, bypassing mnemonic derivation (used by tests and by
// single-key deployments).
func NewHDWalletFromPrivateKeyHex(hexKey string) (*HDWallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &HDWallet{
		privateKey: key,
		address:    crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// NewHDWalletFromEncryptedFile loads a mnemonic written by
// cmd/mnemonic-init (base64(nonce||AES-GCM ciphertext)) and derives a
// signer from it. masterKeyRaw is parsed the same way secretstore.ParseKey
// parses PRIVBATCH_MASTER_KEY: base64 or hex, 32 bytes.
func NewHDWalletFromEncryptedFile(path, derivationPath, masterKeyRaw string) (*HDWallet, error) {
	masterKey, err := secretstore.ParseKey(masterKeyRaw)
	if err != nil {
		return nil, fmt.Errorf("wallet: master key: %w", err)
	}
	if len(masterKey) != 32 {
		return nil, fmt.Errorf("wallet: master key must be 32 bytes")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wallet: read encrypted mnemonic: %w", err)
	}

	mnemonic, err := decryptMnemonic(masterKey, strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("wallet: decrypt mnemonic: %w", err)
	}
	return NewHDWallet(mnemonic, derivationPath)
}

func decryptMnemonic(masterKey []byte, encoded string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("invalid base64: %w", err)
	}
	block, err := aes.NewCipher(masterKey)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	if len(blob) < gcm.NonceSize() {
		return "", fmt.Errorf("ciphertext too short")
	}
	nonce, ct := blob[:gcm.NonceSize()], blob[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func (w *HDWallet) Address() common.Address { return w.address }

// NextNonce hands out sequential nonces starting at zero. The hook client
// is responsible for reconciling this against on-chain state; this is a
// local monotonic counter only, matching the role of a simple client-side
// nonce tracker rather than a full transaction manager.
func (w *HDWallet) NextNonce() uint64 { return w.nonce.Add(1) - 1 }

// Sign produces a 65-byte r||s||v signature over hash, the same encoding
// crypto.Sign/ECDSA recovery expects on-chain.
func (w *HDWallet) Sign(hash [32]byte) ([]byte, error) {
	sig, err := crypto.Sign(hash[:], w.privateKey)
	if err != nil {
		return nil, fmt.Errorf("sign failed: %w", err)
	}
	return sig, nil
}
