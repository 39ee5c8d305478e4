// Package keyring stores the API key encrypted at rest under the config
// directory, sealed with a passphrase-derived key.
package keyring

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const keyFileName = "key.enc"

// Current on-disk blob format version.
const formatVersion = 1

var (
	// ErrWrongPassphrase is returned when the passphrase is incorrect or the
	// stored blob has been modified.
	ErrWrongPassphrase = errors.New("wrong passphrase or corrupted key file")
	// ErrNoKey is returned when no key has been stored yet.
	ErrNoKey = errors.New("no API key stored")
)

// blob is the on-disk JSON structure holding the ciphertext and KDF parameters.
type blob struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	N      int    `json:"scrypt_N"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Cipher []byte `json:"cipher"`
}

// Tunables for scrypt key derivation.
func scryptParamsDefault() (N, r, p int) { return 1 << 15, 8, 1 }

// Path returns the key file location under dir.
func Path(dir string) string { return filepath.Join(dir, keyFileName) }

// Exists reports whether an encrypted key is stored under dir.
func Exists(dir string) bool {
	_, err := os.Stat(Path(dir))
	return err == nil
}

// Set seals apiKey with the passphrase and writes it under dir with 0600.
func Set(dir, passphrase, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return errors.New("API key is empty")
	}
	if passphrase == "" {
		return errors.New("passphrase is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	N, r, p := scryptParamsDefault()
	data, err := seal(passphrase, []byte(apiKey), N, r, p)
	if err != nil {
		return fmt.Errorf("seal API key: %w", err)
	}
	if err := os.WriteFile(Path(dir), data, 0o600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	return nil
}

// Get opens the stored key with the passphrase.
func Get(dir, passphrase string) (string, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoKey
		}
		return "", fmt.Errorf("read key file: %w", err)
	}
	raw, err := open(passphrase, data)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Remove deletes the stored key.
func Remove(dir string) error {
	err := os.Remove(Path(dir))
	if os.IsNotExist(err) {
		return ErrNoKey
	}
	return err
}

// seal derives a key from passphrase and seals raw into a JSON blob.
func seal(passphrase string, raw []byte, N, r, p int) ([]byte, error) {
	var salt [16]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, err
	}
	key, err := scrypt.Key([]byte(passphrase), salt[:], N, r, p, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	var nonce [12]byte // zero nonce; salt-bound key guarantees uniqueness
	ct := aead.Seal(nil, nonce[:], raw, salt[:])

	return json.Marshal(blob{
		V:      formatVersion,
		Salt:   salt[:],
		N:      N,
		R:      r,
		P:      p,
		Cipher: ct,
	})
}

// open decrypts the JSON blob using a key derived from passphrase.
func open(passphrase string, b []byte) ([]byte, error) {
	var bl blob
	if err := json.Unmarshal(b, &bl); err != nil {
		return nil, ErrWrongPassphrase
	}
	if bl.V > formatVersion {
		return nil, fmt.Errorf("unsupported key file version %d", bl.V)
	}
	key, err := scrypt.Key([]byte(passphrase), bl.Salt, bl.N, bl.R, bl.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	var nonce [12]byte
	pt, err := aead.Open(nil, nonce[:], bl.Cipher, bl.Salt)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}
