// Package keycrypto decrypts validator private keys stored in the key database
// and renders them in their canonical form.
package keycrypto

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	// SecretSize is the size of the deployment decryption secret.
	SecretSize = 32
	// NonceSize is the secretbox nonce size.
	NonceSize = 24
)

// ErrDecryption is returned for any failure to recover a private key.
var ErrDecryption = errors.New("decryption failed")

// Secret is the deployment-wide symmetric key protecting private keys at rest.
type Secret [SecretSize]byte

// ParseSecret parses a 32-byte secret encoded as hex (with or without 0x) or standard base64.
func ParseSecret(s string) (Secret, error) {
	var secret Secret

	s = strings.TrimSpace(s)
	if s == "" {
		return secret, fmt.Errorf("%w: empty secret", ErrDecryption)
	}

	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil || len(raw) != SecretSize {
		raw, err = base64.StdEncoding.DecodeString(s)
		if err != nil {
			return secret, fmt.Errorf("%w: secret is neither hex nor base64", ErrDecryption)
		}
	}

	if len(raw) != SecretSize {
		return secret, fmt.Errorf("%w: secret must be %d bytes, got %d", ErrDecryption, SecretSize, len(raw))
	}

	copy(secret[:], raw)
	return secret, nil
}

// Decrypt opens a secretbox sealed private key and parses the plaintext scalar.
//
// The plaintext is the decimal rendering of the key; a 0x-prefixed hex rendering
// is accepted too. Authentication failures, malformed nonces and plaintexts that
// are not a non-zero 256-bit integer all wrap ErrDecryption.
func Decrypt(ciphertext, nonce []byte, secret Secret) (*uint256.Int, error) {
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("%w: nonce must be %d bytes, got %d", ErrDecryption, NonceSize, len(nonce))
	}
	if len(ciphertext) < secretbox.Overhead {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrDecryption)
	}

	var n [NonceSize]byte
	copy(n[:], nonce)

	key := [SecretSize]byte(secret)
	plaintext, ok := secretbox.Open(nil, ciphertext, &n, &key)
	if !ok {
		return nil, fmt.Errorf("%w: message authentication failed", ErrDecryption)
	}

	scalar, err := parseScalar(string(plaintext))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryption, err)
	}

	return scalar, nil
}

// Encrypt seals the decimal rendering of scalar. It is the inverse of Decrypt.
func Encrypt(scalar *uint256.Int, secret Secret, random io.Reader) (ciphertext, nonce []byte, err error) {
	var n [NonceSize]byte
	if _, err := io.ReadFull(random, n[:]); err != nil {
		return nil, nil, fmt.Errorf("read nonce: %w", err)
	}

	key := [SecretSize]byte(secret)
	ciphertext = secretbox.Seal(nil, []byte(scalar.ToBig().String()), &n, &key)

	return ciphertext, n[:], nil
}

// Canonicalize renders scalar as 0x followed by 64 lowercase, zero padded hex digits.
// Every private key is stored and compared in this form.
func Canonicalize(scalar *uint256.Int) string {
	b := scalar.Bytes32()
	return "0x" + hex.EncodeToString(b[:])
}

func parseScalar(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)

	var scalar *uint256.Int
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		raw, err := hex.DecodeString(s[2:])
		if err != nil {
			return nil, fmt.Errorf("malformed hex plaintext")
		}
		if len(raw) > 32 {
			return nil, fmt.Errorf("plaintext exceeds 256 bits")
		}
		scalar = new(uint256.Int).SetBytes(raw)
	} else {
		b, ok := new(big.Int).SetString(s, 10)
		if !ok || b.Sign() < 0 {
			return nil, fmt.Errorf("malformed decimal plaintext")
		}
		var overflow bool
		scalar, overflow = uint256.FromBig(b)
		if overflow {
			return nil, fmt.Errorf("plaintext exceeds 256 bits")
		}
	}

	if scalar.IsZero() {
		return nil, fmt.Errorf("zero private key")
	}

	return scalar, nil
}
