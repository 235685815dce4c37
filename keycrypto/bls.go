package keycrypto

import (
	"fmt"
	"strings"
	"sync"

	"github.com/herumi/bls-eth-go-binary/bls"
	"github.com/holiman/uint256"
)

var (
	blsOnce sync.Once
	blsErr  error
)

func initBLS() error {
	blsOnce.Do(func() {
		if err := bls.Init(bls.BLS12_381); err != nil {
			blsErr = fmt.Errorf("init BLS: %w", err)
			return
		}
		if err := bls.SetETHmode(bls.EthModeDraft07); err != nil {
			blsErr = fmt.Errorf("set BLS ETH mode: %w", err)
		}
	})
	return blsErr
}

// VerifyPublicKey checks that scalar is the BLS secret key behind publicKey.
// A mismatch wraps ErrDecryption: a key that decrypts but belongs to another
// validator must never be emitted.
func VerifyPublicKey(scalar *uint256.Int, publicKey string) error {
	if err := initBLS(); err != nil {
		return err
	}

	b := scalar.Bytes32()
	sk := &bls.SecretKey{}
	if err := sk.Deserialize(b[:]); err != nil {
		return fmt.Errorf("%w: invalid BLS secret key for %s", ErrDecryption, publicKey)
	}

	derived := sk.GetPublicKey().SerializeToHexStr()
	expected := strings.ToLower(strings.TrimPrefix(publicKey, "0x"))
	if derived != expected {
		return fmt.Errorf("%w: private key does not match public key %s", ErrDecryption, publicKey)
	}

	return nil
}
