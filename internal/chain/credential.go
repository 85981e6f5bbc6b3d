package chain

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Credential is an opaque signing handle for chain writes. The relay never
// constructs keys on its own; callers parse one from externally supplied
// material and pass it per call.
type Credential struct {
	key *ecdsa.PrivateKey
}

// ParseCredential builds a credential from a hex-encoded private key, with
// or without a 0x prefix.
func ParseCredential(hexKey string) (Credential, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return Credential{}, fmt.Errorf("parse signing key: %w", err)
	}
	return Credential{key: key}, nil
}

// Address returns the account address controlled by this credential.
func (c Credential) Address() common.Address {
	if c.key == nil {
		return common.Address{}
	}
	return crypto.PubkeyToAddress(c.key.PublicKey)
}

// IsZero reports whether the credential holds no key.
func (c Credential) IsZero() bool {
	return c.key == nil
}
