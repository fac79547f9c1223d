/*
Package identity derives deterministic calling accounts from a seed.

Seed can be either a WIF-encoded private key (the way privnet wallets
store it) or a BIP-39 mnemonic phrase. For mnemonics the private key is
the SHA-256 of the BIP-39 seed derived with an empty passphrase.
*/
package identity

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/crypto/keys"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	bip39 "github.com/tyler-smith/go-bip39"
)

// ErrInvalidSeed is returned when the seed is neither a valid WIF nor a
// valid mnemonic.
var ErrInvalidSeed = errors.New("invalid seed")

// FromSeed returns an account for the given seed. When committee is set,
// the account is converted to 1-of-1 multisignature one, that's the
// committee account of a single-node network.
func FromSeed(seed string, committee bool) (*wallet.Account, error) {
	priv, err := PrivateKey(seed)
	if err != nil {
		return nil, err
	}
	acc, err := wallet.NewAccountFromWIF(priv.WIF())
	if err != nil {
		return nil, fmt.Errorf("can't create account: %w", err)
	}
	if committee {
		err = acc.ConvertMultisig(1, []*keys.PublicKey{priv.PublicKey()})
		if err != nil {
			return nil, fmt.Errorf("can't convert to committee account: %w", err)
		}
	}
	return acc, nil
}

// PrivateKey returns private key for the given seed.
func PrivateKey(seed string) (*keys.PrivateKey, error) {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidSeed)
	}
	if !strings.Contains(seed, " ") {
		priv, err := keys.NewPrivateKeyFromWIF(seed)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
		}
		return priv, nil
	}
	phrase := strings.Join(strings.Fields(seed), " ")
	if !bip39.IsMnemonicValid(phrase) {
		return nil, fmt.Errorf("%w: bad mnemonic", ErrInvalidSeed)
	}
	h := sha256.Sum256(bip39.NewSeed(phrase, ""))
	priv, err := keys.NewPrivateKeyFromBytes(h[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}
	return priv, nil
}
