package solana

import (
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

// ErrNotAMintSource is returned when a mint identifier is neither an existing
// file nor a valid base58 address.
var ErrNotAMintSource = errors.New("mint identifier is neither a keypair file nor an address")

// MintSource describes where the mint of a run comes from. The zero value
// means a fresh keypair is generated for the run.
type MintSource struct {
	// KeyFile of a solana-keygen mint keypair
	KeyFile string
	// Address given without a key. It can't sign its own account creation.
	Address solana.PublicKey
}

// IsKeyFile reports whether the mint will be loaded from disk
func (m MintSource) IsKeyFile() bool {
	return m.KeyFile != ""
}

// IsAddress reports whether only an address was given
func (m MintSource) IsAddress() bool {
	return m.KeyFile == "" && !m.Address.IsZero()
}

// ResolveMint classifies a --mint value. An existing path wins over an
// address, so a file that happens to be named like a key is still read.
func ResolveMint(identifier string) (MintSource, error) {
	if info, err := os.Stat(identifier); err == nil && !info.IsDir() {
		return MintSource{KeyFile: identifier}, nil
	}

	address, err := solana.PublicKeyFromBase58(identifier)
	if err != nil {
		return MintSource{}, ErrNotAMintSource
	}

	return MintSource{Address: address}, nil
}

// LoadKeypair reads a solana-keygen JSON keypair file.
func LoadKeypair(path string) (solana.PrivateKey, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not load solana key file %s", path)
	}
	return key, nil
}

// MintKeypair returns the signer for the mint account: loaded from the key
// file when there is one, freshly generated otherwise. A generated key is
// never written anywhere.
func MintKeypair(source MintSource) (solana.PrivateKey, error) {
	if source.IsKeyFile() {
		return LoadKeypair(source.KeyFile)
	}

	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, errors.Wrap(err, "could not generate mint keypair")
	}
	return key, nil
}
