package solana

import (
	"crypto/sha256"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Token-2022 account layout
const (
	// mintSize of a mint without extensions
	mintSize = 82
	// baseAccountSize is what an extended mint is padded to before the account type
	baseAccountSize = 165
	accountTypeSize = 1
	// tlvHeaderSize is the type and length prefix of every extension
	tlvHeaderSize = 4
	// metadataPointerSize holds the authority and the metadata address
	metadataPointerSize = 64

	// metadataPointerExtension is the token instruction prefix for metadata pointer instructions
	metadataPointerExtension  = 39
	metadataPointerInitialize = 0
)

var (
	initializeTokenMetadataDiscriminator = interfaceDiscriminator("spl_token_metadata_interface:initialize_account")
	updateAuthorityDiscriminator         = interfaceDiscriminator("spl_token_metadata_interface:update_the_authority")
)

// interfaceDiscriminator is the 8 byte instruction prefix of the token metadata interface.
func interfaceDiscriminator(name string) [8]byte {
	var discriminator [8]byte
	sum := sha256.Sum256([]byte(name))
	copy(discriminator[:], sum[:8])
	return discriminator
}

// MintAccountSize is the number of bytes allocated when the mint account is created.
func MintAccountSize(program TokenProgram) uint64 {
	if program == TokenProgram2022 {
		return baseAccountSize + accountTypeSize + tlvHeaderSize + metadataPointerSize
	}
	return mintSize
}

// tokenMetadataExtensionSize is the size of the token metadata extension,
// including its tlv header, for the given metadata.
func tokenMetadataExtensionSize(m Metadata) uint64 {
	size := 32 + 32 + // update authority and mint
		4 + len(m.Name) +
		4 + len(m.Symbol) +
		4 + len(m.URI) +
		4 // empty additional metadata
	return uint64(tlvHeaderSize + size)
}

// tokenMetadataFields is the borsh layout of the initialize instruction arguments.
type tokenMetadataFields struct {
	Name   string
	Symbol string
	URI    string
}

// initializeMetadataPointerInstruction points the mint's metadata at metadataAddress.
// It has to come before the mint is initialized.
func initializeMetadataPointerInstruction(mint, authority, metadataAddress solana.PublicKey) solana.Instruction {
	data := make([]byte, 0, 2+metadataPointerSize)
	data = append(data, metadataPointerExtension, metadataPointerInitialize)
	data = append(data, authority.Bytes()...)
	data = append(data, metadataAddress.Bytes()...)

	return solana.NewInstruction(tokenProgram2022, solana.AccountMetaSlice{
		solana.Meta(mint).WRITE(),
	}, data)
}

// initializeTokenMetadataInstruction writes the metadata into the metadata account,
// which for a self pointing mint is the mint itself.
func initializeTokenMetadataInstruction(metadata, updateAuthority, mint, mintAuthority solana.PublicKey, m Metadata) (solana.Instruction, error) {
	fields, err := bin.MarshalBorsh(&tokenMetadataFields{Name: m.Name, Symbol: m.Symbol, URI: m.URI})
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, len(initializeTokenMetadataDiscriminator)+len(fields))
	data = append(data, initializeTokenMetadataDiscriminator[:]...)
	data = append(data, fields...)

	return solana.NewInstruction(tokenProgram2022, solana.AccountMetaSlice{
		solana.Meta(metadata).WRITE(),
		solana.Meta(updateAuthority),
		solana.Meta(mint),
		solana.Meta(mintAuthority).SIGNER(),
	}, data), nil
}

// updateTokenMetadataAuthorityInstruction hands the update authority to
// newAuthority. A nil newAuthority makes the metadata immutable.
func updateTokenMetadataAuthorityInstruction(metadata, updateAuthority solana.PublicKey, newAuthority *solana.PublicKey) solana.Instruction {
	var next solana.PublicKey
	if newAuthority != nil {
		next = *newAuthority
	}

	data := make([]byte, 0, len(updateAuthorityDiscriminator)+32)
	data = append(data, updateAuthorityDiscriminator[:]...)
	data = append(data, next.Bytes()...)

	return solana.NewInstruction(tokenProgram2022, solana.AccountMetaSlice{
		solana.Meta(metadata).WRITE(),
		solana.Meta(updateAuthority).SIGNER(),
	}, data)
}

// RentExemptBalance is the minimum balance in lamports for an account of
// space bytes to be rent exempt.
func RentExemptBalance(space uint64) uint64 {
	const (
		accountStorageOverhead = 128
		lamportsPerByteYear    = 3480
		exemptionThreshold     = 2
	)
	return (space + accountStorageOverhead) * lamportsPerByteYear * exemptionThreshold
}
