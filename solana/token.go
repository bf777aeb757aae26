package solana

import (
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/pkg/errors"
)

var (
	// ErrUnknownTokenProgram is returned for a token program selector we can't build for
	ErrUnknownTokenProgram = errors.New("unknown token program")

	// ErrMetadataTooLong is returned when a metadata field is over the Metaplex limits
	ErrMetadataTooLong = errors.New("metadata field too long")
)

// TokenProgram selects which token program owns the new mint.
type TokenProgram int

const (
	// TokenProgramOriginal is the original SPL token program. Metadata lives in
	// a Metaplex metadata account.
	TokenProgramOriginal TokenProgram = iota
	// TokenProgram2022 is the token program with extensions. Metadata lives in
	// the mint account itself.
	TokenProgram2022
)

// ParseTokenProgram parses the --tokenProgram flag value
func ParseTokenProgram(s string) (TokenProgram, error) {
	switch s {
	case "token", "":
		return TokenProgramOriginal, nil
	case "token-2022", "token2022":
		return TokenProgram2022, nil
	default:
		return 0, errors.Wrapf(ErrUnknownTokenProgram, "%q", s)
	}
}

func (p TokenProgram) String() string {
	switch p {
	case TokenProgramOriginal:
		return "token"
	case TokenProgram2022:
		return "token-2022"
	default:
		return "unknown"
	}
}

// ID of the on chain program
func (p TokenProgram) ID() solana.PublicKey {
	if p == TokenProgram2022 {
		return tokenProgram2022
	}
	return tokenProgram
}

const (
	// MaxNameLength of a token name in bytes
	MaxNameLength = 32
	// MaxSymbolLength of a token symbol in bytes
	MaxSymbolLength = 10
	// MaxURILength of a metadata uri in bytes
	MaxURILength = 200
)

// Metadata attached to the new mint
type Metadata struct {
	Name   string
	Symbol string
	URI    string
	// IsMutable keeps the fee payer as update authority
	IsMutable bool
}

// Validate the metadata against the Metaplex field limits. Token-2022 has no
// such limits but we keep them so both programs accept the same input.
func (m Metadata) Validate() error {
	if len(m.Name) > MaxNameLength {
		return errors.Wrapf(ErrMetadataTooLong, "name is %d bytes, at most %d allowed", len(m.Name), MaxNameLength)
	}
	if len(m.Symbol) > MaxSymbolLength {
		return errors.Wrapf(ErrMetadataTooLong, "symbol is %d bytes, at most %d allowed", len(m.Symbol), MaxSymbolLength)
	}
	if len(m.URI) > MaxURILength {
		return errors.Wrapf(ErrMetadataTooLong, "uri is %d bytes, at most %d allowed", len(m.URI), MaxURILength)
	}
	return nil
}

// CreateTokenParams describe the mint to create
type CreateTokenParams struct {
	// FeePayer funds the mint account and pays the fees
	FeePayer solana.PublicKey
	// Mint is the address of the new mint. Its key must sign the transaction.
	Mint solana.PublicKey
	// MintAuthority defaults to the fee payer
	MintAuthority solana.PublicKey
	// FreezeAuthority is optional
	FreezeAuthority *solana.PublicKey
	Decimals        uint8
	Metadata        Metadata
	Program         TokenProgram
}

func (p CreateTokenParams) mintAuthority() solana.PublicKey {
	if p.MintAuthority.IsZero() {
		return p.FeePayer
	}
	return p.MintAuthority
}

// MintFunding is the balance in lamports the new mint account is funded with.
func (p CreateTokenParams) MintFunding() uint64 {
	space := MintAccountSize(p.Program)
	if p.Program == TokenProgram2022 {
		// initializing the token metadata grows the account past its allocation
		space += tokenMetadataExtensionSize(p.Metadata)
	}
	return RentExemptBalance(space)
}

// CreateTokenInstructions builds the ordered instruction list which creates and
// initializes the mint and attaches the metadata.
func CreateTokenInstructions(p CreateTokenParams) ([]solana.Instruction, error) {
	if p.FeePayer.IsZero() {
		return nil, errors.New("fee payer is not set")
	}
	if p.Mint.IsZero() {
		return nil, errors.New("mint is not set")
	}
	if err := p.Metadata.Validate(); err != nil {
		return nil, err
	}

	switch p.Program {
	case TokenProgramOriginal:
		return originalTokenInstructions(p)
	case TokenProgram2022:
		return token2022Instructions(p)
	default:
		return nil, errors.Wrapf(ErrUnknownTokenProgram, "%d", p.Program)
	}
}

// NewCreateTokenTransaction builds the unsigned create token transaction. If
// budget is not nil, the compute budget instructions go first.
func NewCreateTokenTransaction(p CreateTokenParams, blockhash solana.Hash, budget *ComputeBudget) (*solana.Transaction, error) {
	instructions, err := CreateTokenInstructions(p)
	if err != nil {
		return nil, err
	}

	if budget != nil {
		budgetInstructions, err := budget.Instructions()
		if err != nil {
			return nil, err
		}
		instructions = append(budgetInstructions, instructions...)
	}

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(p.FeePayer))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create token transaction")
	}

	return tx, nil
}

// SignTransaction signs tx with the given keys. Every signer the message
// requires must be among them.
func SignTransaction(tx *solana.Transaction, keys ...solana.PrivateKey) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range keys {
			if keys[i].PublicKey().Equals(key) {
				return &keys[i]
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to sign token transaction")
	}
	return nil
}

func originalTokenInstructions(p CreateTokenParams) ([]solana.Instruction, error) {
	createAccount, err := system.NewCreateAccountInstruction(
		p.MintFunding(),
		MintAccountSize(TokenProgramOriginal),
		tokenProgram,
		p.FeePayer,
		p.Mint,
	).ValidateAndBuild()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build create account instruction")
	}

	initializeMint, err := initializeMintInstruction(tokenProgram, p)
	if err != nil {
		return nil, err
	}

	createMetadata, err := metaplexMetadataInstruction(p)
	if err != nil {
		return nil, err
	}

	return []solana.Instruction{createAccount, initializeMint, createMetadata}, nil
}

func token2022Instructions(p CreateTokenParams) ([]solana.Instruction, error) {
	// The account is only allocated for the pointer extension, the token
	// metadata instruction reallocates it.
	createAccount, err := system.NewCreateAccountInstruction(
		p.MintFunding(),
		MintAccountSize(TokenProgram2022),
		tokenProgram2022,
		p.FeePayer,
		p.Mint,
	).ValidateAndBuild()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build create account instruction")
	}

	initializeMint, err := initializeMintInstruction(tokenProgram2022, p)
	if err != nil {
		return nil, err
	}

	initializeMetadata, err := initializeTokenMetadataInstruction(p.Mint, p.FeePayer, p.Mint, p.mintAuthority(), p.Metadata)
	if err != nil {
		return nil, err
	}

	instructions := []solana.Instruction{
		createAccount,
		initializeMetadataPointerInstruction(p.Mint, p.FeePayer, p.Mint),
		initializeMint,
		initializeMetadata,
	}

	if !p.Metadata.IsMutable {
		instructions = append(instructions, updateTokenMetadataAuthorityInstruction(p.Mint, p.FeePayer, nil))
	}

	return instructions, nil
}

// initializeMintInstruction builds InitializeMint for the given program. The
// layout is shared between both token programs, only the program id differs.
func initializeMintInstruction(programID solana.PublicKey, p CreateTokenParams) (solana.Instruction, error) {
	builder := token.NewInitializeMintInstructionBuilder().
		SetDecimals(p.Decimals).
		SetMintAuthority(p.mintAuthority()).
		SetMintAccount(p.Mint).
		SetSysVarRentPubkeyAccount(solana.SysVarRentPubkey)
	if p.FreezeAuthority != nil {
		builder.SetFreezeAuthority(*p.FreezeAuthority)
	}

	ix, err := builder.ValidateAndBuild()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build initialize mint instruction")
	}

	data, err := ix.Data()
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode initialize mint instruction")
	}

	return solana.NewInstruction(programID, ix.Accounts(), data), nil
}

// metaplexMetadataInstruction creates the Metaplex metadata account of the mint.
func metaplexMetadataInstruction(p CreateTokenParams) (solana.Instruction, error) {
	mint := common.PublicKey(p.Mint)
	metadataAccount, err := token_metadata.GetTokenMetaPubkey(mint)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive metadata account")
	}

	ix := token_metadata.CreateMetadataAccountV3(token_metadata.CreateMetadataAccountV3Param{
		Metadata:                metadataAccount,
		Mint:                    mint,
		MintAuthority:           common.PublicKey(p.mintAuthority()),
		Payer:                   common.PublicKey(p.FeePayer),
		UpdateAuthority:         common.PublicKey(p.FeePayer),
		UpdateAuthorityIsSigner: true,
		IsMutable:               p.Metadata.IsMutable,
		Data: token_metadata.DataV2{
			Name:                 p.Metadata.Name,
			Symbol:               p.Metadata.Symbol,
			Uri:                  p.Metadata.URI,
			SellerFeeBasisPoints: 0,
		},
	})

	return fromSDKInstruction(ix), nil
}

// fromSDKInstruction converts an instruction built with the blocto sdk.
func fromSDKInstruction(ix types.Instruction) solana.Instruction {
	accounts := make(solana.AccountMetaSlice, 0, len(ix.Accounts))
	for _, meta := range ix.Accounts {
		accounts = append(accounts, &solana.AccountMeta{
			PublicKey:  solana.PublicKey(meta.PubKey),
			IsWritable: meta.IsWritable,
			IsSigner:   meta.IsSigner,
		})
	}
	return solana.NewInstruction(solana.PublicKey(ix.ProgramID), accounts, ix.Data)
}

// MetadataAddress is the Metaplex metadata account of a mint
func MetadataAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	address, _, err := solana.FindProgramAddress([][]byte{
		[]byte("metadata"),
		tokenMetadataProgram.Bytes(),
		mint.Bytes(),
	}, tokenMetadataProgram)
	if err != nil {
		return solana.PublicKey{}, errors.Wrap(err, "failed to derive metadata account")
	}
	return address, nil
}
