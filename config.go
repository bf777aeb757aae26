package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	flag "github.com/spf13/pflag"
	"github.com/threefoldfoundation/tft/tools/create-spl-token/faults"
	"github.com/threefoldfoundation/tft/tools/create-spl-token/solana"
)

const (
	defaultDecimals = "9"
	defaultTimeout  = 90 * time.Second
)

// Flags holds the raw command line values
type Flags struct {
	URL           string
	WSURL         string
	Keypair       string
	Mint          string
	Name          string
	Symbol        string
	Decimals      string
	MetadataURI   string
	TokenProgram  string
	Commitment    string
	Immutable     bool
	Freeze        bool
	PriorityFee   bool
	SkipPreflight bool
	Timeout       time.Duration
	Debug         bool
}

// Register the flags on fs
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.URL, "url", "", "rpc url of the solana node, or one of local, devnet, testnet, mainnet")
	fs.StringVar(&f.WSURL, "wsUrl", "", "websocket url of the solana node, derived from the rpc url if not set")
	fs.StringVar(&f.Keypair, "keypair", "", "path to the keypair file of the fee payer")
	fs.StringVar(&f.Mint, "mint", "", "mint keypair file, or address of an existing mint")
	fs.StringVar(&f.Name, "name", "", "token name")
	fs.StringVar(&f.Symbol, "symbol", "", "token symbol")
	fs.StringVar(&f.Decimals, "decimals", defaultDecimals, "number of decimals of the token")
	fs.StringVar(&f.MetadataURI, "metadataUri", "", "uri of the token metadata json")
	fs.StringVar(&f.TokenProgram, "tokenProgram", solana.TokenProgramOriginal.String(), "token program to use, token or token-2022")
	fs.StringVar(&f.Commitment, "commitment", string(rpc.CommitmentConfirmed), "commitment to wait for, confirmed or finalized")
	fs.BoolVar(&f.Immutable, "immutable", false, "create metadata which can not be updated afterwards")
	fs.BoolVar(&f.Freeze, "freeze", false, "set the fee payer as freeze authority of the mint")
	fs.BoolVar(&f.PriorityFee, "priorityFee", false, "add compute budget instructions based on simulation and recent fees")
	fs.BoolVar(&f.SkipPreflight, "skipPreflight", false, "skip the preflight check of the rpc node")
	fs.DurationVar(&f.Timeout, "timeout", defaultTimeout, "maximum time to wait for the network, confirmation included")
	fs.BoolVar(&f.Debug, "debug", false, "sets debug level log output")
}

// Config is the validated input of a run
type Config struct {
	URL           string
	WSURL         string
	KeypairPath   string
	Mint          solana.MintSource
	Decimals      uint8
	Metadata      solana.Metadata
	Program       solana.TokenProgram
	Freeze        bool
	PriorityFee   bool
	SkipPreflight bool
	Commitment    rpc.CommitmentType
	Timeout       time.Duration
}

// Config validates the raw flags. Nothing here touches the network.
func (f *Flags) Config() (*Config, error) {
	if f.MetadataURI == "" {
		return nil, faults.Missing("metadataUri", "Metadata URI is required.")
	}
	if f.Keypair == "" {
		return nil, faults.Missing("keypair", "Path to keypair is required.")
	}
	if f.Name == "" {
		return nil, faults.Missing("name", "Token name is required.")
	}
	if f.Symbol == "" {
		return nil, faults.Missing("symbol", "Token symbol is required.")
	}
	if f.URL == "" {
		return nil, faults.Missing("url", "RPC url is required.")
	}

	cfg := &Config{
		URL:           f.URL,
		WSURL:         f.WSURL,
		KeypairPath:   f.Keypair,
		Freeze:        f.Freeze,
		PriorityFee:   f.PriorityFee,
		SkipPreflight: f.SkipPreflight,
		Timeout:       f.Timeout,
		Metadata: solana.Metadata{
			Name:      f.Name,
			Symbol:    f.Symbol,
			URI:       f.MetadataURI,
			IsMutable: !f.Immutable,
		},
	}

	if info, err := os.Stat(f.Keypair); err != nil || info.IsDir() {
		return nil, faults.Invalid("keypair", faults.ErrKeypairNotFound, fmt.Sprintf("Keypair file %s not found.", f.Keypair))
	}

	if f.Mint != "" {
		mint, err := solana.ResolveMint(f.Mint)
		if err != nil {
			return nil, faults.Invalid("mint", faults.ErrInvalidMint, fmt.Sprintf("%s is neither a keypair file nor a mint address.", f.Mint))
		}
		cfg.Mint = mint
	}

	decimals := f.Decimals
	if decimals == "" {
		decimals = defaultDecimals
	}
	d, err := strconv.ParseUint(decimals, 10, 8)
	if err != nil {
		return nil, faults.Invalid("decimals", faults.ErrInvalidDecimals, fmt.Sprintf("%q is not a number between 0 and 255.", f.Decimals))
	}
	cfg.Decimals = uint8(d)

	if cfg.Program, err = solana.ParseTokenProgram(f.TokenProgram); err != nil {
		return nil, faults.Invalid("tokenProgram", faults.ErrInvalidTokenProgram, fmt.Sprintf("%q is not token or token-2022.", f.TokenProgram))
	}

	if cfg.Commitment, err = solana.ParseCommitment(f.Commitment); err != nil {
		return nil, faults.Invalid("commitment", faults.ErrInvalidCommitment, fmt.Sprintf("%q is not confirmed or finalized.", f.Commitment))
	}

	if err := cfg.Metadata.Validate(); err != nil {
		return nil, faults.Invalid(metadataFlag(cfg.Metadata), faults.ErrMetadataTooLong, err.Error())
	}

	if !solana.IsNetworkName(f.URL) {
		// the rpc url has to be usable even when the websocket url is given
		if _, err := solana.WebsocketURL(f.URL); err != nil {
			return nil, faults.Invalid("url", faults.ErrInvalidURL, err.Error())
		}
	}
	if _, err := solana.ResolveEndpoints(f.URL, f.WSURL); err != nil {
		return nil, faults.Invalid("url", faults.ErrInvalidURL, err.Error())
	}

	if f.Timeout <= 0 {
		return nil, faults.Invalid("timeout", faults.ErrInvalidTimeout, fmt.Sprintf("%s is not a positive duration.", f.Timeout))
	}

	return cfg, nil
}

// metadataFlag names the flag of the first metadata field over its limit
func metadataFlag(m solana.Metadata) string {
	switch {
	case len(m.Name) > solana.MaxNameLength:
		return "name"
	case len(m.Symbol) > solana.MaxSymbolLength:
		return "symbol"
	default:
		return "metadataUri"
	}
}
