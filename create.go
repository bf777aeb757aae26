package main

import (
	"context"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/threefoldfoundation/tft/tools/create-spl-token/progress"
	"github.com/threefoldfoundation/tft/tools/create-spl-token/solana"
)

// chain is the part of the solana client the token creation needs
type chain interface {
	LatestBlockhash(ctx context.Context) (solanago.Hash, error)
	EstimateComputeUnits(ctx context.Context, tx *solanago.Transaction) (uint64, error)
	PriorityFee(ctx context.Context, accounts solanago.PublicKeySlice) (uint64, error)
	SendAndConfirm(ctx context.Context, tx *solanago.Transaction, opts solana.SendOptions, onStatus func(solana.StatusUpdate)) (solanago.Signature, error)
}

// keys signing the token creation
type keys struct {
	payer solanago.PrivateKey
	mint  solanago.PrivateKey
}

// Result of a successful token creation
type Result struct {
	Mint      solanago.PublicKey
	Signature solanago.Signature
}

// loadKeys reads the fee payer and picks the mint signer. Nothing is sent to
// the network.
func loadKeys(cfg *Config) (keys, error) {
	payer, err := solana.LoadKeypair(cfg.KeypairPath)
	if err != nil {
		return keys{}, err
	}

	if cfg.Mint.IsAddress() {
		log.Warn().Str("mint", cfg.Mint.Address.String()).Msg("Mint address given without its keypair, it can't sign the account creation so a new mint keypair is generated")
	}

	mint, err := solana.MintKeypair(cfg.Mint)
	if err != nil {
		return keys{}, err
	}

	return keys{payer: payer, mint: mint}, nil
}

// createToken builds, signs and submits the token creation transaction and
// waits for the configured commitment.
func createToken(ctx context.Context, cfg *Config, k keys, c chain, spinner *progress.Spinner) (*Result, error) {
	spinner.Start("Creating SPL Token")

	res, err := submitToken(ctx, cfg, k, c, spinner)
	if err != nil {
		spinner.Fail("Failed to create SPL Token.")
		return nil, err
	}

	spinner.Succeed(fmt.Sprintf("Successfully minted token mint %s", res.Mint))
	return res, nil
}

func submitToken(ctx context.Context, cfg *Config, k keys, c chain, spinner *progress.Spinner) (*Result, error) {
	params := solana.CreateTokenParams{
		FeePayer: k.payer.PublicKey(),
		Mint:     k.mint.PublicKey(),
		Decimals: cfg.Decimals,
		Metadata: cfg.Metadata,
		Program:  cfg.Program,
	}
	if cfg.Freeze {
		freeze := k.payer.PublicKey()
		params.FreezeAuthority = &freeze
	}

	log.Info().
		Str("mint", params.Mint.String()).
		Str("payer", params.FeePayer.String()).
		Str("program", params.Program.String()).
		Uint8("decimals", params.Decimals).
		Str("rent", solana.FormatSOL(params.MintFunding())).
		Msg("Creating token")

	blockhash, err := c.LatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}

	var budget *solana.ComputeBudget
	if cfg.PriorityFee {
		if budget, err = estimateComputeBudget(ctx, c, params, blockhash, k); err != nil {
			return nil, err
		}
		log.Info().Uint32("unitLimit", budget.UnitLimit).Uint64("unitPrice", budget.UnitPrice).Msg("Attaching compute budget")
	}

	tx, err := solana.NewCreateTokenTransaction(params, blockhash, budget)
	if err != nil {
		return nil, err
	}
	if err := solana.SignTransaction(tx, k.payer, k.mint); err != nil {
		return nil, err
	}

	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		log.Debug().Msg(spew.Sdump(tx))
	}

	sig, err := c.SendAndConfirm(ctx, tx, solana.SendOptions{
		SkipPreflight: cfg.SkipPreflight,
		Commitment:    cfg.Commitment,
	}, func(update solana.StatusUpdate) {
		spinner.SetText(fmt.Sprintf("%s:: %s", update.Status, update.Signature))
		log.Debug().Str("status", string(update.Status)).Str("signature", update.Signature.String()).Msg("Transaction status")
	})
	if err != nil {
		if sig != (solanago.Signature{}) {
			log.Error().Str("signature", sig.String()).Msg("Transaction was submitted but did not succeed")
		}
		return nil, errors.Wrap(err, "failed to create token")
	}

	log.Info().Str("mint", params.Mint.String()).Str("signature", sig.String()).Msg("Token created")

	return &Result{Mint: params.Mint, Signature: sig}, nil
}

// estimateComputeBudget simulates the transaction without compute budget
// instructions and prices it at the median recent fee of its writable accounts.
func estimateComputeBudget(ctx context.Context, c chain, params solana.CreateTokenParams, blockhash solanago.Hash, k keys) (*solana.ComputeBudget, error) {
	draft, err := solana.NewCreateTokenTransaction(params, blockhash, nil)
	if err != nil {
		return nil, err
	}
	if err := solana.SignTransaction(draft, k.payer, k.mint); err != nil {
		return nil, err
	}

	units, err := c.EstimateComputeUnits(ctx, draft)
	if err != nil {
		return nil, err
	}

	instructions, err := solana.CreateTokenInstructions(params)
	if err != nil {
		return nil, err
	}
	price, err := c.PriorityFee(ctx, solana.WritableAccounts(instructions))
	if err != nil {
		return nil, err
	}

	return &solana.ComputeBudget{UnitLimit: solana.ComputeUnitLimit(units), UnitPrice: price}, nil
}
