package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"testing"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threefoldfoundation/tft/tools/create-spl-token/progress"
	"github.com/threefoldfoundation/tft/tools/create-spl-token/solana"
)

var computeBudgetProgram = solanago.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")

// fakeChain records what the token creation asks of the network
type fakeChain struct {
	blockhash    solanago.Hash
	blockhashErr error
	units        uint64
	simulateErr  error
	fee          uint64
	sendErr      error
	statuses     []solana.Status

	calls       map[string]int
	simulated   *solanago.Transaction
	feeAccounts solanago.PublicKeySlice
	sent        *solanago.Transaction
	sendOpts    solana.SendOptions
}

func newFakeChain(t *testing.T) *fakeChain {
	return &fakeChain{
		blockhash: solanago.HashFromBytes(newKey(t).PublicKey().Bytes()),
		statuses:  []solana.Status{solana.StatusSent, solana.StatusConfirmed},
		calls:     map[string]int{},
	}
}

func (f *fakeChain) LatestBlockhash(ctx context.Context) (solanago.Hash, error) {
	f.calls["LatestBlockhash"]++
	return f.blockhash, f.blockhashErr
}

func (f *fakeChain) EstimateComputeUnits(ctx context.Context, tx *solanago.Transaction) (uint64, error) {
	f.calls["EstimateComputeUnits"]++
	f.simulated = tx
	return f.units, f.simulateErr
}

func (f *fakeChain) PriorityFee(ctx context.Context, accounts solanago.PublicKeySlice) (uint64, error) {
	f.calls["PriorityFee"]++
	f.feeAccounts = accounts
	return f.fee, nil
}

func (f *fakeChain) SendAndConfirm(ctx context.Context, tx *solanago.Transaction, opts solana.SendOptions, onStatus func(solana.StatusUpdate)) (solanago.Signature, error) {
	f.calls["SendAndConfirm"]++
	f.sent = tx
	f.sendOpts = opts

	sig := tx.Signatures[0]
	for _, status := range f.statuses {
		onStatus(solana.StatusUpdate{Status: status, Signature: sig})
	}
	return sig, f.sendErr
}

func testConfig() *Config {
	return &Config{
		Decimals: 6,
		Metadata: solana.Metadata{
			Name:      "Test Token",
			Symbol:    "TST",
			URI:       "https://example.com/token.json",
			IsMutable: true,
		},
		Program:    solana.TokenProgramOriginal,
		Commitment: rpc.CommitmentConfirmed,
	}
}

func testKeys(t *testing.T) keys {
	return keys{payer: newKey(t), mint: newKey(t)}
}

func TestCreateToken(t *testing.T) {
	var out bytes.Buffer
	spinner := progress.New(&out)
	c := newFakeChain(t)
	k := testKeys(t)
	cfg := testConfig()
	cfg.SkipPreflight = true

	res, err := createToken(context.Background(), cfg, k, c, spinner)
	require.NoError(t, err)

	require.NotNil(t, c.sent)
	assert.Equal(t, k.mint.PublicKey(), res.Mint)
	assert.Equal(t, c.sent.Signatures[0], res.Signature)
	assert.Equal(t, solana.SendOptions{SkipPreflight: true, Commitment: rpc.CommitmentConfirmed}, c.sendOpts)

	assert.True(t, spinner.Stopped())
	assert.Equal(t, fmt.Sprintf("Successfully minted token mint %s", k.mint.PublicKey()), spinner.Text())
	assert.Contains(t, out.String(), fmt.Sprintf("sent:: %s", res.Signature))
	assert.Contains(t, out.String(), fmt.Sprintf("confirmed:: %s", res.Signature))

	tx := c.sent
	assert.Equal(t, c.blockhash, tx.Message.RecentBlockhash)
	assert.NoError(t, tx.VerifySignatures())
	assert.Equal(t, k.payer.PublicKey(), tx.Message.AccountKeys[0])
	require.Len(t, tx.Message.Instructions, 3)

	initializeMint := tx.Message.Instructions[1]
	assert.Equal(t, byte(0), initializeMint.Data[0])
	assert.Equal(t, byte(6), initializeMint.Data[1], "decimals")
	assert.Equal(t, byte(0), initializeMint.Data[34], "no freeze authority")

	assert.Zero(t, c.calls["EstimateComputeUnits"])
	assert.Zero(t, c.calls["PriorityFee"])
}

func TestCreateTokenFreezeAuthority(t *testing.T) {
	c := newFakeChain(t)
	k := testKeys(t)
	cfg := testConfig()
	cfg.Freeze = true

	_, err := createToken(context.Background(), cfg, k, c, progress.New(&bytes.Buffer{}))
	require.NoError(t, err)

	data := c.sent.Message.Instructions[1].Data
	require.Len(t, data, 67)
	assert.Equal(t, byte(1), data[34])
	assert.Equal(t, k.payer.PublicKey().Bytes(), []byte(data[35:67]))
}

func TestCreateTokenToken2022(t *testing.T) {
	c := newFakeChain(t)
	k := testKeys(t)
	cfg := testConfig()
	cfg.Program = solana.TokenProgram2022
	cfg.Metadata.IsMutable = false

	res, err := createToken(context.Background(), cfg, k, c, progress.New(&bytes.Buffer{}))
	require.NoError(t, err)
	assert.Equal(t, k.mint.PublicKey(), res.Mint)

	require.Len(t, c.sent.Message.Instructions, 5)
	assert.Equal(t, byte(6), c.sent.Message.Instructions[2].Data[1], "decimals")
}

func TestCreateTokenPriorityFee(t *testing.T) {
	c := newFakeChain(t)
	c.units = 50_000
	c.fee = 1_234
	k := testKeys(t)
	cfg := testConfig()
	cfg.PriorityFee = true

	_, err := createToken(context.Background(), cfg, k, c, progress.New(&bytes.Buffer{}))
	require.NoError(t, err)

	assert.Equal(t, 1, c.calls["EstimateComputeUnits"])
	assert.Equal(t, 1, c.calls["PriorityFee"])
	require.NotNil(t, c.simulated)
	assert.Len(t, c.simulated.Message.Instructions, 3, "simulated without compute budget")
	assert.NoError(t, c.simulated.VerifySignatures())
	assert.True(t, c.feeAccounts.Has(k.payer.PublicKey()))
	assert.True(t, c.feeAccounts.Has(k.mint.PublicKey()))

	tx := c.sent
	require.Len(t, tx.Message.Instructions, 5)
	price, limit := tx.Message.Instructions[0], tx.Message.Instructions[1]
	assert.Equal(t, computeBudgetProgram, tx.Message.AccountKeys[price.ProgramIDIndex])
	assert.Equal(t, computeBudgetProgram, tx.Message.AccountKeys[limit.ProgramIDIndex])

	require.Len(t, price.Data, 9)
	assert.Equal(t, byte(3), price.Data[0])
	assert.Equal(t, uint64(1_234), binary.LittleEndian.Uint64(price.Data[1:]))

	require.Len(t, limit.Data, 5)
	assert.Equal(t, byte(2), limit.Data[0])
	assert.Equal(t, uint32(60_000), binary.LittleEndian.Uint32(limit.Data[1:]))

	assert.NoError(t, tx.VerifySignatures())
}

func TestCreateTokenSimulationFailure(t *testing.T) {
	var out bytes.Buffer
	spinner := progress.New(&out)
	c := newFakeChain(t)
	c.simulateErr = solana.ErrSimulationFailed
	cfg := testConfig()
	cfg.PriorityFee = true

	res, err := createToken(context.Background(), cfg, testKeys(t), c, spinner)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, solana.ErrSimulationFailed)
	assert.Zero(t, c.calls["SendAndConfirm"])
	assert.True(t, spinner.Stopped())
}

func TestCreateTokenBlockhashFailure(t *testing.T) {
	spinner := progress.New(&bytes.Buffer{})
	c := newFakeChain(t)
	c.blockhashErr = errors.New("node is behind")

	_, err := createToken(context.Background(), testConfig(), testKeys(t), c, spinner)
	assert.EqualError(t, err, "node is behind")
	assert.Zero(t, c.calls["SendAndConfirm"])
	assert.True(t, spinner.Stopped())
	assert.Equal(t, "Failed to create SPL Token.", spinner.Text())
}

func TestCreateTokenSubmissionFailure(t *testing.T) {
	var out bytes.Buffer
	spinner := progress.New(&out)
	c := newFakeChain(t)
	c.statuses = []solana.Status{solana.StatusSent}
	c.sendErr = errors.Wrap(solana.ErrTransactionFailed, "custom program error: 0x1")

	res, err := createToken(context.Background(), testConfig(), testKeys(t), c, spinner)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, solana.ErrTransactionFailed)
	assert.Contains(t, err.Error(), "custom program error: 0x1")

	assert.True(t, spinner.Stopped())
	assert.Equal(t, "Failed to create SPL Token.", spinner.Text())
	assert.Contains(t, out.String(), "✖")
	assert.Contains(t, out.String(), "Failed to create SPL Token.")
	assert.NotContains(t, out.String(), "Successfully minted")
}

func TestLoadKeys(t *testing.T) {
	payer := newKey(t)
	cfg := &Config{KeypairPath: writeKeygenFile(t, payer)}

	k, err := loadKeys(cfg)
	require.NoError(t, err)
	assert.Equal(t, payer, k.payer)
	require.NotNil(t, k.mint)
	assert.NotEqual(t, payer.PublicKey(), k.mint.PublicKey())

	mint := newKey(t)
	cfg.Mint = solana.MintSource{KeyFile: writeKeygenFile(t, mint)}
	k, err = loadKeys(cfg)
	require.NoError(t, err)
	assert.Equal(t, mint, k.mint)

	// an address can't sign, a fresh mint is used instead
	address := newKey(t).PublicKey()
	cfg.Mint = solana.MintSource{Address: address}
	k, err = loadKeys(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, address, k.mint.PublicKey())

	cfg.KeypairPath = writeKeygenFile(t, payer) + ".missing"
	_, err = loadKeys(cfg)
	assert.Error(t, err)
}
