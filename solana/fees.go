package solana

import (
	"context"
	"sort"

	"github.com/gagliardetto/solana-go"
	budget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrSimulationFailed is returned when the node could not execute the transaction in simulation
var ErrSimulationFailed = errors.New("transaction simulation failed")

const (
	// minComputeUnits requested even if the simulation reports less
	minComputeUnits = 1_000
	// maxComputeUnits a single transaction may request
	maxComputeUnits = 1_400_000
)

// ComputeBudget to attach to a transaction
type ComputeBudget struct {
	// UnitLimit of compute units the transaction may consume
	UnitLimit uint32
	// UnitPrice in micro lamports per compute unit
	UnitPrice uint64
}

// Instructions setting the unit price and limit, in that order.
func (b ComputeBudget) Instructions() ([]solana.Instruction, error) {
	price, err := budget.NewSetComputeUnitPriceInstruction(b.UnitPrice).ValidateAndBuild()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build compute unit price instruction")
	}

	limit, err := budget.NewSetComputeUnitLimitInstruction(b.UnitLimit).ValidateAndBuild()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build compute unit limit instruction")
	}

	return []solana.Instruction{price, limit}, nil
}

// ComputeUnitLimit turns a simulated consumption into a limit with 20% headroom.
func ComputeUnitLimit(consumed uint64) uint32 {
	if consumed < minComputeUnits {
		return minComputeUnits
	}

	limit := (consumed*12 + 9) / 10
	if limit > maxComputeUnits {
		return maxComputeUnits
	}
	return uint32(limit)
}

// EstimateComputeUnits simulates tx and returns the compute units it consumed.
func (c *Client) EstimateComputeUnits(ctx context.Context, tx *solana.Transaction) (uint64, error) {
	res, err := c.rpcClient.SimulateTransactionWithOpts(ctx, tx, &rpc.SimulateTransactionOpts{
		SigVerify:              false,
		Commitment:             rpc.CommitmentConfirmed,
		ReplaceRecentBlockhash: true,
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to simulate transaction")
	}
	if res == nil || res.Value == nil {
		return 0, errors.Wrap(ErrSimulationFailed, "empty simulation result")
	}

	if res.Value.Err != nil {
		for _, line := range res.Value.Logs {
			log.Debug().Str("log", line).Msg("Simulation log")
		}
		return 0, errors.Wrapf(ErrSimulationFailed, "%v", res.Value.Err)
	}

	if res.Value.UnitsConsumed == nil {
		return 0, errors.Wrap(ErrSimulationFailed, "node did not report consumed units")
	}

	return *res.Value.UnitsConsumed, nil
}

// PriorityFee estimates a compute unit price in micro lamports as the median of
// the non zero prioritization fees recently paid for the given accounts.
func (c *Client) PriorityFee(ctx context.Context, accounts solana.PublicKeySlice) (uint64, error) {
	recent, err := c.rpcClient.GetRecentPrioritizationFees(ctx, accounts)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get recent prioritization fees")
	}

	fees := make([]uint64, 0, len(recent))
	for _, r := range recent {
		if r.PrioritizationFee > 0 {
			fees = append(fees, r.PrioritizationFee)
		}
	}

	return median(fees), nil
}

func median(values []uint64) uint64 {
	if len(values) == 0 {
		return 0
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	mid := len(values) / 2
	if len(values)%2 == 1 {
		return values[mid]
	}
	return (values[mid-1] + values[mid]) / 2
}

// WritableAccounts of the instructions, deduplicated, in order of appearance.
func WritableAccounts(instructions []solana.Instruction) solana.PublicKeySlice {
	var accounts solana.PublicKeySlice
	for _, ix := range instructions {
		for _, meta := range ix.Accounts() {
			if meta.IsWritable && !accounts.Has(meta.PublicKey) {
				accounts = append(accounts, meta.PublicKey)
			}
		}
	}
	return accounts
}
