package solana

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var (
	// ErrTransactionFailed is returned when the transaction landed but its execution failed
	ErrTransactionFailed = errors.New("transaction failed on chain")

	// ErrConfirmationTimeout is returned when the transaction was not confirmed in time
	ErrConfirmationTimeout = errors.New("timed out waiting for transaction confirmation")

	// ErrUnsupportedCommitment is returned for a commitment we don't wait for
	ErrUnsupportedCommitment = errors.New("commitment must be confirmed or finalized")
)

// Status of a submitted transaction
type Status string

const (
	StatusSent      Status = "sent"
	StatusConfirmed Status = "confirmed"
	StatusFinalized Status = "finalized"
)

// StatusUpdate is reported for every status a submitted transaction reaches
type StatusUpdate struct {
	Status    Status
	Signature solana.Signature
}

// SendOptions for SendAndConfirm
type SendOptions struct {
	// SkipPreflight disables simulation by the rpc node before forwarding
	SkipPreflight bool
	// Commitment to wait for, confirmed or finalized
	Commitment rpc.CommitmentType
}

// ParseCommitment parses the --commitment flag value
func ParseCommitment(s string) (rpc.CommitmentType, error) {
	switch rpc.CommitmentType(s) {
	case "", rpc.CommitmentConfirmed:
		return rpc.CommitmentConfirmed, nil
	case rpc.CommitmentFinalized:
		return rpc.CommitmentFinalized, nil
	default:
		return "", errors.Wrapf(ErrUnsupportedCommitment, "%q", s)
	}
}

// SendAndConfirm submits a signed transaction and waits until it reaches the
// requested commitment. Every status reached is passed to onStatus, which may
// be nil. The wait is bounded by ctx only.
func (c *Client) SendAndConfirm(ctx context.Context, tx *solana.Transaction, opts SendOptions, onStatus func(StatusUpdate)) (solana.Signature, error) {
	levels, err := confirmationLevels(opts.Commitment)
	if err != nil {
		return solana.Signature{}, err
	}

	sig, err := c.rpcClient.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       opts.SkipPreflight,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return solana.Signature{}, errors.Wrap(ErrConfirmationTimeout, "submitting transaction")
		}
		return solana.Signature{}, errors.Wrap(err, "failed to submit transaction")
	}
	report(onStatus, StatusSent, sig)

	for _, level := range levels {
		if err := c.waitForCommitment(ctx, sig, level); err != nil {
			return sig, err
		}
		report(onStatus, Status(level), sig)
	}

	return sig, nil
}

func (c *Client) waitForCommitment(ctx context.Context, sig solana.Signature, commitment rpc.CommitmentType) error {
	sub, err := c.wsClient.SignatureSubscribe(sig, commitment)
	if err != nil {
		return errors.Wrap(err, "failed to subscribe to transaction signature")
	}
	defer sub.Unsubscribe()

	got, err := sub.Recv(ctx)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return errors.Wrapf(ErrConfirmationTimeout, "waiting for %s", commitment)
		}
		return errors.Wrap(err, "signature subscription failed")
	}

	if got.Value.Err != nil {
		return errors.Wrapf(ErrTransactionFailed, "%v", got.Value.Err)
	}

	log.Debug().Str("signature", sig.String()).Uint64("slot", got.Context.Slot).Str("commitment", string(commitment)).Msg("Transaction reached commitment")

	return nil
}

func confirmationLevels(commitment rpc.CommitmentType) ([]rpc.CommitmentType, error) {
	switch commitment {
	case "", rpc.CommitmentConfirmed:
		return []rpc.CommitmentType{rpc.CommitmentConfirmed}, nil
	case rpc.CommitmentFinalized:
		return []rpc.CommitmentType{rpc.CommitmentConfirmed, rpc.CommitmentFinalized}, nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedCommitment, "%q", commitment)
	}
}

func report(onStatus func(StatusUpdate), status Status, sig solana.Signature) {
	if onStatus != nil {
		onStatus(StatusUpdate{Status: status, Signature: sig})
	}
}
