package solana

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

var (
	// ErrSolanaNetworkNotSupported is returned when an unknown Solana network name is requested
	ErrSolanaNetworkNotSupported = errors.New("the provided network is not a valid Solana network")

	// ErrUnsupportedScheme is returned when a websocket url can't be derived from the rpc url
	ErrUnsupportedScheme = errors.New("rpc url must use the http or https scheme")

	// tokenProgram is the address of the original token program
	tokenProgram = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

	// tokenProgram2022 is the address of the token program with extensions
	tokenProgram2022 = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")

	// tokenMetadataProgram is the address of the Metaplex token metadata program
	tokenMetadataProgram = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")
)

const (
	// rpcRequestsPerSecond allowed towards the rpc node, with some burst on top
	rpcRequestsPerSecond = 10
	rpcBurst             = 10
)

// Client bundles the rpc and websocket connection to a single Solana node.
type Client struct {
	rpcClient *rpc.Client
	wsClient  *ws.Client
}

// Connect to the node behind rpcURL. rpcURL is either a full url or one of the
// network names understood by ResolveEndpoints. If wsURL is empty it is derived
// from the rpc url.
func Connect(ctx context.Context, rpcURL string, wsURL string) (*Client, error) {
	endpoints, err := ResolveEndpoints(rpcURL, wsURL)
	if err != nil {
		return nil, err
	}

	log.Info().Str("url", endpoints.RPC).Msg("Using connection URL")
	log.Info().Str("url", endpoints.WS).Bool("computed", endpoints.WSComputed).Msg("Using websockets URL")

	rpcClient := rpc.NewWithCustomRPCClient(rpc.NewWithLimiter(endpoints.RPC, rate.Every(time.Second/rpcRequestsPerSecond), rpcBurst))

	wsClient, err := ws.Connect(ctx, endpoints.WS)
	if err != nil {
		rpcClient.Close()
		return nil, errors.Wrap(err, "failed to establish websocket connection")
	}

	return &Client{rpcClient: rpcClient, wsClient: wsClient}, nil
}

// LatestBlockhash fetches the most recent blockhash, which bounds the validity
// window of a transaction built on top of it.
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	recent, err := c.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, errors.Wrap(err, "failed to get latest finalized block hash")
	}
	if recent == nil || recent.Value == nil {
		return solana.Hash{}, errors.New("node returned an empty blockhash")
	}

	log.Debug().Str("blockhash", recent.Value.Blockhash.String()).Uint64("lastValidBlockHeight", recent.Value.LastValidBlockHeight).Msg("Fetched latest blockhash")

	return recent.Value.Blockhash, nil
}

// Close the client terminating all subscriptions and open connections
func (c *Client) Close() error {
	if c.wsClient != nil {
		c.wsClient.Close()
	}
	return c.rpcClient.Close()
}
