package solana

import (
	"net/url"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
)

// Endpoints of the node to talk to.
type Endpoints struct {
	// RPC http(s) url
	RPC string
	// WS websocket url
	WS string
	// WSComputed is set when WS was derived rather than given
	WSComputed bool
}

// ResolveEndpoints turns the rpc and optional websocket flag values into
// concrete urls. A known network name selects the public cluster endpoints.
func ResolveEndpoints(rpcURL string, wsURL string) (Endpoints, error) {
	if cluster, ok := clusterByName(rpcURL); ok {
		endpoints := Endpoints{RPC: cluster.RPC, WS: cluster.WS, WSComputed: wsURL == ""}
		if wsURL != "" {
			endpoints.WS = wsURL
		}
		return endpoints, nil
	}

	if wsURL != "" {
		return Endpoints{RPC: rpcURL, WS: wsURL}, nil
	}

	derived, err := WebsocketURL(rpcURL)
	if err != nil {
		return Endpoints{}, err
	}

	return Endpoints{RPC: rpcURL, WS: derived, WSComputed: true}, nil
}

// WebsocketURL derives the websocket url from an rpc url by swapping the
// scheme: http becomes ws and https becomes wss. Host, port and path are kept.
func WebsocketURL(rpcURL string) (string, error) {
	u, err := url.Parse(rpcURL)
	if err != nil {
		return "", errors.Wrap(err, "could not parse rpc url")
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", errors.Wrapf(ErrUnsupportedScheme, "got %q", u.Scheme)
	}

	return u.String(), nil
}

// IsNetworkName reports whether name is one of the cluster shortcuts
func IsNetworkName(name string) bool {
	_, ok := clusterByName(name)
	return ok
}

func clusterByName(name string) (rpc.Cluster, bool) {
	switch name {
	case "local":
		return rpc.LocalNet, true
	case "devnet":
		return rpc.DevNet, true
	case "testnet":
		return rpc.TestNet, true
	case "mainnet", "production":
		return rpc.MainNetBeta, true
	default:
		return rpc.Cluster{}, false
	}
}
