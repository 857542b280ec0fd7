package entity

import "fmt"

// Network identifies a HAPI contract deployment target. The ledger family of
// the network decides how activity is fetched and decoded.
type Network string

const (
	NetworkEthereum Network = "ethereum"
	NetworkBsc      Network = "bsc"
	NetworkSepolia  Network = "sepolia"
	NetworkNear     Network = "near"
	NetworkSolana   Network = "solana"
	NetworkBitcoin  Network = "bitcoin"
)

func ParseNetwork(s string) (Network, error) {
	switch n := Network(s); n {
	case NetworkEthereum, NetworkBsc, NetworkSepolia, NetworkNear, NetworkSolana, NetworkBitcoin:
		return n, nil
	default:
		return "", fmt.Errorf("unknown network %q", s)
	}
}

func (n Network) IsEvm() bool {
	return n == NetworkEthereum || n == NetworkBsc || n == NetworkSepolia
}

// IsSolana reports whether the network is served by a Solana-style runtime.
// The bitcoin deployment of HAPI is tracked through its Solana program.
func (n Network) IsSolana() bool {
	return n == NetworkSolana || n == NetworkBitcoin
}
