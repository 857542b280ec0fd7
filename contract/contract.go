package contract

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/hapi-labs/hapi-indexer/contract/abi"
	"github.com/hapi-labs/hapi-indexer/evmclient"
)

// Contract is a read-only binding of a deployed HAPI core contract.
type Contract struct {
	address common.Address
	client  evmclient.Client
	abi     *abi.ABI
}

func NewContract(client evmclient.Client, addr common.Address) *Contract {
	return &Contract{addr, client, abi.HapiCore}
}

func (c *Contract) Address() common.Address {
	return c.address
}

func (c *Contract) ParseLog(log *types.Log) (string, map[string]interface{}, error) {
	return c.abi.ParseLog(log)
}

// Call performs an eth_call of a view method and returns its decoded
// outputs.
func (c *Contract) Call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("cannot encode abi calldata: %w", err)
	}
	res, err := c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &c.address,
		Data: data,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot call %s(...): %w", method, err)
	}
	values, err := c.abi.Unpack(method, res)
	if err != nil {
		return nil, fmt.Errorf("cannot decode %s(...) result: %w", method, err)
	}
	return values, nil
}
