package solclient

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// SignatureInfo is one entry of the program's signature history.
type SignatureInfo struct {
	Signature solana.Signature
	Slot      uint64
}

// Transaction is a fetched transaction with the provenance fields the
// indexer consumes.
type Transaction struct {
	Signature solana.Signature
	Slot      uint64
	BlockTime time.Time
	Tx        *solana.Transaction
}

type Client interface {
	// GetSignaturesForAddress pages the signature history of an address,
	// newest first. A zero before/until signature means an open bound.
	GetSignaturesForAddress(ctx context.Context, address solana.PublicKey, before, until solana.Signature, limit int) ([]SignatureInfo, error)
	GetTransaction(ctx context.Context, signature solana.Signature) (*Transaction, error)
	// GetAccountInfo returns the raw data of an existing account.
	GetAccountInfo(ctx context.Context, account solana.PublicKey) ([]byte, error)
}

type rpcClient struct {
	url     string
	timeout time.Duration
	client  *rpc.Client
}

func NewClient(url string, timeout time.Duration) Client {
	return &rpcClient{
		url:     url,
		timeout: timeout,
		client:  rpc.New(url),
	}
}

func (c *rpcClient) GetSignaturesForAddress(ctx context.Context, address solana.PublicKey, before, until solana.Signature, limit int) ([]SignatureInfo, error) {
	defer ObserveDuration(c.url, "getSignaturesForAddress")()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	opts := &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: rpc.CommitmentFinalized,
	}
	if !before.IsZero() {
		opts.Before = before
	}
	if !until.IsZero() {
		opts.Until = until
	}
	res, err := c.client.GetSignaturesForAddressWithOpts(ctx, address, opts)
	ObserveError(c.url, "getSignaturesForAddress", err)
	if err != nil {
		return nil, err
	}
	infos := make([]SignatureInfo, 0, len(res))
	for _, sig := range res {
		infos = append(infos, SignatureInfo{
			Signature: sig.Signature,
			Slot:      sig.Slot,
		})
	}
	return infos, nil
}

func (c *rpcClient) GetTransaction(ctx context.Context, signature solana.Signature) (*Transaction, error) {
	defer ObserveDuration(c.url, "getTransaction")()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	maxVersion := uint64(0)
	res, err := c.client.GetTransaction(ctx, signature, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentFinalized,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	ObserveError(c.url, "getTransaction", err)
	if err != nil {
		return nil, err
	}
	tx, err := res.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("can't decode transaction %s: %w", signature, err)
	}
	out := &Transaction{
		Signature: signature,
		Slot:      res.Slot,
		Tx:        tx,
	}
	if res.BlockTime != nil {
		out.BlockTime = res.BlockTime.Time()
	}
	return out, nil
}

func (c *rpcClient) GetAccountInfo(ctx context.Context, account solana.PublicKey) ([]byte, error) {
	defer ObserveDuration(c.url, "getAccountInfo")()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.client.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: rpc.CommitmentFinalized,
	})
	ObserveError(c.url, "getAccountInfo", err)
	if err != nil {
		return nil, err
	}
	if res.Value == nil {
		return nil, fmt.Errorf("account %s does not exist", account)
	}
	return res.Value.Data.GetBinary(), nil
}
