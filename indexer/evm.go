package indexer

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/hapi-labs/hapi-indexer/config"
	"github.com/hapi-labs/hapi-indexer/contract"
	"github.com/hapi-labs/hapi-indexer/entity"
	"github.com/hapi-labs/hapi-indexer/evmclient"
	"github.com/hapi-labs/hapi-indexer/logging"
)

// evmClient indexes a HAPI core deployment on an account/EVM-style network.
// Fetching walks bounded block ranges of eth_getLogs filtered by the
// contract address, processing decodes each log and enriches it with the
// full record read back from the contract state.
const defaultSyncedThreshold = 10

type evmClient struct {
	logger   logging.Logger
	network  entity.Network
	client   evmclient.Client
	contract *contract.Contract
	pageSize uint64

	headBlockMetric prometheus.Gauge
	syncedMetric    prometheus.Gauge
}

func NewEvmClient(logger logging.Logger, cfg *config.IndexerConfig) (Client, error) {
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid evm contract address %q", cfg.ContractAddress)
	}
	client, err := evmclient.NewClient(cfg.RPC.Host, cfg.RPC.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to start evm client: %w", err)
	}
	return newEvmClient(logger, cfg.Network, client, common.HexToAddress(cfg.ContractAddress), cfg.PageSize), nil
}

func newEvmClient(logger logging.Logger, network entity.Network, client evmclient.Client, address common.Address, pageSize uint64) *evmClient {
	labels := prometheus.Labels{"network": string(network), "address": address.Hex()}
	return &evmClient{
		logger:          logger,
		network:         network,
		client:          client,
		contract:        contract.NewContract(client, address),
		pageSize:        pageSize,
		headBlockMetric: LatestHeadBlock.With(labels),
		syncedMetric:    SyncedContract.With(labels),
	}
}

func (c *evmClient) Network() entity.Network {
	return c.network
}

// FetchJobs queries the next page of logs after the cursor. The returned
// cursor is the end of the queried range, not the last matching log, so
// empty ranges still advance. When the chain head is behind the cursor the
// cursor is returned unchanged.
func (c *evmClient) FetchJobs(ctx context.Context, cursor entity.Cursor) ([]entity.Job, entity.Cursor, error) {
	var fromBlock uint64
	switch {
	case cursor.IsNone():
		fromBlock = 0
	case cursor.Kind == entity.CursorBlock:
		fromBlock = cursor.BlockNumber
	default:
		return nil, cursor, fmt.Errorf("%s cursor on evm network: %w", cursor.Kind, ErrWrongCursorKind)
	}

	head, err := c.client.BlockNumber(ctx)
	if err != nil {
		return nil, cursor, fmt.Errorf("can't fetch latest block number: %w", err)
	}
	c.headBlockMetric.Set(float64(head))
	if fromBlock > head {
		c.recordIsSynced(fromBlock, head)
		c.logger.WithFields(logrus.Fields{
			"from_block": fromBlock,
			"head":       head,
		}).Debug("no new blocks to index")
		return nil, cursor, nil
	}

	toBlock := fromBlock + c.pageSize - 1
	if toBlock > head {
		toBlock = head
	}
	logs, err := c.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{c.contract.Address()},
	})
	if err != nil {
		return nil, cursor, fmt.Errorf("can't fetch logs in range: %w", err)
	}
	sort.Slice(logs, func(i, j int) bool {
		a, b := logs[i], logs[j]
		return a.BlockNumber < b.BlockNumber || (a.BlockNumber == b.BlockNumber && a.Index < b.Index)
	})

	jobs := make([]entity.Job, 0, len(logs))
	for i := range logs {
		jobs = append(jobs, entity.LogJob(&logs[i]))
	}
	c.recordIsSynced(toBlock+1, head)
	c.logger.WithFields(logrus.Fields{
		"count":      len(jobs),
		"from_block": fromBlock,
		"to_block":   toBlock,
	}).Info("fetched logs in range")
	return jobs, entity.BlockCursor(toBlock + 1), nil
}

func (c *evmClient) recordIsSynced(nextBlock, head uint64) {
	if nextBlock+defaultSyncedThreshold > head {
		c.syncedMetric.Set(1)
	} else {
		c.syncedMetric.Set(0)
	}
}

func (c *evmClient) HandleProcess(ctx context.Context, job entity.Job) ([]entity.PushPayload, error) {
	if job.Kind != entity.JobLog {
		return nil, fmt.Errorf("%s job on evm network: %w", job.Kind, ErrWrongJobKind)
	}
	log := job.Log

	name, values, err := c.contract.ParseLog(log)
	if err != nil {
		return nil, fmt.Errorf("can't parse log: %w", err)
	}
	if name == "" {
		c.logger.WithFields(logrus.Fields{
			"topic0":       log.Topics[0],
			"block_number": log.BlockNumber,
			"tx_hash":      log.TxHash,
		}).Warn("received unknown event")
		return nil, nil
	}

	event := entity.EventName(name)
	var data entity.PushData
	switch event {
	case entity.EventCreateReporter, entity.EventUpdateReporter, entity.EventActivateReporter,
		entity.EventDeactivateReporter, entity.EventUnstake:
		data, err = c.getReporter(ctx, values)
	case entity.EventCreateAddress, entity.EventUpdateAddress, entity.EventConfirmAddress:
		data, err = c.getAddress(ctx, values)
	case entity.EventCreateAsset, entity.EventUpdateAsset, entity.EventConfirmAsset:
		data, err = c.getAsset(ctx, values)
	case entity.EventCreateCase, entity.EventUpdateCase:
		// TODO: index case status updates once the payload for closed
		// cases is settled protocol-side.
		c.logger.WithField("event", name).Debug("case events are not indexed on evm networks")
		return nil, nil
	case entity.EventInitialize, entity.EventSetAuthority,
		entity.EventUpdateStakeConfiguration, entity.EventUpdateRewardConfiguration:
		c.logger.WithField("event", name).Info("received configuration event")
		return nil, nil
	default:
		c.logger.WithField("event", name).Warn("event is present in abi but not handled")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("can't process %s event: %w", name, err)
	}

	timestamp, err := c.blockTimestamp(ctx, log.BlockNumber)
	if err != nil {
		return nil, err
	}
	return []entity.PushPayload{{
		Network:     c.network,
		Event:       event,
		Data:        data,
		Transaction: log.TxHash.Hex(),
		BlockNumber: log.BlockNumber,
		Timestamp:   timestamp,
	}}, nil
}

func (c *evmClient) blockTimestamp(ctx context.Context, number uint64) (time.Time, error) {
	header, err := c.client.HeaderByNumber(ctx, number)
	if err != nil {
		return time.Time{}, fmt.Errorf("can't request block header: %w", err)
	}
	return time.Unix(int64(header.Time), 0).UTC(), nil
}

func (c *evmClient) getReporter(ctx context.Context, values map[string]interface{}) (entity.PushData, error) {
	id, err := fieldBig(values, "id")
	if err != nil {
		return nil, err
	}
	out, err := c.contract.Call(ctx, "getReporter", id)
	if err != nil {
		return nil, err
	}
	if len(out) != 8 {
		return nil, fmt.Errorf("unexpected getReporter output of %d values", len(out))
	}
	reporterID, err := uuidFromBig(out[0])
	if err != nil {
		return nil, err
	}
	account, err := outAddress(out, 1)
	if err != nil {
		return nil, err
	}
	role, err := outEnum(out, 2, entity.ParseReporterRole)
	if err != nil {
		return nil, err
	}
	status, err := outEnum(out, 3, entity.ParseReporterStatus)
	if err != nil {
		return nil, err
	}
	name, err := outString(out, 4)
	if err != nil {
		return nil, err
	}
	url, err := outString(out, 5)
	if err != nil {
		return nil, err
	}
	stake, err := outBig(out, 6)
	if err != nil {
		return nil, err
	}
	unlockTimestamp, err := outBig(out, 7)
	if err != nil {
		return nil, err
	}
	return entity.Reporter{
		ID:              reporterID,
		Account:         account.Hex(),
		Role:            role,
		Status:          status,
		Name:            name,
		URL:             url,
		Stake:           stake,
		UnlockTimestamp: unlockTimestamp.Uint64(),
	}, nil
}

func (c *evmClient) getAddress(ctx context.Context, values map[string]interface{}) (entity.PushData, error) {
	addr, ok := values["addr"].(common.Address)
	if !ok {
		return nil, fmt.Errorf("event field addr is not an address")
	}
	out, err := c.contract.Call(ctx, "getAddress", addr)
	if err != nil {
		return nil, err
	}
	if len(out) != 6 {
		return nil, fmt.Errorf("unexpected getAddress output of %d values", len(out))
	}
	caseID, err := uuidFromBig(out[1])
	if err != nil {
		return nil, err
	}
	reporterID, err := uuidFromBig(out[2])
	if err != nil {
		return nil, err
	}
	confirmations, err := outBig(out, 3)
	if err != nil {
		return nil, err
	}
	risk, err := outUint8(out, 4)
	if err != nil {
		return nil, err
	}
	category, err := outEnum(out, 5, entity.ParseCategory)
	if err != nil {
		return nil, err
	}
	return entity.Address{
		Address:       addr.Hex(),
		CaseID:        caseID,
		ReporterID:    reporterID,
		Risk:          risk,
		Category:      category,
		Confirmations: confirmations.Uint64(),
	}, nil
}

func (c *evmClient) getAsset(ctx context.Context, values map[string]interface{}) (entity.PushData, error) {
	addr, ok := values["addr"].(common.Address)
	if !ok {
		return nil, fmt.Errorf("event field addr is not an address")
	}
	assetID, err := fieldBig(values, "assetId")
	if err != nil {
		return nil, err
	}
	out, err := c.contract.Call(ctx, "getAsset", addr, assetID)
	if err != nil {
		return nil, err
	}
	if len(out) != 7 {
		return nil, fmt.Errorf("unexpected getAsset output of %d values", len(out))
	}
	caseID, err := uuidFromBig(out[2])
	if err != nil {
		return nil, err
	}
	reporterID, err := uuidFromBig(out[3])
	if err != nil {
		return nil, err
	}
	confirmations, err := outBig(out, 4)
	if err != nil {
		return nil, err
	}
	risk, err := outUint8(out, 5)
	if err != nil {
		return nil, err
	}
	category, err := outEnum(out, 6, entity.ParseCategory)
	if err != nil {
		return nil, err
	}
	return entity.Asset{
		Address:       addr.Hex(),
		AssetID:       assetID,
		CaseID:        caseID,
		ReporterID:    reporterID,
		Risk:          risk,
		Category:      category,
		Confirmations: confirmations.Uint64(),
	}, nil
}

// Record ids are 128-bit values packed big-endian and right-aligned in a
// 256-bit slot.
func uuidFromBig(v interface{}) (uuid.UUID, error) {
	n, ok := v.(*big.Int)
	if !ok {
		return uuid.Nil, fmt.Errorf("value %v is not an uint", v)
	}
	if n.BitLen() > 128 {
		return uuid.Nil, fmt.Errorf("id %s overflows 128 bits", n)
	}
	var b [16]byte
	n.FillBytes(b[:])
	return uuid.UUID(b), nil
}

func fieldBig(values map[string]interface{}, key string) (*big.Int, error) {
	v, ok := values[key].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("event field %s is not an uint", key)
	}
	return v, nil
}

func outBig(out []interface{}, i int) (*big.Int, error) {
	v, ok := out[i].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("output %d is not an uint", i)
	}
	return v, nil
}

func outUint8(out []interface{}, i int) (uint8, error) {
	v, ok := out[i].(uint8)
	if !ok {
		return 0, fmt.Errorf("output %d is not an uint8", i)
	}
	return v, nil
}

func outString(out []interface{}, i int) (string, error) {
	v, ok := out[i].(string)
	if !ok {
		return "", fmt.Errorf("output %d is not a string", i)
	}
	return v, nil
}

func outAddress(out []interface{}, i int) (common.Address, error) {
	v, ok := out[i].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("output %d is not an address", i)
	}
	return v, nil
}

func outEnum[T ~uint8](out []interface{}, i int, parse func(uint8) (T, error)) (T, error) {
	v, err := outUint8(out, i)
	if err != nil {
		return 0, err
	}
	return parse(v)
}
