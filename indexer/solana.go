package indexer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/big"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hapi-labs/hapi-indexer/config"
	"github.com/hapi-labs/hapi-indexer/entity"
	"github.com/hapi-labs/hapi-indexer/logging"
	"github.com/hapi-labs/hapi-indexer/solclient"
)

// Instruction names of the HAPI core Anchor program. Instructions are
// matched by the 8-byte discriminator sha256("global:<name>")[:8] that
// Anchor prepends to the instruction data.
var solanaInstructions = map[string]entity.EventName{
	"initialize":                  entity.EventInitialize,
	"set_authority":               entity.EventSetAuthority,
	"update_stake_configuration":  entity.EventUpdateStakeConfiguration,
	"update_reward_configuration": entity.EventUpdateRewardConfiguration,
	"create_reporter":             entity.EventCreateReporter,
	"update_reporter":             entity.EventUpdateReporter,
	"activate_reporter":           entity.EventActivateReporter,
	"deactivate_reporter":         entity.EventDeactivateReporter,
	"unstake":                     entity.EventUnstake,
	"create_case":                 entity.EventCreateCase,
	"update_case":                 entity.EventUpdateCase,
	"create_address":              entity.EventCreateAddress,
	"update_address":              entity.EventUpdateAddress,
	"confirm_address":             entity.EventConfirmAddress,
	"create_asset":                entity.EventCreateAsset,
	"update_asset":                entity.EventUpdateAsset,
	"confirm_asset":               entity.EventConfirmAsset,
}

func anchorDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("global:" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// Anchor prefixes owned account data with sha256("account:<Name>")[:8].
func anchorAccountDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

func buildDiscriminatorMap() map[[8]byte]entity.EventName {
	m := make(map[[8]byte]entity.EventName, len(solanaInstructions))
	for name, event := range solanaInstructions {
		m[anchorDiscriminator(name)] = event
	}
	return m
}

// solanaClient indexes a HAPI core program on a Solana-style network.
// Fetching walks the program's signature history backwards until the cursor
// signature, processing decodes the Borsh-encoded instruction data of each
// transaction.
type solanaClient struct {
	logger         logging.Logger
	network        entity.Network
	client         solclient.Client
	program        solana.PublicKey
	pageSize       int
	discriminators map[[8]byte]entity.EventName
}

func NewSolanaClient(logger logging.Logger, cfg *config.IndexerConfig) (Client, error) {
	program, err := solana.PublicKeyFromBase58(cfg.ContractAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid solana program address %q: %w", cfg.ContractAddress, err)
	}
	client := solclient.NewClient(cfg.RPC.Host, cfg.RPC.Timeout)
	return newSolanaClient(logger, cfg.Network, client, program, int(cfg.PageSize)), nil
}

func newSolanaClient(logger logging.Logger, network entity.Network, client solclient.Client, program solana.PublicKey, pageSize int) *solanaClient {
	return &solanaClient{
		logger:         logger,
		network:        network,
		client:         client,
		program:        program,
		pageSize:       pageSize,
		discriminators: buildDiscriminatorMap(),
	}
}

func (c *solanaClient) Network() entity.Network {
	return c.network
}

// FetchJobs collects all signatures newer than the cursor, oldest first.
// The new cursor is the most recent signature seen; with no new signatures
// the cursor is returned exactly unchanged.
func (c *solanaClient) FetchJobs(ctx context.Context, cursor entity.Cursor) ([]entity.Job, entity.Cursor, error) {
	var until solana.Signature
	switch {
	case cursor.IsNone():
	case cursor.Kind == entity.CursorTransaction:
		sig, err := solana.SignatureFromBase58(cursor.Transaction)
		if err != nil {
			return nil, cursor, fmt.Errorf("invalid transaction cursor %q: %w", cursor.Transaction, err)
		}
		until = sig
	default:
		return nil, cursor, fmt.Errorf("%s cursor on solana network: %w", cursor.Kind, ErrWrongCursorKind)
	}

	var history []solclient.SignatureInfo
	var before solana.Signature
	for {
		page, err := c.client.GetSignaturesForAddress(ctx, c.program, before, until, c.pageSize)
		if err != nil {
			return nil, cursor, fmt.Errorf("can't fetch signatures for program: %w", err)
		}
		history = append(history, page...)
		if len(page) < c.pageSize {
			break
		}
		before = page[len(page)-1].Signature
	}
	if len(history) == 0 {
		c.logger.WithField("cursor", cursor).Debug("no new transactions to index")
		return nil, cursor, nil
	}

	// history is newest first, jobs are processed oldest first
	jobs := make([]entity.Job, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		jobs = append(jobs, entity.TransactionJob(history[i].Signature))
	}
	next := entity.TransactionCursor(history[0].Signature.String())
	c.logger.WithFields(logrus.Fields{
		"count":  len(jobs),
		"cursor": next,
	}).Info("fetched new transactions")
	return jobs, next, nil
}

func (c *solanaClient) HandleProcess(ctx context.Context, job entity.Job) ([]entity.PushPayload, error) {
	if job.Kind != entity.JobTransaction {
		return nil, fmt.Errorf("%s job on solana network: %w", job.Kind, ErrWrongJobKind)
	}

	tx, err := c.client.GetTransaction(ctx, job.Signature)
	if err != nil {
		return nil, fmt.Errorf("can't fetch transaction %s: %w", job.Signature, err)
	}
	if tx.Tx == nil {
		return nil, fmt.Errorf("transaction %s has no payload", job.Signature)
	}

	var payloads []entity.PushPayload
	msg := &tx.Tx.Message
	for i, instruction := range msg.Instructions {
		if int(instruction.ProgramIDIndex) >= len(msg.AccountKeys) {
			return nil, fmt.Errorf("instruction %d of %s has invalid program index", i, job.Signature)
		}
		if !msg.AccountKeys[instruction.ProgramIDIndex].Equals(c.program) {
			continue
		}
		if len(instruction.Data) < 8 {
			return nil, fmt.Errorf("instruction %d of %s is too short for a discriminator", i, job.Signature)
		}

		var discriminator [8]byte
		copy(discriminator[:], instruction.Data[:8])
		event, ok := c.discriminators[discriminator]
		if !ok {
			c.logger.WithFields(logrus.Fields{
				"transaction":   job.Signature,
				"discriminator": fmt.Sprintf("%x", discriminator),
			}).Warn("received unknown instruction")
			continue
		}

		data, err := c.decodeInstruction(ctx, event, msg, instruction)
		if err != nil {
			return nil, fmt.Errorf("can't decode %s instruction of %s: %w", event, job.Signature, err)
		}
		if data == nil {
			c.logger.WithFields(logrus.Fields{
				"event":       event,
				"transaction": job.Signature,
			}).Debug("instruction is not indexed on solana networks")
			continue
		}
		payloads = append(payloads, entity.PushPayload{
			Network:     c.network,
			Event:       event,
			Data:        data,
			Transaction: job.Signature.String(),
			BlockNumber: tx.Slot,
			Timestamp:   tx.BlockTime,
		})
	}
	return payloads, nil
}

type solanaReporterArgs struct {
	ID      bin.Uint128
	Account solana.PublicKey
	Role    uint8
	Name    string
	URL     string
}

type solanaCaseArgs struct {
	ID         bin.Uint128
	ReporterID bin.Uint128
	Name       string
	URL        string
	Status     uint8
}

type solanaAddressArgs struct {
	Address    [64]byte
	CaseID     bin.Uint128
	ReporterID bin.Uint128
	Risk       uint8
	Category   uint8
}

type solanaAssetArgs struct {
	Address    [64]byte
	AssetID    bin.Uint128
	CaseID     bin.Uint128
	ReporterID bin.Uint128
	Risk       uint8
	Category   uint8
}

// Borsh layouts of the program's record accounts, past the 8-byte Anchor
// account discriminator.
type solanaReporterAccount struct {
	ID              bin.Uint128
	Account         solana.PublicKey
	Role            uint8
	Status          uint8
	Name            string
	URL             string
	Stake           uint64
	UnlockTimestamp uint64
}

type solanaAddressAccount struct {
	Address       [64]byte
	CaseID        bin.Uint128
	ReporterID    bin.Uint128
	Risk          uint8
	Category      uint8
	Confirmations uint64
}

type solanaAssetAccount struct {
	Address       [64]byte
	AssetID       bin.Uint128
	CaseID        bin.Uint128
	ReporterID    bin.Uint128
	Risk          uint8
	Category      uint8
	Confirmations uint64
}

// Record instructions list their accounts as [signer, record PDA, ...].
const recordAccountIndex = 1

func (c *solanaClient) recordAccountData(ctx context.Context, msg *solana.Message, instruction solana.CompiledInstruction, name string) ([]byte, error) {
	if len(instruction.Accounts) <= recordAccountIndex {
		return nil, fmt.Errorf("instruction carries no %s account", name)
	}
	idx := instruction.Accounts[recordAccountIndex]
	if int(idx) >= len(msg.AccountKeys) {
		return nil, fmt.Errorf("%s account index is out of range", name)
	}
	raw, err := c.client.GetAccountInfo(ctx, msg.AccountKeys[idx])
	if err != nil {
		return nil, fmt.Errorf("can't fetch %s account: %w", name, err)
	}
	discriminator := anchorAccountDiscriminator(name)
	if len(raw) < 8 || !bytes.Equal(raw[:8], discriminator[:]) {
		return nil, fmt.Errorf("account %s is not a %s record", msg.AccountKeys[idx], name)
	}
	return raw[8:], nil
}

func (c *solanaClient) reporterFromAccount(ctx context.Context, msg *solana.Message, instruction solana.CompiledInstruction) (entity.PushData, error) {
	raw, err := c.recordAccountData(ctx, msg, instruction, "Reporter")
	if err != nil {
		return nil, err
	}
	var account solanaReporterAccount
	if err := bin.NewBorshDecoder(raw).Decode(&account); err != nil {
		return nil, err
	}
	role, err := entity.ParseReporterRole(account.Role)
	if err != nil {
		return nil, err
	}
	status, err := entity.ParseReporterStatus(account.Status)
	if err != nil {
		return nil, err
	}
	return entity.Reporter{
		ID:              uuidFromUint128(account.ID),
		Account:         account.Account.String(),
		Role:            role,
		Status:          status,
		Name:            account.Name,
		URL:             account.URL,
		Stake:           new(big.Int).SetUint64(account.Stake),
		UnlockTimestamp: account.UnlockTimestamp,
	}, nil
}

func (c *solanaClient) addressFromAccount(ctx context.Context, msg *solana.Message, instruction solana.CompiledInstruction) (entity.PushData, error) {
	raw, err := c.recordAccountData(ctx, msg, instruction, "Address")
	if err != nil {
		return nil, err
	}
	var account solanaAddressAccount
	if err := bin.NewBorshDecoder(raw).Decode(&account); err != nil {
		return nil, err
	}
	category, err := entity.ParseCategory(account.Category)
	if err != nil {
		return nil, err
	}
	return entity.Address{
		Address:       decodeFixedAddress(account.Address),
		CaseID:        uuidFromUint128(account.CaseID),
		ReporterID:    uuidFromUint128(account.ReporterID),
		Risk:          account.Risk,
		Category:      category,
		Confirmations: account.Confirmations,
	}, nil
}

func (c *solanaClient) assetFromAccount(ctx context.Context, msg *solana.Message, instruction solana.CompiledInstruction) (entity.PushData, error) {
	raw, err := c.recordAccountData(ctx, msg, instruction, "Asset")
	if err != nil {
		return nil, err
	}
	var account solanaAssetAccount
	if err := bin.NewBorshDecoder(raw).Decode(&account); err != nil {
		return nil, err
	}
	category, err := entity.ParseCategory(account.Category)
	if err != nil {
		return nil, err
	}
	return entity.Asset{
		Address:       decodeFixedAddress(account.Address),
		AssetID:       account.AssetID.BigInt(),
		CaseID:        uuidFromUint128(account.CaseID),
		ReporterID:    uuidFromUint128(account.ReporterID),
		Risk:          account.Risk,
		Category:      category,
		Confirmations: account.Confirmations,
	}, nil
}

// decodeInstruction maps one instruction to a push data variant. Create and
// update instructions carry the full record in their Borsh arguments; status
// transitions and confirmations carry no arguments, so the record account is
// read back instead. Configuration instructions produce no protocol records
// and return nil.
func (c *solanaClient) decodeInstruction(ctx context.Context, event entity.EventName, msg *solana.Message, instruction solana.CompiledInstruction) (entity.PushData, error) {
	data := []byte(instruction.Data[8:])
	switch event {
	case entity.EventCreateReporter, entity.EventUpdateReporter:
		var args solanaReporterArgs
		if err := bin.NewBorshDecoder(data).Decode(&args); err != nil {
			return nil, err
		}
		role, err := entity.ParseReporterRole(args.Role)
		if err != nil {
			return nil, err
		}
		// new reporters are inactive until they stake; the activation flow
		// is tracked separately
		return entity.Reporter{
			ID:              uuidFromUint128(args.ID),
			Account:         args.Account.String(),
			Role:            role,
			Status:          entity.ReporterInactive,
			Name:            args.Name,
			URL:             args.URL,
			Stake:           big.NewInt(0),
			UnlockTimestamp: 0,
		}, nil
	case entity.EventCreateCase, entity.EventUpdateCase:
		var args solanaCaseArgs
		if err := bin.NewBorshDecoder(data).Decode(&args); err != nil {
			return nil, err
		}
		status, err := entity.ParseCaseStatus(args.Status)
		if err != nil {
			return nil, err
		}
		return entity.Case{
			ID:         uuidFromUint128(args.ID),
			Name:       args.Name,
			URL:        args.URL,
			Status:     status,
			ReporterID: uuidFromUint128(args.ReporterID),
		}, nil
	case entity.EventCreateAddress, entity.EventUpdateAddress:
		var args solanaAddressArgs
		if err := bin.NewBorshDecoder(data).Decode(&args); err != nil {
			return nil, err
		}
		category, err := entity.ParseCategory(args.Category)
		if err != nil {
			return nil, err
		}
		return entity.Address{
			Address:    decodeFixedAddress(args.Address),
			CaseID:     uuidFromUint128(args.CaseID),
			ReporterID: uuidFromUint128(args.ReporterID),
			Risk:       args.Risk,
			Category:   category,
		}, nil
	case entity.EventCreateAsset, entity.EventUpdateAsset:
		var args solanaAssetArgs
		if err := bin.NewBorshDecoder(data).Decode(&args); err != nil {
			return nil, err
		}
		category, err := entity.ParseCategory(args.Category)
		if err != nil {
			return nil, err
		}
		return entity.Asset{
			Address:    decodeFixedAddress(args.Address),
			AssetID:    args.AssetID.BigInt(),
			CaseID:     uuidFromUint128(args.CaseID),
			ReporterID: uuidFromUint128(args.ReporterID),
			Risk:       args.Risk,
			Category:   category,
		}, nil
	case entity.EventActivateReporter, entity.EventDeactivateReporter, entity.EventUnstake:
		return c.reporterFromAccount(ctx, msg, instruction)
	case entity.EventConfirmAddress:
		return c.addressFromAccount(ctx, msg, instruction)
	case entity.EventConfirmAsset:
		return c.assetFromAccount(ctx, msg, instruction)
	default:
		return nil, nil
	}
}

func uuidFromUint128(v bin.Uint128) uuid.UUID {
	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], v.Hi)
	binary.BigEndian.PutUint64(b[8:], v.Lo)
	return uuid.UUID(b)
}

// Cross-chain addresses are stored as zero-padded 64-byte strings.
func decodeFixedAddress(raw [64]byte) string {
	return string(bytes.TrimRight(raw[:], "\x00"))
}
