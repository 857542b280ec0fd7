package entity

import (
	"math/big"
	"time"

	"github.com/google/uuid"
)

// EventName enumerates the state-change events emitted by HAPI core
// contracts. The set is shared by all deployments, only the on-chain
// encoding differs per network.
type EventName string

const (
	EventInitialize                EventName = "Initialize"
	EventSetAuthority              EventName = "SetAuthority"
	EventUpdateStakeConfiguration  EventName = "UpdateStakeConfiguration"
	EventUpdateRewardConfiguration EventName = "UpdateRewardConfiguration"
	EventCreateReporter            EventName = "CreateReporter"
	EventUpdateReporter            EventName = "UpdateReporter"
	EventActivateReporter          EventName = "ActivateReporter"
	EventDeactivateReporter        EventName = "DeactivateReporter"
	EventUnstake                   EventName = "Unstake"
	EventCreateCase                EventName = "CreateCase"
	EventUpdateCase                EventName = "UpdateCase"
	EventCreateAddress             EventName = "CreateAddress"
	EventUpdateAddress             EventName = "UpdateAddress"
	EventConfirmAddress            EventName = "ConfirmAddress"
	EventCreateAsset               EventName = "CreateAsset"
	EventUpdateAsset               EventName = "UpdateAsset"
	EventConfirmAsset              EventName = "ConfirmAsset"
)

// PushData is a normalized, chain-independent protocol record. Exactly one
// concrete variant backs each value: Reporter, Case, Address or Asset.
type PushData interface {
	DataKind() string
}

type Reporter struct {
	ID              uuid.UUID      `json:"id"`
	Account         string         `json:"account"`
	Role            ReporterRole   `json:"role"`
	Status          ReporterStatus `json:"status"`
	Name            string         `json:"name"`
	URL             string         `json:"url"`
	Stake           *big.Int       `json:"stake"`
	UnlockTimestamp uint64         `json:"unlock_timestamp"`
}

func (Reporter) DataKind() string { return "reporter" }

type Case struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	URL        string     `json:"url"`
	Status     CaseStatus `json:"status"`
	ReporterID uuid.UUID  `json:"reporter_id"`
}

func (Case) DataKind() string { return "case" }

type Address struct {
	Address       string    `json:"address"`
	CaseID        uuid.UUID `json:"case_id"`
	ReporterID    uuid.UUID `json:"reporter_id"`
	Risk          uint8     `json:"risk"`
	Category      Category  `json:"category"`
	Confirmations uint64    `json:"confirmations"`
}

func (Address) DataKind() string { return "address" }

type Asset struct {
	Address       string    `json:"address"`
	AssetID       *big.Int  `json:"asset_id"`
	CaseID        uuid.UUID `json:"case_id"`
	ReporterID    uuid.UUID `json:"reporter_id"`
	Risk          uint8     `json:"risk"`
	Category      Category  `json:"category"`
	Confirmations uint64    `json:"confirmations"`
}

func (Asset) DataKind() string { return "asset" }

// PushPayload is the unit handed to the delivery collaborator: the decoded
// record plus its chain provenance. Constructed once per event, never
// mutated afterwards.
type PushPayload struct {
	Network     Network   `json:"network"`
	Event       EventName `json:"event"`
	Data        PushData  `json:"data"`
	Transaction string    `json:"transaction"`
	BlockNumber uint64    `json:"block_number"`
	Timestamp   time.Time `json:"timestamp"`
}
