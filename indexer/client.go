package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/hapi-labs/hapi-indexer/config"
	"github.com/hapi-labs/hapi-indexer/entity"
	"github.com/hapi-labs/hapi-indexer/logging"
)

var (
	// ErrUnsupportedNetwork is returned by every operation of a client for
	// a network kind that has no indexing implementation yet.
	ErrUnsupportedNetwork = errors.New("indexing is not supported for this network")

	// ErrWrongJobKind marks a job handed to a client of another network
	// kind. This is a contract violation, not a recoverable input error.
	ErrWrongJobKind = errors.New("job kind does not match client network")

	// ErrWrongCursorKind marks a cursor that cannot belong to the client's
	// network kind.
	ErrWrongCursorKind = errors.New("cursor kind does not match client network")
)

// Client fetches raw activity of one HAPI contract deployment and decodes it
// into normalized payloads. One implementation exists per ledger family.
type Client interface {
	Network() entity.Network

	// FetchJobs returns the next page of jobs strictly after the cursor and
	// a cursor that resumes exactly after the last covered position.
	FetchJobs(ctx context.Context, cursor entity.Cursor) ([]entity.Job, entity.Cursor, error)

	// HandleProcess decodes one job produced by this client into zero or
	// more payloads. Recognized event kinds without a mapping yield nil.
	HandleProcess(ctx context.Context, job entity.Job) ([]entity.PushPayload, error)
}

// NewClient selects the concrete client for the configured network kind.
func NewClient(logger logging.Logger, cfg *config.IndexerConfig) (Client, error) {
	switch {
	case cfg.Network.IsEvm():
		return NewEvmClient(logger, cfg)
	case cfg.Network.IsSolana():
		return NewSolanaClient(logger, cfg)
	case cfg.Network == entity.NetworkNear:
		return &unsupportedClient{network: cfg.Network}, nil
	default:
		return nil, fmt.Errorf("network %q: %w", cfg.Network, ErrUnsupportedNetwork)
	}
}

type unsupportedClient struct {
	network entity.Network
}

func (c *unsupportedClient) Network() entity.Network {
	return c.network
}

func (c *unsupportedClient) FetchJobs(_ context.Context, _ entity.Cursor) ([]entity.Job, entity.Cursor, error) {
	return nil, entity.NoneCursor(), fmt.Errorf("network %q: %w", c.network, ErrUnsupportedNetwork)
}

func (c *unsupportedClient) HandleProcess(_ context.Context, _ entity.Job) ([]entity.PushPayload, error) {
	return nil, fmt.Errorf("network %q: %w", c.network, ErrUnsupportedNetwork)
}
