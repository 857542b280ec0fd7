package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hapi-labs/hapi-indexer/db"
	"github.com/hapi-labs/hapi-indexer/entity"
	"github.com/hapi-labs/hapi-indexer/logging"
)

type stubNetworkClient struct {
	network entity.Network
	fetch   func(cursor entity.Cursor) ([]entity.Job, entity.Cursor, error)
	process func(job entity.Job) ([]entity.PushPayload, error)
}

func (c *stubNetworkClient) Network() entity.Network {
	return c.network
}

func (c *stubNetworkClient) FetchJobs(_ context.Context, cursor entity.Cursor) ([]entity.Job, entity.Cursor, error) {
	return c.fetch(cursor)
}

func (c *stubNetworkClient) HandleProcess(_ context.Context, job entity.Job) ([]entity.PushPayload, error) {
	return c.process(job)
}

type memCursors struct {
	ensureErr error
	saved     []entity.Cursor
	stored    map[string]entity.Cursor
}

func (r *memCursors) Ensure(_ context.Context, network entity.Network, address string, cursor entity.Cursor) error {
	if r.ensureErr != nil {
		return r.ensureErr
	}
	if r.stored == nil {
		r.stored = make(map[string]entity.Cursor)
	}
	r.stored[string(network)+"/"+address] = cursor
	r.saved = append(r.saved, cursor)
	return nil
}

func (r *memCursors) GetByNetworkAndAddress(_ context.Context, network entity.Network, address string) (entity.Cursor, error) {
	cursor, ok := r.stored[string(network)+"/"+address]
	if !ok {
		return entity.NoneCursor(), db.ErrNotFound
	}
	return cursor, nil
}

type fakePusher struct {
	err      error
	payloads []entity.PushPayload
}

func (p *fakePusher) Push(_ context.Context, payload entity.PushPayload) error {
	if p.err != nil {
		return p.err
	}
	p.payloads = append(p.payloads, payload)
	return nil
}

func evmJobs(t *testing.T, blockNumbers ...uint64) []entity.Job {
	t.Helper()
	jobs := make([]entity.Job, 0, len(blockNumbers))
	for _, n := range blockNumbers {
		log := eventLog(t, "CreateCase", n, nil)
		jobs = append(jobs, entity.LogJob(&log))
	}
	return jobs
}

func newTestIndexer(client Client, pusher *fakePusher, cursors *memCursors) *Indexer {
	return New(logging.New(), client, pusher, cursors,
		testIndexerConfig(client.Network(), testContractAddr.Hex()))
}

func TestIndexer_RunIteration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("commits cursor after fully processed page", func(t *testing.T) {
		t.Parallel()
		client := &stubNetworkClient{
			network: entity.NetworkEthereum,
			fetch: func(entity.Cursor) ([]entity.Job, entity.Cursor, error) {
				return evmJobs(t, 10, 20), entity.BlockCursor(500), nil
			},
			process: func(job entity.Job) ([]entity.PushPayload, error) {
				return []entity.PushPayload{{
					Network:     entity.NetworkEthereum,
					Event:       entity.EventCreateCase,
					Data:        entity.Case{},
					BlockNumber: job.Log.BlockNumber,
				}}, nil
			},
		}
		pusher := &fakePusher{}
		cursors := &memCursors{}
		ix := newTestIndexer(client, pusher, cursors)

		next, err := ix.runIteration(ctx, entity.NoneCursor())
		require.NoError(t, err)
		require.Equal(t, entity.BlockCursor(500), next)
		require.Equal(t, []entity.Cursor{entity.BlockCursor(500)}, cursors.saved)

		require.Len(t, pusher.payloads, 2)
		require.EqualValues(t, 10, pusher.payloads[0].BlockNumber)
		require.EqualValues(t, 20, pusher.payloads[1].BlockNumber)
	})

	t.Run("unchanged cursor is not rewritten", func(t *testing.T) {
		t.Parallel()
		cursor := entity.BlockCursor(2000)
		client := &stubNetworkClient{
			network: entity.NetworkEthereum,
			fetch: func(c entity.Cursor) ([]entity.Job, entity.Cursor, error) {
				return nil, c, nil
			},
		}
		cursors := &memCursors{}
		ix := newTestIndexer(client, &fakePusher{}, cursors)

		next, err := ix.runIteration(ctx, cursor)
		require.NoError(t, err)
		require.Equal(t, cursor, next)
		require.Empty(t, cursors.saved)
	})

	t.Run("fetch failure does not commit", func(t *testing.T) {
		t.Parallel()
		client := &stubNetworkClient{
			network: entity.NetworkEthereum,
			fetch: func(entity.Cursor) ([]entity.Job, entity.Cursor, error) {
				return nil, entity.NoneCursor(), errors.New("rpc is down")
			},
		}
		cursors := &memCursors{}
		ix := newTestIndexer(client, &fakePusher{}, cursors)

		_, err := ix.runIteration(ctx, entity.BlockCursor(100))
		require.Error(t, err)
		require.Empty(t, cursors.saved)
	})

	t.Run("process failure does not commit", func(t *testing.T) {
		t.Parallel()
		client := &stubNetworkClient{
			network: entity.NetworkEthereum,
			fetch: func(entity.Cursor) ([]entity.Job, entity.Cursor, error) {
				return evmJobs(t, 10), entity.BlockCursor(500), nil
			},
			process: func(entity.Job) ([]entity.PushPayload, error) {
				return nil, errors.New("malformed event")
			},
		}
		cursors := &memCursors{}
		ix := newTestIndexer(client, &fakePusher{}, cursors)

		_, err := ix.runIteration(ctx, entity.NoneCursor())
		require.Error(t, err)
		require.Empty(t, cursors.saved)
	})

	t.Run("push failure does not commit", func(t *testing.T) {
		t.Parallel()
		client := &stubNetworkClient{
			network: entity.NetworkEthereum,
			fetch: func(entity.Cursor) ([]entity.Job, entity.Cursor, error) {
				return evmJobs(t, 10), entity.BlockCursor(500), nil
			},
			process: func(entity.Job) ([]entity.PushPayload, error) {
				return []entity.PushPayload{{Event: entity.EventCreateCase, Data: entity.Case{}}}, nil
			},
		}
		cursors := &memCursors{}
		ix := newTestIndexer(client, &fakePusher{err: errors.New("webhook is down")}, cursors)

		_, err := ix.runIteration(ctx, entity.NoneCursor())
		require.Error(t, err)
		require.Empty(t, cursors.saved)
	})

	t.Run("commit failure surfaces", func(t *testing.T) {
		t.Parallel()
		client := &stubNetworkClient{
			network: entity.NetworkEthereum,
			fetch: func(entity.Cursor) ([]entity.Job, entity.Cursor, error) {
				return nil, entity.BlockCursor(500), nil
			},
		}
		cursors := &memCursors{ensureErr: errors.New("db is down")}
		ix := newTestIndexer(client, &fakePusher{}, cursors)

		_, err := ix.runIteration(ctx, entity.NoneCursor())
		require.Error(t, err)
	})
}

func TestIndexer_Run(t *testing.T) {
	t.Parallel()

	t.Run("starts from scratch and resumes across iterations", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var seen []entity.Cursor
		client := &stubNetworkClient{
			network: entity.NetworkEthereum,
			fetch: func(cursor entity.Cursor) ([]entity.Job, entity.Cursor, error) {
				seen = append(seen, cursor)
				switch len(seen) {
				case 1:
					return nil, entity.BlockCursor(500), nil
				case 2:
					return nil, entity.BlockCursor(1000), nil
				default:
					cancel()
					return nil, cursor, nil
				}
			},
		}
		cursors := &memCursors{}
		ix := newTestIndexer(client, &fakePusher{}, cursors)

		err := ix.Run(ctx)
		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, []entity.Cursor{
			entity.NoneCursor(),
			entity.BlockCursor(500),
			entity.BlockCursor(1000),
		}, seen[:3])
		require.Equal(t, []entity.Cursor{
			entity.BlockCursor(500),
			entity.BlockCursor(1000),
		}, cursors.saved)
	})

	t.Run("resumes from persisted cursor", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		cursors := &memCursors{}
		require.NoError(t, cursors.Ensure(ctx, entity.NetworkEthereum, testContractAddr.Hex(), entity.BlockCursor(1500)))
		cursors.saved = nil

		var got entity.Cursor
		client := &stubNetworkClient{
			network: entity.NetworkEthereum,
			fetch: func(cursor entity.Cursor) ([]entity.Job, entity.Cursor, error) {
				got = cursor
				cancel()
				return nil, cursor, nil
			},
		}
		ix := newTestIndexer(client, &fakePusher{}, cursors)

		err := ix.Run(ctx)
		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, entity.BlockCursor(1500), got)
	})

	t.Run("retries failed iteration without moving the cursor", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var attempts int
		client := &stubNetworkClient{
			network: entity.NetworkEthereum,
			fetch: func(cursor entity.Cursor) ([]entity.Job, entity.Cursor, error) {
				attempts++
				if attempts < 3 {
					return nil, cursor, errors.New("rpc is down")
				}
				cancel()
				return nil, cursor, nil
			},
		}
		cursors := &memCursors{}
		ix := newTestIndexer(client, &fakePusher{}, cursors)

		err := ix.Run(ctx)
		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, 3, attempts)
		require.Empty(t, cursors.saved)
	})
}
