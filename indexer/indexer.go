package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/hapi-labs/hapi-indexer/config"
	"github.com/hapi-labs/hapi-indexer/db"
	"github.com/hapi-labs/hapi-indexer/entity"
	"github.com/hapi-labs/hapi-indexer/logging"
	"github.com/hapi-labs/hapi-indexer/push"
	"github.com/hapi-labs/hapi-indexer/utils"
)

// Indexer drives one network/contract pair: on every wake it fetches the
// page of jobs after the current cursor, decodes them in return order,
// forwards the payloads and commits the page's cursor. The cursor is owned
// exclusively by this loop, read once at start and written after every
// fully processed page.
type Indexer struct {
	logger        logging.Logger
	client        Client
	pusher        push.Pusher
	cursors       entity.CursorsRepo
	address       string
	waitInterval  time.Duration
	retryInterval time.Duration

	cursorMetric   prometheus.Gauge
	failuresMetric prometheus.Counter
	payloadsMetric *prometheus.CounterVec
}

func New(logger logging.Logger, client Client, pusher push.Pusher, cursors entity.CursorsRepo, cfg *config.IndexerConfig) *Indexer {
	network := string(client.Network())
	return &Indexer{
		logger:         logger,
		client:         client,
		pusher:         pusher,
		cursors:        cursors,
		address:        cfg.ContractAddress,
		waitInterval:   cfg.WaitInterval,
		retryInterval:  cfg.RetryInterval,
		cursorMetric:   LatestCursorBlock.WithLabelValues(network, cfg.ContractAddress),
		failuresMetric: FailedIterations.WithLabelValues(network, cfg.ContractAddress),
		payloadsMetric: PushedPayloads.MustCurryWith(prometheus.Labels{
			"network": network,
			"address": cfg.ContractAddress,
		}),
	}
}

// Run blocks until the context is cancelled. A failed iteration never
// commits its cursor, so the next wake refetches the same page; delivery
// downstream is therefore at-least-once.
func (ix *Indexer) Run(ctx context.Context) error {
	cursor, err := ix.loadCursor(ctx)
	if err != nil {
		return err
	}
	ix.logger.WithFields(logrus.Fields{
		"network": ix.client.Network(),
		"address": ix.address,
		"cursor":  cursor,
	}).Info("starting indexing loop")

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		next, err := ix.runIteration(ctx, cursor)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			ix.failuresMetric.Inc()
			ix.logger.WithError(err).WithField("cursor", cursor).Error("indexing iteration failed, retrying")
			if utils.ContextSleep(ctx, ix.retryInterval) == nil {
				return ctx.Err()
			}
			continue
		}
		cursor = next
		if utils.ContextSleep(ctx, ix.waitInterval) == nil {
			return ctx.Err()
		}
	}
}

func (ix *Indexer) loadCursor(ctx context.Context) (entity.Cursor, error) {
	cursor, err := ix.cursors.GetByNetworkAndAddress(ctx, ix.client.Network(), ix.address)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ix.logger.WithFields(logrus.Fields{
				"network": ix.client.Network(),
				"address": ix.address,
			}).Warn("indexing cursor is not present, starting indexing from scratch")
			return entity.NoneCursor(), nil
		}
		return entity.NoneCursor(), fmt.Errorf("failed to read indexing cursor: %w", err)
	}
	return cursor, nil
}

func (ix *Indexer) runIteration(ctx context.Context, cursor entity.Cursor) (entity.Cursor, error) {
	jobs, next, err := ix.client.FetchJobs(ctx, cursor)
	if err != nil {
		return cursor, err
	}

	for _, job := range jobs {
		payloads, err := ix.client.HandleProcess(ctx, job)
		if err != nil {
			return cursor, fmt.Errorf("can't process job %s: %w", job, err)
		}
		for _, payload := range payloads {
			if err := ix.pusher.Push(ctx, payload); err != nil {
				return cursor, fmt.Errorf("can't push %s payload of job %s: %w", payload.Event, job, err)
			}
			ix.payloadsMetric.WithLabelValues(string(payload.Event)).Inc()
		}
	}

	if next != cursor {
		if err := ix.cursors.Ensure(ctx, ix.client.Network(), ix.address, next); err != nil {
			return cursor, fmt.Errorf("can't commit indexing cursor: %w", err)
		}
		if next.Kind == entity.CursorBlock {
			ix.cursorMetric.Set(float64(next.BlockNumber))
		}
		ix.logger.WithFields(logrus.Fields{
			"jobs":   len(jobs),
			"cursor": next,
		}).Debug("committed new cursor")
	}
	return next, nil
}
