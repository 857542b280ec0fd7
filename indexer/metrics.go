package indexer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LatestCursorBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "indexer",
		Subsystem: "contract",
		Name:      "latest_cursor_block",
		Help:      "Shows the committed block cursor for the particular contract. Activity up to this block is already processed and pushed.",
	}, []string{"network", "address"})
	LatestHeadBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "indexer",
		Subsystem: "contract",
		Name:      "latest_head_block",
		Help:      "Shows the latest fetched head block for the particular contract. Logs up to this block are waiting to be fetched.",
	}, []string{"network", "address"})
	SyncedContract = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "indexer",
		Subsystem: "contract",
		Name:      "synced",
		Help:      "Shows 1 if the contract is considered as synced up to chain head.",
	}, []string{"network", "address"})
	PushedPayloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "contract",
		Name:      "pushed_payloads_total",
		Help:      "Counts normalized payloads handed to the delivery collaborator.",
	}, []string{"network", "address", "event"})
	FailedIterations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "contract",
		Name:      "failed_iterations_total",
		Help:      "Counts indexing iterations aborted without committing a cursor.",
	}, []string{"network", "address"})
)
