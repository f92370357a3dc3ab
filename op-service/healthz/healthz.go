// Package healthz provides the reorg detector's default event sink: a
// reactive health status backed by Prometheus gauges and a small JSON HTTP
// handler, in the header-driven-check/JSON-status idiom used for node
// health endpoints elsewhere in the examples this module draws on.
package healthz

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ethereum-optimism/reorg-monitor/op-node/rollup/reorg"
	"github.com/ethereum-optimism/reorg-monitor/op-service/eth"
)

// Status is the coarse-grained health state the reorg detector publishes.
type Status string

const (
	StatusReady        Status = "ready"
	StatusAffected     Status = "affected"
	StatusShuttingDown Status = "shutting_down"
)

// snapshot is the JSON body served by Reporter.ServeHTTP.
type snapshot struct {
	Status           Status  `json:"status"`
	LastCorrectBlock *uint32 `json:"last_correct_block,omitempty"`
	LastCorrectBatch *uint32 `json:"last_correct_batch,omitempty"`
	DivergedBatch    *uint32 `json:"diverged_batch,omitempty"`
}

// Reporter is the default reorg.EventSink: it tracks the latest health
// snapshot behind an atomic pointer (a "reactive", latest-value health
// check, not a queued log of past transitions) and mirrors the correct
// block/batch numbers into two Prometheus gauges.
type Reporter struct {
	current atomic.Pointer[snapshot]

	lastCorrectBlock prometheus.Gauge
	lastCorrectBatch prometheus.Gauge
}

// NewReporter constructs a Reporter and registers its gauges with reg. reg
// may be a dedicated registry or prometheus.DefaultRegisterer.
func NewReporter(reg prometheus.Registerer, namespace, component string) *Reporter {
	r := &Reporter{
		lastCorrectBlock: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: component,
			Name:      "last_correct_block",
			Help:      "Highest local miniblock number confirmed to match the main node.",
		}),
		lastCorrectBatch: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: component,
			Name:      "last_correct_batch",
			Help:      "Highest local L1 batch number confirmed to match the main node.",
		}),
	}
	reg.MustRegister(r.lastCorrectBlock, r.lastCorrectBatch)
	r.current.Store(&snapshot{Status: StatusReady})
	return r
}

func (r *Reporter) Initialize() {
	r.current.Store(&snapshot{Status: StatusReady})
}

func (r *Reporter) UpdateCorrectBlock(lastCorrectBlock eth.BlockNumber, lastCorrectBatch eth.BatchNumber) {
	r.lastCorrectBlock.Set(float64(lastCorrectBlock))
	r.lastCorrectBatch.Set(float64(lastCorrectBatch))

	block := uint32(lastCorrectBlock)
	batch := uint32(lastCorrectBatch)
	r.current.Store(&snapshot{
		Status:           StatusReady,
		LastCorrectBlock: &block,
		LastCorrectBatch: &batch,
	})
}

func (r *Reporter) ReportDivergence(loc eth.DivergenceLocation) {
	batch := uint32(loc.FirstDiverged)
	r.current.Store(&snapshot{
		Status:        StatusAffected,
		DivergedBatch: &batch,
	})
}

func (r *Reporter) StartShuttingDown() {
	r.current.Store(&snapshot{Status: StatusShuttingDown})
}

// ServeHTTP reports the current snapshot as JSON. A reorg.EventSink
// implementation doesn't itself need an HTTP surface, but the production
// binding exposes one for the node's existing health-check plumbing to
// scrape, the same way other node health endpoints in the examples report
// per-check status as a JSON body.
func (r *Reporter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	snap := r.current.Load()
	w.Header().Set("Content-Type", "application/json")
	if snap.Status == StatusAffected {
		w.WriteHeader(http.StatusInternalServerError)
	}
	_ = json.NewEncoder(w).Encode(snap)
}

var _ reorg.EventSink = (*Reporter)(nil)
