package reorg

import "github.com/ethereum-optimism/reorg-monitor/op-service/eth"

// EventSink receives the detector's lifecycle notifications. None of these
// may fail; a sink that needs to report its own errors does so through its
// own logger, not by returning one here. The production binding is
// healthz.Reporter.
type EventSink interface {
	// Initialize is called once before the first check round.
	Initialize()
	// UpdateCorrectBlock is called after every round that finds no
	// divergence. Must be idempotent: the same values may recur across
	// consecutive rounds.
	UpdateCorrectBlock(lastCorrectBlock eth.BlockNumber, lastCorrectBatch eth.BatchNumber)
	// ReportDivergence is called once per detected divergence, before
	// localization begins.
	ReportDivergence(loc eth.DivergenceLocation)
	// StartShuttingDown is called exactly once, when the run loop exits in
	// response to a stop signal (Run returns nil) or to a canceled context
	// (Run returns the context's error).
	StartShuttingDown()
}

// NopEventSink discards every notification. Useful for embedding or for
// callers that only care about the returned error from Run.
type NopEventSink struct{}

func (NopEventSink) Initialize()                                        {}
func (NopEventSink) UpdateCorrectBlock(eth.BlockNumber, eth.BatchNumber) {}
func (NopEventSink) ReportDivergence(eth.DivergenceLocation)            {}
func (NopEventSink) StartShuttingDown()                                 {}

var _ EventSink = NopEventSink{}
