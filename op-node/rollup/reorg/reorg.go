// Package reorg implements the reorg detector: a long-running consistency
// monitor that compares a local external node's chain history against the
// main node's published history, localizes the boundary of any divergence,
// and surfaces a terminal error instructing the node runtime to restart and
// roll back.
//
// This is the only component expected to end its own run loop on purpose:
// once a reorg is detected, the surrounding process is meant to restart and
// perform the rollback, since there is no way to keep serving traffic
// consistently until that happens.
package reorg

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/reorg-monitor/op-service/eth"
)

// DefaultSleepInterval is the default pause between check rounds and the
// default poll cadence while waiting for the local store to bootstrap.
const DefaultSleepInterval = 5 * time.Second

// Config holds the detector's tunables.
type Config struct {
	SleepInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.SleepInterval <= 0 {
		c.SleepInterval = DefaultSleepInterval
	}
	return c
}

// Detector is the reorg detector component described in spec §4. It is
// created once at node startup and is not reused after Run returns.
type Detector struct {
	log    log.Logger
	config Config

	client MainNodeClient
	store  LocalChainStore
	events EventSink

	// timeNow enables deterministic tests; defaults to time.Now.
	timeNow func() time.Time
}

// New constructs a Detector. client, store, and events must be non-nil.
func New(l log.Logger, cfg Config, client MainNodeClient, store LocalChainStore, events EventSink) *Detector {
	return &Detector{
		log:     l,
		config:  cfg.withDefaults(),
		client:  client,
		store:   store,
		events:  events,
		timeNow: time.Now,
	}
}

// Run drives the state machine of spec §4.5 until either a terminal error
// occurs or stop is closed/signaled. A nil return means clean shutdown.
func (d *Detector) Run(ctx context.Context, stop <-chan struct{}) error {
	d.events.Initialize()
	for {
		select {
		case <-stop:
			d.events.StartShuttingDown()
			d.log.Info("shutting down reorg detector")
			return nil
		default:
		}
		if err := ctx.Err(); err != nil {
			// sleep() treats a canceled context the same as a stop signal, so
			// runUntilStopOrError can return nil without stop ever closing.
			// Without this check the loop would spin tightly in that case.
			d.events.StartShuttingDown()
			return err
		}

		err := d.runUntilStopOrError(ctx, stop)
		if err == nil {
			// Stop signal observed mid-warmup/steady-state; loop around to
			// hit the stop case above.
			continue
		}
		if IsTransient(err) {
			d.log.Warn("following transient error occurred, trying again after a delay", "err", err)
			if !d.sleep(ctx, stop) {
				d.events.StartShuttingDown()
				return nil
			}
			continue
		}
		return err
	}
}

// runUntilStopOrError implements [Warmup] -> [CheckEarliest] -> [Steady],
// returning nil only when the stop signal fired or ctx was canceled, during
// warmup or between steady-state rounds (spec §4.5).
func (d *Detector) runUntilStopOrError(ctx context.Context, stop <-chan struct{}) error {
	earliestBatch, ok, err := d.waitForEarliestBatch(ctx, stop)
	if err != nil {
		return err
	}
	if !ok {
		return nil // stop signal received during warmup
	}

	d.log.Debug("checking root hash match for earliest L1 batch", "batch", earliestBatch)
	match, err := d.rootHashesMatch(ctx, earliestBatch)
	if err != nil {
		var rerr *Error
		if errors.As(err, &rerr) && rerr.Kind == KindNoRemoteBatch {
			return earliestBatchTruncatedErr(earliestBatch)
		}
		return err
	}
	if !match {
		return earliestHashMismatchErr(earliestBatch)
	}

	for {
		select {
		case <-stop:
			return nil
		default:
		}
		if err := d.checkConsistency(ctx); err != nil {
			return err
		}
		if !d.sleep(ctx, stop) {
			return nil
		}
	}
}

// waitForEarliestBatch polls the store at the configured sleep interval
// until a batch with metadata exists, returning ok=false if stop fires
// first. The local earliest batch may have advanced due to pruning since
// the last time this ran, which is why every re-entry to Warmup re-derives
// it rather than reusing a cached value (spec §4.5).
func (d *Detector) waitForEarliestBatch(ctx context.Context, stop <-chan struct{}) (eth.BatchNumber, bool, error) {
	for {
		batch, has, err := d.store.EarliestBatchNumberWithMetadata(ctx)
		if err != nil {
			return 0, false, storageErr(err)
		}
		if has {
			return batch, true, nil
		}
		if !d.sleep(ctx, stop) {
			return 0, false, nil
		}
	}
}

// sleep pauses for the configured sleep interval, returning false if stop
// fired first or the context was canceled (both treated as a shutdown
// request by the caller).
func (d *Detector) sleep(ctx context.Context, stop <-chan struct{}) bool {
	timer := time.NewTimer(d.config.SleepInterval)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-stop:
		return false
	case <-ctx.Done():
		return false
	}
}
