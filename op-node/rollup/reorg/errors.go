package reorg

import (
	"errors"
	"fmt"

	"github.com/ethereum-optimism/reorg-monitor/op-service/eth"
)

// Kind classifies the error taxonomy a check round or the run loop can
// surface. Every Kind has a fixed transience and recovery policy; see
// IsTransient and the run loop in reorg.go.
type Kind int

const (
	// KindRPCTransient covers transport failures and timeouts talking to the
	// main node. The round is retried after a sleep.
	KindRPCTransient Kind = iota
	// KindRPCPermanent covers server-side RPC faults (malformed responses,
	// auth failures, and the like). Terminal.
	KindRPCPermanent
	// KindNoRemoteBatch means the main node has sealed a batch but not yet
	// published its root hash. Transient outside of localization; treated as
	// a match while localizing (see detectReorg).
	KindNoRemoteBatch
	// KindEarliestHashMismatch means the earliest locally-retained batch
	// disagrees at the root hash with the main node. Unrecoverable without
	// re-seeding from a snapshot.
	KindEarliestHashMismatch
	// KindEarliestBatchTruncated means the earliest local batch is absent on
	// the main node. Unrecoverable for the same reason as above.
	KindEarliestBatchTruncated
	// KindReorgDetected means a divergence was localized; the carried batch
	// number is the last batch that still agrees.
	KindReorgDetected
	// KindStorage covers any local block-store failure, including invariant
	// violations detected via store reads (e.g. a batch with metadata that
	// has no root hash).
	KindStorage
)

// Error is the reorg detector's error type. It always carries a Kind, and
// for the batch-scoped kinds the batch number the error is about.
type Error struct {
	Kind  Kind
	Batch eth.BatchNumber
	// HasBatch reports whether Batch is meaningful for this Kind.
	HasBatch bool
	Cause    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindRPCTransient:
		return fmt.Sprintf("rpc error calling main node: %v", e.Cause)
	case KindRPCPermanent:
		return fmt.Sprintf("rpc error calling main node: %v", e.Cause)
	case KindNoRemoteBatch:
		return "no remote l1 batch"
	case KindEarliestHashMismatch:
		return fmt.Sprintf("unrecoverable error: the earliest L1 batch #%d in the local DB "+
			"has mismatched hash with the main node. Make sure you're connected to the right network; "+
			"if you've recovered from a snapshot, re-check snapshot authenticity. "+
			"Using an earlier snapshot could help.", e.Batch)
	case KindEarliestBatchTruncated:
		return fmt.Sprintf("unrecoverable error: the earliest L1 batch #%d in the local DB "+
			"is truncated on the main node. Make sure you're connected to the right network; "+
			"if you've recovered from a snapshot, re-check snapshot authenticity. "+
			"Using an earlier snapshot could help.", e.Batch)
	case KindReorgDetected:
		return fmt.Sprintf("reorg detected, restart the node to revert to the last correct L1 batch #%d.", e.Batch)
	case KindStorage:
		return fmt.Sprintf("storage error: %v", e.Cause)
	default:
		return fmt.Sprintf("reorg detector error (kind %d): %v", e.Kind, e.Cause)
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsTransient reports whether err should cause the run loop to log, sleep,
// and retry the round rather than terminate. True only for the RPC-transport,
// RPC-timeout, and NoRemoteBatch kinds.
func IsTransient(err error) bool {
	var rerr *Error
	if !errors.As(err, &rerr) {
		return false
	}
	switch rerr.Kind {
	case KindRPCTransient, KindNoRemoteBatch:
		return true
	default:
		return false
	}
}

var errAllBatchesDisappeared = errors.New("all L1 batches with metadata disappeared")

func errMissingLocalBatchRoot(n eth.BatchNumber) error {
	return fmt.Errorf("root hash does not exist for local batch #%d", n)
}

func errMissingLocalBlockHash(n eth.BlockNumber) error {
	return fmt.Errorf("header does not exist for local miniblock #%d", n)
}

func storageErr(cause error) *Error {
	return &Error{Kind: KindStorage, Cause: cause}
}

func noRemoteBatchErr() *Error {
	return &Error{Kind: KindNoRemoteBatch}
}

func earliestHashMismatchErr(batch eth.BatchNumber) *Error {
	return &Error{Kind: KindEarliestHashMismatch, Batch: batch, HasBatch: true}
}

func earliestBatchTruncatedErr(batch eth.BatchNumber) *Error {
	return &Error{Kind: KindEarliestBatchTruncated, Batch: batch, HasBatch: true}
}

func reorgDetectedErr(lastCorrectBatch eth.BatchNumber) *Error {
	return &Error{Kind: KindReorgDetected, Batch: lastCorrectBatch, HasBatch: true}
}

// rpcErr wraps a client-side failure, classifying it transient or permanent
// based on the underlying sources.RPCError (or treating unrecognized errors
// as permanent, to fail closed).
func rpcErr(err error) *Error {
	kind := KindRPCPermanent
	if transientRPCErr(err) {
		kind = KindRPCTransient
	}
	return &Error{Kind: kind, Cause: err}
}

