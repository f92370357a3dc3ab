package reorg

import (
	"context"

	"github.com/ethereum-optimism/reorg-monitor/op-service/eth"
)

// LocalChainStore is the read-only slice of the block store the detector
// depends on. The store itself (a SQL-backed implementation) is out of
// scope for this module; this interface exists purely to describe the
// contract and let tests substitute an in-memory fake.
//
// Every query reports its own presence via the boolean return, matching the
// "may be absent" fields of eth.LocalTips (spec §3): an empty store is a
// valid, common state during node bootstrap, not an error.
type LocalChainStore interface {
	// LastBatchNumberWithMetadata returns the highest local batch number
	// whose root hash has been computed, if any.
	LastBatchNumberWithMetadata(ctx context.Context) (n eth.BatchNumber, ok bool, err error)
	// EarliestBatchNumberWithMetadata returns the lowest local batch number
	// whose root hash has been computed, if any.
	EarliestBatchNumberWithMetadata(ctx context.Context) (n eth.BatchNumber, ok bool, err error)
	// SealedBlockNumber returns the highest local sealed miniblock number, if any.
	SealedBlockNumber(ctx context.Context) (n eth.BlockNumber, ok bool, err error)
	// BlockHash returns the header hash of local miniblock n. ok is false
	// only if the header genuinely doesn't exist; callers treat that as an
	// invariant violation (KindStorage), not a normal absence.
	BlockHash(ctx context.Context, n eth.BlockNumber) (hash eth.Hash, ok bool, err error)
	// BatchRootHash returns the computed state root of local batch n. ok is
	// false only if the root genuinely doesn't exist; callers treat that as
	// an invariant violation (KindStorage) since a batch "with metadata"
	// must have a root hash.
	BatchRootHash(ctx context.Context, n eth.BatchNumber) (hash eth.Hash, ok bool, err error)
}
