package reorg

import (
	"context"
	"errors"

	"github.com/ethereum-optimism/reorg-monitor/op-service/eth"
)

// MainNodeClient is the capability set the detector needs from the
// authoritative main node: four pure, read-only queries. The production
// binding is sources.RPCMainNodeClient; tests substitute an in-memory fake.
// Implementations must be safe for concurrent use, though the checker only
// ever calls them sequentially.
type MainNodeClient interface {
	// SealedBlockNumber returns the main node's sealed miniblock height.
	SealedBlockNumber(ctx context.Context) (eth.BlockNumber, error)
	// SealedBatchNumber returns the main node's sealed L1 batch height.
	SealedBatchNumber(ctx context.Context) (eth.BatchNumber, error)
	// BlockHash returns the hash of miniblock n, or ok=false if the main
	// node has no such block yet.
	BlockHash(ctx context.Context, n eth.BlockNumber) (hash eth.Hash, ok bool, err error)
	// BatchRootHash returns the root hash of L1 batch n, or ok=false if the
	// batch exists without a computed root hash yet, or doesn't exist.
	BatchRootHash(ctx context.Context, n eth.BatchNumber) (hash eth.Hash, ok bool, err error)
}

// transientRPCErrChecker is implemented by client-side error types that know
// their own transience (e.g. sources.RPCError). Errors that don't implement
// it are treated as permanent, to fail closed rather than retry forever.
type transientRPCErrChecker interface {
	Transient() bool
}

func transientRPCErr(err error) bool {
	var checker transientRPCErrChecker
	if errors.As(err, &checker) {
		return checker.Transient()
	}
	return false
}
