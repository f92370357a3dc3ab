package reorg

import (
	"context"

	"github.com/ethereum-optimism/reorg-monitor/op-service/eth"
)

// checkConsistency performs exactly one check round (spec §4.3, steps 1-9).
func (d *Detector) checkConsistency(ctx context.Context) error {
	local, err := d.readLocalTips(ctx)
	if err != nil {
		return err
	}
	if !local.HasLastBatchWithMeta || !local.HasSealedBlock {
		// Node is still bootstrapping; nothing to compare yet.
		return nil
	}

	remoteBlock, err := d.client.SealedBlockNumber(ctx)
	if err != nil {
		return rpcErr(err)
	}
	remoteBatch, err := d.client.SealedBatchNumber(ctx)
	if err != nil {
		return rpcErr(err)
	}

	checkedBatch := local.LastBatchWithMeta.Min(remoteBatch)
	checkedBlock := local.SealedBlock.Min(remoteBlock)

	rootMatch, err := d.rootHashesMatch(ctx, checkedBatch)
	if err != nil {
		return err
	}
	blockMatch, err := d.blockHashesMatch(ctx, checkedBlock)
	if err != nil {
		return err
	}

	// The only event that triggers reorg detection and a node rollback is a
	// hash mismatch at the same height, whether for blocks or batches. A
	// height mismatch alone just means one side needs to catch up; it is
	// not on its own evidence of a reorg.
	if rootMatch && blockMatch {
		d.events.UpdateCorrectBlock(checkedBlock, checkedBatch)
		return nil
	}

	divergedBatch := checkedBatch
	if rootMatch {
		divergedBatch++
	}
	d.events.ReportDivergence(eth.DivergenceLocation{FirstDiverged: divergedBatch})

	d.log.Info("searching for the first diverged L1 batch")
	earliestBatch, ok, err := d.store.EarliestBatchNumberWithMetadata(ctx)
	if err != nil {
		return storageErr(err)
	}
	if !ok {
		return storageErr(errAllBatchesDisappeared)
	}

	lastCorrectBatch, err := d.detectReorg(ctx, earliestBatch, divergedBatch)
	if err != nil {
		return err
	}
	d.log.Info("reorg localized", "last_correct_batch", lastCorrectBatch)
	return reorgDetectedErr(lastCorrectBatch)
}

func (d *Detector) readLocalTips(ctx context.Context) (eth.LocalTips, error) {
	batch, hasBatch, err := d.store.LastBatchNumberWithMetadata(ctx)
	if err != nil {
		return eth.LocalTips{}, storageErr(err)
	}
	block, hasBlock, err := d.store.SealedBlockNumber(ctx)
	if err != nil {
		return eth.LocalTips{}, storageErr(err)
	}
	return eth.LocalTips{
		SealedBlock:          block,
		HasSealedBlock:       hasBlock,
		LastBatchWithMeta:    batch,
		HasLastBatchWithMeta: hasBatch,
	}, nil
}

// rootHashesMatch compares the root hash of local batch n against the main
// node's view of the same batch (spec §4.3 step 4, reused by the localizer).
func (d *Detector) rootHashesMatch(ctx context.Context, n eth.BatchNumber) (bool, error) {
	localHash, ok, err := d.store.BatchRootHash(ctx, n)
	if err != nil {
		return false, storageErr(err)
	}
	if !ok {
		return false, storageErr(errMissingLocalBatchRoot(n))
	}

	remoteHash, ok, err := d.client.BatchRootHash(ctx, n)
	if err != nil {
		return false, rpcErr(err)
	}
	if !ok {
		d.log.Info("remote L1 batch is missing", "batch", n)
		return false, noRemoteBatchErr()
	}

	if remoteHash != localHash {
		d.log.Warn("reorg detected: batch root hash mismatch",
			"batch", n, "local", localHash, "remote", remoteHash)
	}
	return remoteHash == localHash, nil
}

// blockHashesMatch compares the hash of local miniblock n against the main
// node's view of the same block (spec §4.3 step 5).
func (d *Detector) blockHashesMatch(ctx context.Context, n eth.BlockNumber) (bool, error) {
	localHash, ok, err := d.store.BlockHash(ctx, n)
	if err != nil {
		return false, storageErr(err)
	}
	if !ok {
		return false, storageErr(errMissingLocalBlockHash(n))
	}

	remoteHash, ok, err := d.client.BlockHash(ctx, n)
	if err != nil {
		return false, rpcErr(err)
	}
	if !ok {
		// Locally we may be ahead of the main node's view; treat a missing
		// remote hash as a match and wait for the remote to catch up.
		return true, nil
	}

	if remoteHash != localHash {
		d.log.Warn("reorg detected: miniblock hash mismatch",
			"block", n, "local", localHash, "remote", remoteHash)
	}
	return remoteHash == localHash, nil
}
