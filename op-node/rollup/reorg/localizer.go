package reorg

import (
	"context"
	"errors"

	"github.com/ethereum-optimism/reorg-monitor/op-service/eth"
)

// binarySearch returns the greatest m in [lo, hi] for which pred(m) is true,
// assuming pred is monotone (true for all values up to some boundary, false
// after). lo itself must already satisfy pred; hi is assumed not to. The
// search short-circuits and propagates the first error pred returns, without
// probing further.
//
// This is the generic search primitive described in spec §9: it knows
// nothing about batches or hashes, only about a monotone predicate over a
// closed integer range.
func binarySearch(lo, hi uint32, pred func(uint32) (bool, error)) (uint32, error) {
	for lo < hi {
		// Bias the midpoint up so the loop strictly shrinks [lo, hi] even
		// when hi == lo+1.
		mid := lo + (hi-lo+1)/2
		ok, err := pred(mid)
		if err != nil {
			return 0, err
		}
		if ok {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, nil
}

// detectReorg localizes a reorg: it performs a binary search between a
// known-agreeing lower bound (the earliest local batch with metadata) and a
// known-diverging upper bound, returning the last batch number that still
// agrees.
//
// The search predicate treats "remote missing the batch" (KindNoRemoteBatch)
// as agreement, per spec §4.4: during localization we want the search to
// climb past remotely-unpublished heights rather than stall, since the
// upper bound is already known-diverging by other evidence. Any other error
// aborts the search.
//
// TODO(BFT-176, BFT-181): this scans all the way to the earliest locally
// retained batch rather than a more recent checkpoint, guarding against a
// downstream subsystem having optimistically marked a later batch executed
// while the state had already diverged earlier. Revisit once that subsystem
// stops doing that.
func (d *Detector) detectReorg(ctx context.Context, knownValid, diverged eth.BatchNumber) (eth.BatchNumber, error) {
	m, err := binarySearch(uint32(knownValid), uint32(diverged), func(n uint32) (bool, error) {
		match, err := d.rootHashesMatch(ctx, eth.BatchNumber(n))
		if err != nil {
			var rerr *Error
			if errors.As(err, &rerr) && rerr.Kind == KindNoRemoteBatch {
				return true, nil
			}
			return false, err
		}
		return match, nil
	})
	return eth.BatchNumber(m), err
}
