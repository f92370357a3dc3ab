package eth

import "github.com/ethereum/go-ethereum/common"

// BlockNumber identifies a sealed miniblock within the L2 stream.
type BlockNumber uint32

// BatchNumber identifies a sealed L1 batch grouping miniblocks for L1 settlement.
type BatchNumber uint32

// Hash is the 32-byte digest used for block and batch root hash comparisons.
type Hash = common.Hash

// Min returns the smaller of two block numbers.
func (n BlockNumber) Min(other BlockNumber) BlockNumber {
	if n < other {
		return n
	}
	return other
}

// Min returns the smaller of two batch numbers.
func (n BatchNumber) Min(other BatchNumber) BatchNumber {
	if n < other {
		return n
	}
	return other
}

// LocalTips is the pair of tips read once from the local block store at the
// start of a check round.
type LocalTips struct {
	SealedBlock          BlockNumber
	HasSealedBlock       bool
	LastBatchWithMeta    BatchNumber
	HasLastBatchWithMeta bool
}

// RemoteTips is the pair of tips observed on the main node at a point in time.
type RemoteTips struct {
	SealedBlock BlockNumber
	SealedBatch BatchNumber
}

// DivergenceLocation identifies where a check round observed local and remote
// history to disagree: FirstDiverged is the checked batch when its root hash
// mismatches, or one past it when only the block hashes mismatch. Earlier
// batches may also mismatch; FirstDiverged is not necessarily the lowest one.
// Reported once per detected divergence, before localization narrows it down
// to the precise last-correct batch.
type DivergenceLocation struct {
	FirstDiverged BatchNumber
}

// LastKnownCorrect returns FirstDiverged - 1. The checker does not compare
// that batch itself, so it is not necessarily a batch that agrees.
func (d DivergenceLocation) LastKnownCorrect() BatchNumber {
	return d.FirstDiverged - 1
}
