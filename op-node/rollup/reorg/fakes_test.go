package reorg

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ethereum-optimism/reorg-monitor/op-service/eth"
)

// hash returns a distinct, deterministic hash tagged by name, matching the
// spec's H(x) notation for test fixtures.
func hash(name string) eth.Hash {
	return common.BytesToHash([]byte(name))
}

// fakeStore is an in-memory LocalChainStore, keyed by block/batch number.
// Guarded by mu so tests may mutate it from a goroutine while Run is live.
type fakeStore struct {
	mu              sync.Mutex
	sealedBlock     *eth.BlockNumber
	lastBatchMeta   *eth.BatchNumber
	earliestBatch   *eth.BatchNumber
	blockHashes     map[eth.BlockNumber]eth.Hash
	batchRootHashes map[eth.BatchNumber]eth.Hash

	// storageErr, if set, is returned by every method.
	storageErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		blockHashes:     map[eth.BlockNumber]eth.Hash{},
		batchRootHashes: map[eth.BatchNumber]eth.Hash{},
	}
}

func (s *fakeStore) setEarliestBatch(n eth.BatchNumber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.earliestBatch = &n
}

func (s *fakeStore) LastBatchNumberWithMetadata(context.Context) (eth.BatchNumber, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.storageErr != nil {
		return 0, false, s.storageErr
	}
	if s.lastBatchMeta == nil {
		return 0, false, nil
	}
	return *s.lastBatchMeta, true, nil
}

func (s *fakeStore) EarliestBatchNumberWithMetadata(context.Context) (eth.BatchNumber, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.storageErr != nil {
		return 0, false, s.storageErr
	}
	if s.earliestBatch == nil {
		return 0, false, nil
	}
	return *s.earliestBatch, true, nil
}

func (s *fakeStore) SealedBlockNumber(context.Context) (eth.BlockNumber, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.storageErr != nil {
		return 0, false, s.storageErr
	}
	if s.sealedBlock == nil {
		return 0, false, nil
	}
	return *s.sealedBlock, true, nil
}

func (s *fakeStore) BlockHash(_ context.Context, n eth.BlockNumber) (eth.Hash, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.storageErr != nil {
		return eth.Hash{}, false, s.storageErr
	}
	h, ok := s.blockHashes[n]
	return h, ok, nil
}

func (s *fakeStore) BatchRootHash(_ context.Context, n eth.BatchNumber) (eth.Hash, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.storageErr != nil {
		return eth.Hash{}, false, s.storageErr
	}
	h, ok := s.batchRootHashes[n]
	return h, ok, nil
}

// fakeClient is an in-memory MainNodeClient. Guarded by mu so tests may
// flip err from a goroutine while Run is live.
type fakeClient struct {
	mu              sync.Mutex
	sealedBlock     eth.BlockNumber
	sealedBatch     eth.BatchNumber
	blockHashes     map[eth.BlockNumber]eth.Hash
	batchRootHashes map[eth.BatchNumber]eth.Hash

	// err, if set, is returned by every method (simulating an RPC fault).
	err error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		blockHashes:     map[eth.BlockNumber]eth.Hash{},
		batchRootHashes: map[eth.BatchNumber]eth.Hash{},
	}
}

func (c *fakeClient) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func (c *fakeClient) SealedBlockNumber(context.Context) (eth.BlockNumber, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	return c.sealedBlock, nil
}

func (c *fakeClient) SealedBatchNumber(context.Context) (eth.BatchNumber, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	return c.sealedBatch, nil
}

func (c *fakeClient) BlockHash(_ context.Context, n eth.BlockNumber) (eth.Hash, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return eth.Hash{}, false, c.err
	}
	h, ok := c.blockHashes[n]
	return h, ok, nil
}

func (c *fakeClient) BatchRootHash(_ context.Context, n eth.BatchNumber) (eth.Hash, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return eth.Hash{}, false, c.err
	}
	h, ok := c.batchRootHashes[n]
	return h, ok, nil
}

// fakeTransientErr simulates an RPC transport failure, classified transient
// the way sources.RPCError would classify a dial/timeout failure.
type fakeTransientErr struct{ msg string }

func (e *fakeTransientErr) Error() string   { return e.msg }
func (e *fakeTransientErr) Transient() bool { return true }

// fakePermanentErr simulates a server-side RPC fault.
type fakePermanentErr struct{ msg string }

func (e *fakePermanentErr) Error() string   { return e.msg }
func (e *fakePermanentErr) Transient() bool { return false }

var errFakeStorage = errors.New("fake storage failure")

// fakeSink records every notification it receives, in order. Guarded by mu
// so tests may inspect it from outside the goroutine running Detector.Run.
type fakeSink struct {
	mu           sync.Mutex
	initialized  int
	updates      []correctBlockUpdate
	divergences  []eth.BatchNumber
	shuttingDown int
}

type correctBlockUpdate struct {
	Block eth.BlockNumber
	Batch eth.BatchNumber
}

func (s *fakeSink) Initialize() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized++
}

func (s *fakeSink) UpdateCorrectBlock(block eth.BlockNumber, batch eth.BatchNumber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, correctBlockUpdate{Block: block, Batch: batch})
}

func (s *fakeSink) ReportDivergence(loc eth.DivergenceLocation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.divergences = append(s.divergences, loc.FirstDiverged)
}

func (s *fakeSink) StartShuttingDown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shuttingDown++
}

func (s *fakeSink) snapshotUpdates() []correctBlockUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]correctBlockUpdate(nil), s.updates...)
}

func (s *fakeSink) shutdownCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shuttingDown
}

var _ MainNodeClient = (*fakeClient)(nil)
var _ LocalChainStore = (*fakeStore)(nil)
var _ EventSink = (*fakeSink)(nil)
