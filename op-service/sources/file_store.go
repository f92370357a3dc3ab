package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ethereum-optimism/reorg-monitor/op-node/rollup/reorg"
	"github.com/ethereum-optimism/reorg-monitor/op-service/eth"
)

// FileChainStore is a demo/manual-testing implementation of
// reorg.LocalChainStore that reads a JSON snapshot of the local chain state
// from disk. The real SQL-backed block store is out of scope for this
// module (spec §1); this exists only so cmd/reorg-monitor can run
// standalone without a database for local testing of the detector against
// a real main node.
type FileChainStore struct {
	mu    sync.RWMutex
	state fileChainState
}

type fileChainState struct {
	SealedBlock           *uint32           `json:"sealed_block"`
	LastBatchWithMeta     *uint32           `json:"last_batch_with_metadata"`
	EarliestBatchWithMeta *uint32           `json:"earliest_batch_with_metadata"`
	BlockHashes           map[string]string `json:"block_hashes"`
	BatchRootHashes       map[string]string `json:"batch_root_hashes"`
}

// LoadFileChainStore reads the JSON snapshot at path.
func LoadFileChainStore(path string) (*FileChainStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chain store snapshot %q: %w", path, err)
	}
	var state fileChainState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse chain store snapshot %q: %w", path, err)
	}
	return &FileChainStore{state: state}, nil
}

func (s *FileChainStore) LastBatchNumberWithMetadata(context.Context) (eth.BatchNumber, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.LastBatchWithMeta == nil {
		return 0, false, nil
	}
	return eth.BatchNumber(*s.state.LastBatchWithMeta), true, nil
}

func (s *FileChainStore) EarliestBatchNumberWithMetadata(context.Context) (eth.BatchNumber, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.EarliestBatchWithMeta == nil {
		return 0, false, nil
	}
	return eth.BatchNumber(*s.state.EarliestBatchWithMeta), true, nil
}

func (s *FileChainStore) SealedBlockNumber(context.Context) (eth.BlockNumber, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.SealedBlock == nil {
		return 0, false, nil
	}
	return eth.BlockNumber(*s.state.SealedBlock), true, nil
}

func (s *FileChainStore) BlockHash(_ context.Context, n eth.BlockNumber) (eth.Hash, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lookupHash(s.state.BlockHashes, n)
}

func (s *FileChainStore) BatchRootHash(_ context.Context, n eth.BatchNumber) (eth.Hash, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lookupHash(s.state.BatchRootHashes, n)
}

func lookupHash[N ~uint32](m map[string]string, n N) (eth.Hash, bool, error) {
	raw, ok := m[fmt.Sprintf("%d", n)]
	if !ok {
		return eth.Hash{}, false, nil
	}
	if len(raw) != 66 {
		return eth.Hash{}, false, fmt.Errorf("invalid hash %q for key %d: want 0x-prefixed 32-byte hex", raw, n)
	}
	return common.HexToHash(raw), true, nil
}

var _ reorg.LocalChainStore = (*FileChainStore)(nil)
