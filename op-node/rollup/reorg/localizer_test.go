package reorg

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/reorg-monitor/op-service/eth"
)

// binarySearch finds the exact upper boundary of a monotone true/false
// predicate, regardless of where in the range the boundary falls.
func TestBinarySearch_FindsBoundary(t *testing.T) {
	for _, boundary := range []uint32{0, 1, 5, 9, 10} {
		boundary := boundary
		pred := func(n uint32) (bool, error) { return n <= boundary, nil }
		got, err := binarySearch(0, 10, pred)
		require.NoError(t, err)
		require.Equal(t, boundary, got)
	}
}

func TestBinarySearch_SingletonRangeNeverCallsPred(t *testing.T) {
	called := false
	_, err := binarySearch(7, 7, func(uint32) (bool, error) {
		called = true
		return false, nil
	})
	require.NoError(t, err)
	require.False(t, called)
}

func TestBinarySearch_ShortCircuitsOnPredError(t *testing.T) {
	boom := errors.New("boom")
	probes := 0
	_, err := binarySearch(0, 100, func(uint32) (bool, error) {
		probes++
		return false, boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, probes)
}

// detectReorg treats a missing remote batch as agreement while localizing,
// letting the search climb past heights the main node hasn't published yet.
func TestDetectReorg_TreatsNoRemoteBatchAsAgreement(t *testing.T) {
	store := newFakeStore()
	client := newFakeClient()
	sink := &fakeSink{}

	for i := eth.BatchNumber(1); i <= 5; i++ {
		store.batchRootHashes[i] = hash("A" + itoa(uint32(i)))
		client.batchRootHashes[i] = hash("A" + itoa(uint32(i)))
	}
	// Batches 6 and 7 exist locally but the main node hasn't published their
	// root hash yet.
	store.batchRootHashes[6] = hash("A6")
	store.batchRootHashes[7] = hash("A7")

	d := newTestDetector(t, client, store, sink)
	got, err := d.detectReorg(context.Background(), 1, 7)
	require.NoError(t, err)
	require.EqualValues(t, 7, got)
}

func TestDetectReorg_StopsAtFirstRealMismatch(t *testing.T) {
	store := newFakeStore()
	client := newFakeClient()
	sink := &fakeSink{}

	for i := eth.BatchNumber(1); i <= 3; i++ {
		store.batchRootHashes[i] = hash("A" + itoa(uint32(i)))
		client.batchRootHashes[i] = hash("A" + itoa(uint32(i)))
	}
	store.batchRootHashes[4] = hash("A4")
	client.batchRootHashes[4] = hash("B4")

	d := newTestDetector(t, client, store, sink)
	got, err := d.detectReorg(context.Background(), 1, 4)
	require.NoError(t, err)
	require.EqualValues(t, 3, got)
}

func TestDetectReorg_PropagatesStorageError(t *testing.T) {
	store := newFakeStore()
	client := newFakeClient()
	sink := &fakeSink{}

	store.batchRootHashes[1] = hash("A1")
	client.batchRootHashes[1] = hash("A1")
	// store.batchRootHashes[2] intentionally missing.

	d := newTestDetector(t, client, store, sink)
	_, err := d.detectReorg(context.Background(), 1, 2)
	require.Error(t, err)
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, KindStorage, rerr.Kind)
}
