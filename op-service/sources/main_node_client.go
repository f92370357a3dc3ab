// Package sources provides client bindings to remote chain data. This file
// adapts the logging-wrapped-RPC pattern of l1_client.go to the reorg
// detector's narrower need: the main node's sealed heights and the
// hash/root-hash of a given block or batch.
package sources

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/ethereum-optimism/reorg-monitor/op-service/eth"
)

// RPCError wraps a failure from a JSON-RPC call to the main node, classifying
// it transient (safe to retry) or permanent. It implements the
// reorg.transientRPCErrChecker contract via Transient().
type RPCError struct {
	Method string
	Cause  error
	// transient is true for connection/transport failures, which are
	// assumed recoverable; false for anything the server itself returned
	// (malformed response, application-level RPC error), which is not.
	transient bool
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc call %q to main node failed: %v", e.Method, e.Cause)
}

func (e *RPCError) Unwrap() error {
	return e.Cause
}

func (e *RPCError) Transient() bool {
	return e.transient
}

func wrapRPCErr(method string, err error) error {
	if err == nil {
		return nil
	}
	return &RPCError{Method: method, Cause: err, transient: isTransientRPCErr(err)}
}

// isTransientRPCErr classifies the underlying error as a transport failure
// (dial/connection/timeout) as opposed to a well-formed but unsuccessful
// RPC response. The latter (e.g. a JSON-RPC error object, or a malformed
// result) indicates a server-side or protocol fault, not a blip.
func isTransientRPCErr(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	return errors.Is(err, rpc.ErrClientQuit) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}

// RPCMainNodeClient is the production reorg.MainNodeClient, backed by a
// JSON-RPC connection to the main node.
//
// Block and batch hashes are deliberately never cached by number: a number
// can be re-sealed to a different hash after a reorg on the main node
// itself, and this client is the one component whose entire job is to catch
// exactly that. Caching here would mean serving a pre-reorg hash forever
// once it had been observed once.
type RPCMainNodeClient struct {
	client *rpc.Client
	log    log.Logger
}

// NewRPCMainNodeClient dials addr and returns a ready client. The caller
// owns the lifetime of the returned client's underlying connection and
// should arrange to Close it on shutdown.
func NewRPCMainNodeClient(ctx context.Context, l log.Logger, addr string) (*RPCMainNodeClient, error) {
	client, err := rpc.DialContext(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("dial main node at %q: %w", addr, err)
	}
	return &RPCMainNodeClient{client: client, log: l}, nil
}

// Close releases the underlying RPC connection.
func (c *RPCMainNodeClient) Close() {
	c.client.Close()
}

func (c *RPCMainNodeClient) SealedBlockNumber(ctx context.Context) (eth.BlockNumber, error) {
	var result hexUint64
	if err := c.client.CallContext(ctx, &result, "eth_blockNumber"); err != nil {
		return 0, wrapRPCErr("eth_blockNumber", err)
	}
	return eth.BlockNumber(result), nil
}

func (c *RPCMainNodeClient) SealedBatchNumber(ctx context.Context) (eth.BatchNumber, error) {
	var result hexUint64
	if err := c.client.CallContext(ctx, &result, "zks_L1BatchNumber"); err != nil {
		return 0, wrapRPCErr("zks_L1BatchNumber", err)
	}
	return eth.BatchNumber(result), nil
}

// BlockHash always queries the main node directly. A hash keyed by block
// number must never be cached: the main node can re-seal the same number to
// a different hash after its own reorg, which is exactly the event this
// client exists to surface.
func (c *RPCMainNodeClient) BlockHash(ctx context.Context, n eth.BlockNumber) (eth.Hash, bool, error) {
	var result *blockHashResponse
	if err := c.client.CallContext(ctx, &result, "eth_getBlockByNumber", hexUint64(n).String(), false); err != nil {
		return eth.Hash{}, false, wrapRPCErr("eth_getBlockByNumber", err)
	}
	if result == nil {
		c.log.Debug("main node has no block yet", "block", n)
		return eth.Hash{}, false, nil
	}
	return result.Hash, true, nil
}

// BatchRootHash always queries the main node directly, for the same reason
// as BlockHash.
func (c *RPCMainNodeClient) BatchRootHash(ctx context.Context, n eth.BatchNumber) (eth.Hash, bool, error) {
	var result *batchDetailsResponse
	if err := c.client.CallContext(ctx, &result, "zks_getL1BatchDetails", uint32(n)); err != nil {
		return eth.Hash{}, false, wrapRPCErr("zks_getL1BatchDetails", err)
	}
	if result == nil || result.RootHash == nil {
		return eth.Hash{}, false, nil
	}
	return *result.RootHash, true, nil
}

type blockHashResponse struct {
	Hash eth.Hash `json:"hash"`
}

type batchDetailsResponse struct {
	RootHash *eth.Hash `json:"rootHash"`
}
