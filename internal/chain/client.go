package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// timestampCacheSize bounds the block timestamp cache; it is reset when full.
const timestampCacheSize = 8192

// Client reads emitter logs and block timestamps over JSON-RPC.
type Client struct {
	rpc *rpc.Client
	eth *ethclient.Client

	mu         sync.Mutex
	timestamps map[uint64]uint64
}

// NewClient dials rpcURL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		rpc:        rpcClient,
		eth:        ethclient.NewClient(rpcClient),
		timestamps: make(map[uint64]uint64),
	}, nil
}

func (c *Client) Close() {
	if c.rpc != nil {
		c.rpc.Close()
	}
}

func (c *Client) GetChainID(ctx context.Context) (*big.Int, error) {
	return c.eth.ChainID(ctx)
}

func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.eth.BlockNumber(ctx)
}

// BlockTimestamp returns the timestamp of block number. Logs of one batch
// usually share a handful of blocks, so results are cached.
func (c *Client) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	c.mu.Lock()
	ts, ok := c.timestamps[number]
	c.mu.Unlock()
	if ok {
		return ts, nil
	}

	header, err := c.eth.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return 0, fmt.Errorf("header %d: %w", number, err)
	}

	c.mu.Lock()
	if len(c.timestamps) >= timestampCacheSize {
		c.timestamps = make(map[uint64]uint64)
	}
	c.timestamps[number] = header.Time
	c.mu.Unlock()
	return header.Time, nil
}

// FilterLogs returns the logs with the given topic 0 emitted by addresses in
// [fromBlock, toBlock]. Logs flagged as removed by a reorg are dropped.
func (c *Client) FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 common.Hash) ([]types.Log, error) {
	logs, err := c.eth.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: addresses,
		Topics:    [][]common.Hash{{topic0}},
	})
	if err != nil {
		return nil, err
	}

	kept := logs[:0]
	for _, log := range logs {
		if !log.Removed {
			kept = append(kept, log)
		}
	}
	return kept, nil
}
