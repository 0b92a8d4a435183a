// Package ethrpc implements the ChainReader port over an Ethereum JSON-RPC
// endpoint using go-ethereum's rpc transport and ABI codec.
package ethrpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stakescope/holdings/internal/domain/entity"
	"github.com/stakescope/holdings/internal/ports/outbound"
)

const (
	// tracerName is the instrumentation name for this adapter.
	tracerName = "github.com/stakescope/holdings/internal/adapters/outbound/ethrpc"
)

// Compile-time check that Client implements outbound.ChainReader.
var _ outbound.ChainReader = (*Client)(nil)

// ClientConfig holds configuration for the JSON-RPC chain reader.
type ClientConfig struct {
	// RPCURL is the HTTP JSON-RPC endpoint URL.
	RPCURL string

	// Timeout is the maximum time to wait for a single RPC request. No
	// retry is layered on top: the coordinator owns the retry policy.
	Timeout time.Duration

	// Logger is the structured logger.
	Logger *slog.Logger
}

// ClientConfigDefaults returns a config with default values.
func ClientConfigDefaults() ClientConfig {
	return ClientConfig{
		Timeout: 30 * time.Second,
		Logger:  slog.Default(),
	}
}

// Client implements ChainReader against a single JSON-RPC endpoint.
type Client struct {
	config    ClientConfig
	rpcClient *rpc.Client
	readerABI *abi.ABI
	logger    *slog.Logger
}

// NewClient creates a chain reader bound to the given endpoint.
func NewClient(config ClientConfig) (*Client, error) {
	if config.RPCURL == "" {
		return nil, errors.New("RPCURL is required")
	}
	defaults := ClientConfigDefaults()
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}

	rpcClient, err := rpc.Dial(config.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", config.RPCURL, err)
	}
	readerABI, err := parseReaderABI()
	if err != nil {
		return nil, err
	}

	c := &Client{
		config:    config,
		rpcClient: rpcClient,
		readerABI: readerABI,
		logger:    config.Logger.With("component", "ethrpc-client"),
	}
	c.logger.Debug("chain reader initialized", "endpoint", config.RPCURL)
	return c, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.rpcClient.Close()
}

// Call executes a read-only contract call pinned to the request's point in
// history and returns the decoded outputs in declaration order.
func (c *Client) Call(ctx context.Context, req outbound.CallRequest) ([]any, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "ethrpc.call",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("rpc.contract", req.Contract.Hex()),
			attribute.String("rpc.method", req.Method),
			attribute.String("rpc.block", req.Block.String()),
		),
	)
	defer span.End()

	method, ok := c.readerABI.Methods[req.Method]
	if !ok {
		err := fmt.Errorf("unknown contract method %q", req.Method)
		span.RecordError(err)
		span.SetStatus(codes.Error, "unknown method")
		return nil, err
	}

	data, err := c.readerABI.Pack(req.Method, req.Args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pack failed")
		return nil, fmt.Errorf("packing %s: %w", req.Method, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var raw hexutil.Bytes
	callObject := map[string]any{
		"to":   req.Contract.Hex(),
		"data": hexutil.Encode(data),
	}
	if err := c.rpcClient.CallContext(ctx, &raw, "eth_call", callObject, blockParam(req.Block)); err != nil {
		classified := classifyCallError(err)
		span.RecordError(classified)
		span.SetStatus(codes.Error, "eth_call failed")
		return nil, fmt.Errorf("calling %s on %s: %w", req.Method, req.Contract.Hex(), classified)
	}

	out, err := method.Outputs.Unpack(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unpack failed")
		return nil, fmt.Errorf("decoding %s output: %w", req.Method, err)
	}
	return out, nil
}

// HeaderByRef resolves the block header at the given point in history.
func (c *Client) HeaderByRef(ctx context.Context, ref entity.BlockRef) (outbound.BlockHeader, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var raw struct {
		Number    string `json:"number"`
		Timestamp string `json:"timestamp"`
		Hash      string `json:"hash"`
	}
	if err := c.rpcClient.CallContext(ctx, &raw, "eth_getBlockByNumber", blockParam(ref), false); err != nil {
		return outbound.BlockHeader{}, fmt.Errorf("fetching block %s: %w", ref.String(), err)
	}
	if raw.Number == "" {
		return outbound.BlockHeader{}, fmt.Errorf("block %s not found", ref.String())
	}

	number, err := hexutil.DecodeUint64(raw.Number)
	if err != nil {
		return outbound.BlockHeader{}, fmt.Errorf("parsing block number %q: %w", raw.Number, err)
	}
	timestamp, err := hexutil.DecodeUint64(raw.Timestamp)
	if err != nil {
		return outbound.BlockHeader{}, fmt.Errorf("parsing block timestamp %q: %w", raw.Timestamp, err)
	}

	return outbound.BlockHeader{
		Number:    number,
		Timestamp: int64(timestamp),
		Hash:      strings.ToLower(raw.Hash),
	}, nil
}

// blockParam renders a BlockRef as an eth JSON-RPC block parameter.
func blockParam(ref entity.BlockRef) string {
	if n, ok := ref.Number(); ok {
		return hexutil.EncodeUint64(n)
	}
	if ref.IsPending() {
		return "pending"
	}
	return "finalized"
}

// classifyCallError maps known revert conditions onto the port's sentinel
// errors so valuators never match on message substrings themselves.
func classifyCallError(err error) error {
	msg := err.Error()
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if data, ok := dataErr.ErrorData().(string); ok {
			msg = msg + " " + data
		}
	}
	switch {
	case strings.Contains(msg, "NOT_INITIALIZED"):
		return fmt.Errorf("%w: %s", outbound.ErrPositionNotInitialized, err)
	case strings.Contains(msg, "unknown-pool"), strings.Contains(msg, "unknown pool"):
		return fmt.Errorf("%w: %s", outbound.ErrUnknownPool, err)
	default:
		return err
	}
}
