package wallet

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"hati/internal/platform/jsonrpc"
)

// RPCProvider speaks to a signing agent daemon over JSON-RPC. Plain HTTP has
// no push channel, so account changes are detected by polling eth_accounts at
// a configured interval and diffing against the last observed set.
type RPCProvider struct {
	rpc    *jsonrpc.Client
	logger *slog.Logger

	pollInterval time.Duration

	mu        sync.Mutex
	last      []string
	listeners map[int]func([]string)
	nextID    int
}

func NewRPCProvider(endpoint string, pollInterval time.Duration, logger *slog.Logger) *RPCProvider {
	return &RPCProvider{
		rpc:          jsonrpc.NewClient(endpoint),
		logger:       logger,
		pollInterval: pollInterval,
		listeners:    make(map[int]func([]string)),
	}
}

func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := p.rpc.Call(ctx, "eth_requestAccounts", nil, &accounts); err != nil {
		return nil, translateRPCError(err)
	}
	p.observe(accounts)
	return accounts, nil
}

func (p *RPCProvider) Accounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := p.rpc.Call(ctx, "eth_accounts", nil, &accounts); err != nil {
		return nil, translateRPCError(err)
	}
	p.observe(accounts)
	return accounts, nil
}

func (p *RPCProvider) SendTransaction(ctx context.Context, tx TxRequest) (string, error) {
	var hash string
	if err := p.rpc.Call(ctx, "eth_sendTransaction", []any{tx}, &hash); err != nil {
		return "", translateRPCError(err)
	}
	return hash, nil
}

func (p *RPCProvider) OnAccountsChanged(fn func([]string)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// Run polls the account set until ctx is cancelled. Intended to run under the
// process errgroup next to the HTTP server.
func (p *RPCProvider) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// Accounts observes the fetched set itself; only the failure
			// needs handling here.
			if _, err := p.Accounts(ctx); err != nil {
				// Unreachable agent means no authorized accounts; report
				// that instead of freezing the last known set.
				p.logger.Warn("wallet accounts poll failed", "error", err)
				p.observe(nil)
			}
		}
	}
}

// observe diffs the account set against the last one and fans out on change.
func (p *RPCProvider) observe(accounts []string) {
	p.mu.Lock()
	if slices.Equal(p.last, accounts) {
		p.mu.Unlock()
		return
	}
	p.last = slices.Clone(accounts)
	fns := make([]func([]string), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(accounts)
	}
}

// translateRPCError re-labels JSON-RPC error objects as provider errors so
// the connector's normalization sees the EIP-1193 code.
func translateRPCError(err error) error {
	var rpcErr *jsonrpc.Error
	if errors.As(err, &rpcErr) {
		return &ProviderError{Code: rpcErr.Code, Message: rpcErr.Message}
	}
	return err
}
