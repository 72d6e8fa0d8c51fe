package wallet

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// MockProvider is an in-process signing agent for local development and
// tests. It authorizes a fixed account, "signs" by fabricating a tx hash, and
// lets tests drive account changes synchronously through SetAccounts.
type MockProvider struct {
	Latency time.Duration
	// Address is the account granted on RequestAccounts.
	Address string
	// Reject makes RequestAccounts fail with the EIP-1193 rejection code.
	Reject bool
	// RejectSend makes SendTransaction fail with the rejection code.
	RejectSend bool

	mu        sync.Mutex
	accounts  []string
	listeners map[int]func([]string)
	nextID    int
}

func NewMockProvider(address string) *MockProvider {
	return &MockProvider{
		Address:   address,
		listeners: make(map[int]func([]string)),
	}
}

func (p *MockProvider) RequestAccounts(_ context.Context) ([]string, error) {
	time.Sleep(p.Latency)
	if p.Reject {
		return nil, &ProviderError{Code: CodeProviderUserRejected, Message: "user rejected the request"}
	}
	p.SetAccounts([]string{p.Address})
	return []string{p.Address}, nil
}

func (p *MockProvider) Accounts(_ context.Context) ([]string, error) {
	time.Sleep(p.Latency)
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.accounts...), nil
}

func (p *MockProvider) SendTransaction(_ context.Context, _ TxRequest) (string, error) {
	time.Sleep(p.Latency)
	if p.RejectSend {
		return "", &ProviderError{Code: CodeProviderUserRejected, Message: "user rejected the request"}
	}
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	return "0x" + hex.EncodeToString(buf), nil
}

func (p *MockProvider) OnAccountsChanged(fn func([]string)) func() {
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

// SetAccounts replaces the authorized set and notifies listeners
// synchronously, so tests observe the transition before SetAccounts returns.
func (p *MockProvider) SetAccounts(accounts []string) {
	p.mu.Lock()
	p.accounts = append([]string{}, accounts...)
	fns := make([]func([]string), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(accounts)
	}
}

// Disconnect simulates the user revoking access in the agent.
func (p *MockProvider) Disconnect() {
	p.SetAccounts(nil)
}
