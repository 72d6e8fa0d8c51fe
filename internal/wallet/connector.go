package wallet

import (
	"context"
	"log/slog"
	"sync"

	"hati/internal/domain"
)

// Connector owns the single process-wide wallet session. It is the session's
// only writer: Connect and the provider account-change handler mutate it,
// everything else reads through CurrentSession.
type Connector struct {
	provider Provider
	logger   *slog.Logger

	mu          sync.RWMutex
	session     domain.WalletSession
	subscribers map[int]func(domain.WalletSession)
	nextSubID   int

	unsubscribe func()
}

func NewConnector(provider Provider, logger *slog.Logger) *Connector {
	c := &Connector{
		provider:    provider,
		logger:      logger,
		subscribers: make(map[int]func(domain.WalletSession)),
	}
	c.unsubscribe = provider.OnAccountsChanged(c.handleAccountsChanged)
	return c
}

// Connect prompts the signing agent for account access and caches the
// resulting session. An empty grant is treated as unavailable, not connected.
func (c *Connector) Connect(ctx context.Context) (domain.WalletSession, error) {
	accounts, err := c.provider.RequestAccounts(ctx)
	if err != nil {
		return domain.WalletSession{}, normalizeError(err)
	}
	if len(accounts) == 0 {
		return domain.WalletSession{}, normalizeError(&ProviderError{
			Code:    CodeProviderDisconnected,
			Message: "provider granted no accounts",
		})
	}

	session := domain.WalletSession{Address: accounts[0]}
	c.setSession(session)
	c.logger.Info("wallet connected", "address", session.Address)
	return session, nil
}

// CurrentSession queries the provider for already-authorized accounts without
// prompting. Provider errors degrade to a disconnected session: a probe must
// never fail a read path.
func (c *Connector) CurrentSession(ctx context.Context) domain.WalletSession {
	accounts, err := c.provider.Accounts(ctx)
	if err != nil {
		c.logger.Warn("wallet probe failed", "error", err)
		c.setSession(domain.WalletSession{})
		return domain.WalletSession{}
	}

	session := domain.WalletSession{}
	if len(accounts) > 0 {
		session.Address = accounts[0]
	}
	c.setSession(session)
	return session
}

// Session returns the cached session without touching the provider.
func (c *Connector) Session() domain.WalletSession {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// OnAccountsChanged registers a listener for session transitions, including
// disconnects. The returned func unsubscribes.
func (c *Connector) OnAccountsChanged(fn func(domain.WalletSession)) func() {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

// Close detaches from the provider's notification stream.
func (c *Connector) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

// handleAccountsChanged is the second writer path. An empty account set resets
// the session rather than leaving a stale address cached.
func (c *Connector) handleAccountsChanged(accounts []string) {
	session := domain.WalletSession{}
	if len(accounts) > 0 {
		session.Address = accounts[0]
	}
	changed := c.setSession(session)
	if changed && !session.Connected() {
		c.logger.Info("wallet disconnected")
	}
}

// setSession swaps the cached session and fans out to subscribers when it
// actually changed. Subscribers run outside the lock.
func (c *Connector) setSession(session domain.WalletSession) bool {
	c.mu.Lock()
	if c.session == session {
		c.mu.Unlock()
		return false
	}
	c.session = session
	fns := make([]func(domain.WalletSession), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(session)
	}
	return true
}

// SendTransaction forwards the unsigned transaction to the signing agent on
// behalf of the ledger client. Provider errors pass through raw so the ledger
// layer can map rejection-during-signing onto its own taxonomy.
func (c *Connector) SendTransaction(ctx context.Context, tx TxRequest) (string, error) {
	return c.provider.SendTransaction(ctx, tx)
}
