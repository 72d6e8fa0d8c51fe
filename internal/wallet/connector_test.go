package wallet_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"hati/internal/domain"
	"hati/internal/wallet"
	domainerrors "hati/pkg/domain-errors"
)

const testAddress = "0x1111111111111111111111111111111111111111"

type ConnectorSuite struct {
	suite.Suite

	provider  *wallet.MockProvider
	connector *wallet.Connector
}

func TestConnectorSuite(t *testing.T) {
	suite.Run(t, new(ConnectorSuite))
}

func (s *ConnectorSuite) SetupTest() {
	s.provider = wallet.NewMockProvider(testAddress)
	s.connector = wallet.NewConnector(s.provider, slog.Default())
}

func (s *ConnectorSuite) TearDownTest() {
	s.connector.Close()
}

func (s *ConnectorSuite) TestConnectGrantsSession() {
	session, err := s.connector.Connect(context.Background())
	s.Require().NoError(err)
	s.Equal(testAddress, session.Address)
	s.True(session.Connected())
	s.Equal(session, s.connector.Session())
}

func (s *ConnectorSuite) TestConnectUserRejected() {
	s.provider.Reject = true

	_, err := s.connector.Connect(context.Background())
	s.Require().Error(err)
	s.True(domainerrors.HasCode(err, domainerrors.CodeUserRejected))
	s.False(s.connector.Session().Connected())
}

func (s *ConnectorSuite) TestCurrentSessionDoesNotPrompt() {
	// No prior grant: probe sees no accounts and must not prompt.
	session := s.connector.CurrentSession(context.Background())
	s.False(session.Connected())

	// After an out-of-band grant the probe picks the account up.
	s.provider.SetAccounts([]string{testAddress})
	session = s.connector.CurrentSession(context.Background())
	s.Equal(testAddress, session.Address)
}

func (s *ConnectorSuite) TestDisconnectResetsSessionAndNotifies() {
	_, err := s.connector.Connect(context.Background())
	s.Require().NoError(err)

	var mu sync.Mutex
	var transitions []domain.WalletSession
	unsubscribe := s.connector.OnAccountsChanged(func(session domain.WalletSession) {
		mu.Lock()
		transitions = append(transitions, session)
		mu.Unlock()
	})
	defer unsubscribe()

	s.provider.Disconnect()

	s.False(s.connector.Session().Connected(), "stale address must not survive a disconnect")
	mu.Lock()
	defer mu.Unlock()
	s.Require().Len(transitions, 1)
	s.False(transitions[0].Connected())
}

func (s *ConnectorSuite) TestAccountSwitchPropagates() {
	_, err := s.connector.Connect(context.Background())
	s.Require().NoError(err)

	other := "0x2222222222222222222222222222222222222222"
	s.provider.SetAccounts([]string{other})

	s.Equal(other, s.connector.Session().Address)
}

func (s *ConnectorSuite) TestUnsubscribeStopsNotifications() {
	var mu sync.Mutex
	calls := 0
	unsubscribe := s.connector.OnAccountsChanged(func(domain.WalletSession) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	unsubscribe()

	_, err := s.connector.Connect(context.Background())
	s.Require().NoError(err)

	mu.Lock()
	defer mu.Unlock()
	s.Zero(calls)
}

func (s *ConnectorSuite) TestSendTransactionPassesProviderErrorThrough() {
	s.provider.RejectSend = true

	_, err := s.connector.SendTransaction(context.Background(), wallet.TxRequest{})
	s.Require().Error(err)

	var perr *wallet.ProviderError
	s.Require().ErrorAs(err, &perr)
	s.Equal(wallet.CodeProviderUserRejected, perr.Code)
}
