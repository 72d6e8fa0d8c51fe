package httptransport_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"hati/internal/audit"
	"hati/internal/domain"
	"hati/internal/document"
	"hati/internal/document/files"
	documenthandler "hati/internal/document/handler"
	docstore "hati/internal/document/store"
	"hati/internal/jwtauth"
	"hati/internal/notary"
	notaryhandler "hati/internal/notary/handler"
	notarystore "hati/internal/notary/store"
	httptransport "hati/internal/transport/http"
	"hati/internal/wallet"
	wallethandler "hati/internal/wallet/handler"
	"hati/pkg/contenthash"
	domainerrors "hati/pkg/domain-errors"
)

type RouterSuite struct {
	suite.Suite

	validator *jwtauth.Validator
	connector *wallet.Connector
	router    http.Handler
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	logger := slog.Default()
	pub := audit.NewPublisher(make(chan audit.Event, 64), logger)

	docs := document.NewService(
		docstore.NewMemory(),
		files.NewMemory(),
		contenthash.SHA256,
		pub,
		nil,
		logger,
	)

	provider := wallet.NewMockProvider("0x1111111111111111111111111111111111111111")
	s.connector = wallet.NewConnector(provider, logger)

	orch := notary.NewOrchestrator(
		docs,
		unusableLedger{},
		s.connector,
		notarystore.NewMemory(time.Hour),
		contenthash.SHA256,
		pub,
		nil,
		logger,
	)

	s.validator = jwtauth.New("test-signing-key")
	s.router = httptransport.NewRouter(httptransport.Deps{
		Documents:    documenthandler.New(docs, logger),
		Notary:       notaryhandler.New(orch, logger),
		Wallet:       wallethandler.New(s.connector, pub, logger),
		JWTValidator: s.validator,
		Logger:       logger,
	})
}

func (s *RouterSuite) TearDownTest() {
	s.connector.Close()
}

func (s *RouterSuite) TestHealthz() {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	s.Equal(http.StatusOK, rec.Code)
	var resp map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal("ok", resp["status"])
}

func (s *RouterSuite) TestMetricsExposed() {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterSuite) TestProtectedRoutesRejectMissingToken() {
	for _, route := range []string{"/documents", "/wallet/session"} {
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, route, nil))
		s.Equal(http.StatusUnauthorized, rec.Code, route)
	}
}

func (s *RouterSuite) TestAuthenticatedWalletFlow() {
	token, err := s.validator.Mint("citizen-1", time.Hour)
	s.Require().NoError(err)

	req := httptest.NewRequest(http.MethodPost, "/wallet/connect", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var resp wallethandler.SessionResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.True(resp.Connected)

	req = httptest.NewRequest(http.MethodGet, "/wallet/session", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.True(resp.Connected)
}

// unusableLedger fails every call; router tests never reach the chain.
type unusableLedger struct{}

func (unusableLedger) Submit(context.Context, uuid.UUID, string, string) (domain.TxHandle, error) {
	return domain.TxHandle{}, domainerrors.New(domainerrors.CodeNetworkError, "no chain in router tests")
}

func (unusableLedger) AwaitConfirmation(context.Context, domain.TxHandle) (domain.Receipt, error) {
	return domain.Receipt{}, domainerrors.New(domainerrors.CodeNetworkError, "no chain in router tests")
}

func (unusableLedger) PollReceipt(context.Context, domain.TxHandle) (domain.Receipt, bool, error) {
	return domain.Receipt{}, false, nil
}
