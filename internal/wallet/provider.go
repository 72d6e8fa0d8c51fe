// Package wallet manages the session with the external signing agent.
//
// The agent (a browser extension, a hardware bridge, a local signer daemon)
// holds the private keys. This process never sees key material: it asks the
// provider to authorize accounts and to sign-and-broadcast transactions, and
// treats the answers as opaque.
package wallet

import (
	"context"
	"errors"
	"fmt"

	domainerrors "hati/pkg/domain-errors"
)

// Provider is the boundary to the signing agent, shaped after the EIP-1193
// request surface.
type Provider interface {
	// RequestAccounts prompts the human to authorize accounts. Blocking and
	// interactive on real providers.
	RequestAccounts(ctx context.Context) ([]string, error)

	// Accounts returns the already-authorized accounts without prompting.
	// Empty means not connected.
	Accounts(ctx context.Context) ([]string, error)

	// SendTransaction hands the unsigned transaction to the agent, which
	// signs it with its own keys and broadcasts it, returning the tx hash.
	SendTransaction(ctx context.Context, tx TxRequest) (string, error)

	// OnAccountsChanged registers a callback fired when the authorized
	// account set changes. Returns an unsubscribe func.
	OnAccountsChanged(fn func(accounts []string)) (unsubscribe func())
}

// TxRequest is the unsigned transaction handed to the provider. Fields are
// 0x-prefixed hex, matching eth_sendTransaction parameters.
type TxRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Data string `json:"data"`
}

// Provider-level error codes (EIP-1193).
const (
	CodeProviderUserRejected = 4001
	CodeProviderUnauthorized = 4100
	CodeProviderUnsupported  = 4200
	CodeProviderDisconnected = 4900
)

// ProviderError carries the numeric code reported by the signing agent.
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// normalizeError maps provider failures onto the domain taxonomy. Rejection
// semantics (the human said no) become UserRejected; everything else at this
// boundary means the agent is unreachable or unusable.
func normalizeError(err error) error {
	var perr *ProviderError
	if errors.As(err, &perr) && perr.Code == CodeProviderUserRejected {
		return domainerrors.Wrap(domainerrors.CodeUserRejected, "signer declined the request", err)
	}
	return domainerrors.Wrap(domainerrors.CodeWalletUnavailable, "wallet provider unavailable", err)
}
