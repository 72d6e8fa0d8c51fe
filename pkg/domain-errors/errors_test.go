package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode_WrappedChain(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeNetworkError, "submit transaction", cause)
	wrapped := fmt.Errorf("notarize: %w", err)

	assert.True(t, HasCode(wrapped, CodeNetworkError))
	assert.False(t, HasCode(wrapped, CodeTimeout))
	assert.True(t, errors.Is(wrapped, cause))
}

func TestCodeOf_Default(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
	assert.Equal(t, CodeAlreadyAnchored, CodeOf(New(CodeAlreadyAnchored, "doc is terminal")))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeBadRequest:           http.StatusBadRequest,
		CodeNotFound:             http.StatusNotFound,
		CodeAlreadyAnchored:      http.StatusConflict,
		CodeOperationInProgress:  http.StatusConflict,
		CodeWalletNotConnected:   http.StatusPreconditionFailed,
		CodeUserRejected:         http.StatusForbidden,
		CodeHashMismatch:         http.StatusUnprocessableEntity,
		CodeTimeout:              http.StatusGatewayTimeout,
		CodeNetworkError:         http.StatusBadGateway,
		CodeReconciliationFailed: http.StatusOK,
		Code("unknown"):          http.StatusInternalServerError,
	}
	for code, want := range cases {
		require.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}
