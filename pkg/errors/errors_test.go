package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCarriesCodeAndMessage(t *testing.T) {
	err := New(CodeEmptyCart, "nothing to check out")

	assert.Equal(t, CodeEmptyCart, err.Code())
	assert.Equal(t, "nothing to check out", err.Message())
	assert.Equal(t, "EMPTY_CART: nothing to check out", err.Error())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("connection reset")
	err := Wrap(CodeStorage, cause, "loading cart")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, CodeStorage, err.Code())
}

func TestAsUnwrapsThroughFmtWrapping(t *testing.T) {
	inner := New(CodeInvalidQuantity, "quantity must be positive")
	wrapped := fmt.Errorf("adding line: %w", inner)

	typed := As(wrapped)
	require.NotNil(t, typed)
	assert.Equal(t, CodeInvalidQuantity, typed.Code())
}

func TestIsMatchesCode(t *testing.T) {
	err := New(CodeDanglingProduct, "product missing")

	assert.True(t, Is(err, CodeDanglingProduct))
	assert.False(t, Is(err, CodeEmptyCart))
	assert.False(t, Is(nil, CodeEmptyCart))
}

func TestMetadataForDomainCodes(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeInvalidQuantity, http.StatusBadRequest},
		{CodeUnknownProduct, http.StatusNotFound},
		{CodeEmptyCart, http.StatusUnprocessableEntity},
		{CodeDanglingProduct, http.StatusConflict},
		{CodeStorage, http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.status, MetadataFor(tc.code).HTTPStatus, string(tc.code))
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	assert.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
}

func TestDumpCollectsChain(t *testing.T) {
	cause := stdErrors.New("duplicate key value violates unique constraint \"ux_cart_lines_owner_product\"")
	err := Wrap(CodeStorage, cause, "merging cart line")

	dump := Dump(err)
	assert.Equal(t, CodeStorage, dump.Code)
	assert.Len(t, dump.Chain, 2)
	assert.Contains(t, dump.TopMessage, "merging cart line")
}
