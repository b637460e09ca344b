package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("missing %s", "token"), KindValidation},
		{"wrapped not found", fmt.Errorf("load: %w", NotFound("transaction not found")), KindNotFound},
		{"conflict", Conflict("already hidden"), KindConflict},
		{"plain error", errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestUpstreamCarriesDescription(t *testing.T) {
	err := Upstream(errors.New("ITEM_LOGIN_REQUIRED"), "ledger provider")
	assert.Equal(t, "ledger provider: ITEM_LOGIN_REQUIRED", err.Error())
	assert.Equal(t, "ledger provider: ITEM_LOGIN_REQUIRED", PublicMessage(err))
	assert.True(t, Is(err, KindUpstream))
}

func TestPublicMessageHidesInternal(t *testing.T) {
	err := Internal(errors.New("pq: connection refused"), "list transactions")
	assert.Equal(t, "internal error", PublicMessage(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(KindValidation))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(KindNotFound))
	assert.Equal(t, http.StatusConflict, HTTPStatus(KindConflict))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(KindUpstream))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(KindAuth))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(KindInternal))
}
