package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrCodeSupplierNotFound, "supplier not found").WithDetail("id=sup-042")
	assert.Equal(t, `[MATCH_004] supplier not found: id=sup-042`, err.Error())

	verr := Validation("budget", "must be a parseable price string")
	assert.Equal(t, `[COMMON_007] field "budget": must be a parseable price string`, verr.Error())
}

func TestWrapPreservesChain(t *testing.T) {
	base := stderrors.New("connection refused")
	wrapped := Wrap(base, ErrCodeDatabaseError, "failed to list suppliers")

	require.NotNil(t, wrapped)
	assert.True(t, stderrors.Is(wrapped, base))
	assert.Equal(t, ErrCodeDatabaseError, GetCode(wrapped))
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "unused"))
}

func TestWrapUnknownKeepsOriginalCode(t *testing.T) {
	inner := New(ErrCodeRFQNotFound, "rfq missing")
	outer := Wrap(fmt.Errorf("context: %w", inner), CodeUnknown, "lookup failed")
	assert.Equal(t, ErrCodeRFQNotFound, outer.Code)
}

func TestIsCodeWalksChain(t *testing.T) {
	inner := New(ErrCodeMarketDataUnavailable, "price feed down")
	outer := Wrap(inner, ErrCodeAnalysisFailed, "analysis degraded")

	assert.True(t, IsCode(outer, ErrCodeAnalysisFailed))
	assert.True(t, IsCode(outer, ErrCodeMarketDataUnavailable))
	assert.False(t, IsCode(outer, ErrCodeNotFound))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(New(ErrCodeRFQNotFound, "missing")))
	assert.True(t, IsNotFound(NotFound("missing")))
	assert.False(t, IsNotFound(New(ErrCodeTimeout, "slow")))
	assert.False(t, IsNotFound(nil))
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(Validation("category", "required")))
	assert.True(t, IsValidation(ValidationWithCode(ErrCodeSupplierInvalid, "rating", "out of range")))
	assert.False(t, IsValidation(Internal("boom")))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeStorageError, GetCode(New(ErrCodeStorageError, "minio put failed")))
}

func TestGetField(t *testing.T) {
	assert.Equal(t, "quantity", GetField(Validation("quantity", "must be positive")))
	assert.Empty(t, GetField(stderrors.New("plain")))
}

func TestHTTPStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatusForCode(ErrCodeSupplierNotFound))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatusForCode(ErrCodeValidation))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatusForCode(ErrCodeCollaboratorUnavailable))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusForCode(ErrorCode("BOGUS_999")))
}

func TestClientServerClassification(t *testing.T) {
	assert.True(t, IsClientError(ErrCodeValidation))
	assert.False(t, IsServerError(ErrCodeValidation))
	assert.True(t, IsServerError(ErrCodeEventPublishError))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "MATCH", ModuleForCode(ErrCodeScoringFailed))
	assert.Equal(t, "NEG", ModuleForCode(ErrCodeReportArchiveFailed))
	assert.Equal(t, "COMMON", ModuleForCode(ErrCodeInternal))
}
